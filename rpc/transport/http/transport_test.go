package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/internal/transporttest"
)

func TestHTTPTransport(t *testing.T) {
	endpoint := transporttest.FreeTCPEndpoint(t)
	transporttest.StartServer(t, NewHttpServerTransport(), endpoint)

	client := NewHttpClientTransport()
	transporttest.Connect(t, client, endpoint)
	transporttest.RunRoundTrips(t, client)
}

func TestHTTPInvalidShard(t *testing.T) {
	server := &httpServerTransport{handler: transporttest.EchoHandler}
	ts := httptest.NewServer(server.routes(common.ServerConfig{LogLevel: "debug"}))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/not-a-number", "application/octet-stream", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/1")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405 for GET, got %d", resp.StatusCode)
	}
}

func TestHTTPClientSurfacesStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewHttpClientTransport()
	if err := client.Connect(transporttest.ClientConfig(ts.URL)); err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if _, err := client.Send(context.Background(), 1, []byte("x")); err == nil {
		t.Errorf("Expected an error for status 500")
	}
}
