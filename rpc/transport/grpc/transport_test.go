package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/internal/transporttest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

func TestGRPCTransport(t *testing.T) {
	endpoint := transporttest.FreeTCPEndpoint(t)
	transporttest.StartServer(t, NewGRPCServerTransport(), endpoint)

	client := NewGRPCClientTransport()
	transporttest.Connect(t, client, endpoint)
	transporttest.RunRoundTrips(t, client)
}

func TestGRPCMissingShard(t *testing.T) {
	endpoint := transporttest.FreeTCPEndpoint(t)
	transporttest.StartServer(t, NewGRPCServerTransport(), endpoint)

	// wait until the server is up
	transporttest.Connect(t, NewGRPCClientTransport(), endpoint)

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	req, resp := []byte("x"), []byte(nil)
	err = conn.Invoke(context.Background(), callMethod, &req, &resp)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Expected InvalidArgument without shard metadata, got %v", err)
	}
}

func TestRawCodec(t *testing.T) {
	codec := rawCodec{}
	in := []byte("payload")

	data, err := codec.Marshal(&in)
	if err != nil {
		t.Fatal(err)
	}
	var out []byte
	if err := codec.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if string(out) != "payload" {
		t.Errorf("Unexpected payload %q", out)
	}

	if _, err := codec.Marshal("not bytes"); err == nil {
		t.Errorf("Expected an error for a non byte slice value")
	}
}

func TestGRPCCloseBeforeListen(t *testing.T) {
	endpoint := transporttest.FreeTCPEndpoint(t)
	server := NewGRPCServerTransport()
	server.RegisterHandler(transporttest.EchoHandler)

	if err := server.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- server.Listen(common.ServerConfig{Transport: common.ServerTransportConfig{Endpoint: endpoint}})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Listen after Close returned an error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Listen kept serving after Close")
	}

	if conn, err := net.DialTimeout("tcp", endpoint, time.Second); err == nil {
		conn.Close()
		t.Errorf("Expected %s to be closed", endpoint)
	}
}
