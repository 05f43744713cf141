// Package transporttest runs the same request/response checks against every
// transport implementation.
package transporttest

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
)

// EchoHandler answers every request with "<shardId>:<request>"
func EchoHandler(_ context.Context, shardId uint64, req []byte) []byte {
	return []byte(fmt.Sprintf("%d:%s", shardId, req))
}

// FreeTCPEndpoint returns a localhost address that was free a moment ago
func FreeTCPEndpoint(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find a free port: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}

// StartServer registers EchoHandler, runs Listen in the background and
// closes the transport when the test ends.
func StartServer(t *testing.T, server transport.IRPCServerTransport, endpoint string) {
	t.Helper()
	server.RegisterHandler(EchoHandler)

	config := common.ServerConfig{
		TimeoutSecond: 5,
		Transport:     common.ServerTransportConfig{Endpoint: endpoint},
		LogLevel:      "info",
	}

	done := make(chan error, 1)
	go func() { done <- server.Listen(config) }()

	t.Cleanup(func() {
		if err := server.Close(); err != nil {
			t.Logf("Close returned: %v", err)
		}
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Listen returned an error after Close: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("Listen did not return after Close")
		}
	})
}

// ClientConfig returns the client configuration used by the tests
func ClientConfig(endpoint string) common.ClientConfig {
	return common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{endpoint},
			RetryCount:             3,
			ConnectionsPerEndpoint: 2,
		},
	}
}

// Connect connects the client, retrying until the server accepts connections
func Connect(t *testing.T, client transport.IRPCClientTransport, endpoint string) {
	t.Helper()
	config := ClientConfig(endpoint)

	deadline := time.Now().Add(5 * time.Second)
	for {
		err := client.Connect(config)
		if err == nil {
			// the first request may still race the listener for lazy transports
			if _, err = client.Send(context.Background(), 0, []byte("ping")); err == nil {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("Failed to connect to %s: %v", endpoint, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Cleanup(func() { client.Close() })
}

// RunRoundTrips checks ordering-independent request/response matching under
// concurrent load.
func RunRoundTrips(t *testing.T, client transport.IRPCClientTransport) {
	t.Helper()

	resp, err := client.Send(context.Background(), 42, []byte("hello"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if string(resp) != "42:hello" {
		t.Errorf("Unexpected response %q", resp)
	}

	const workers = 8
	const requests = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < requests; i++ {
				req := fmt.Sprintf("w%d-r%d", w, i)
				resp, err := client.Send(context.Background(), uint64(w), []byte(req))
				if err != nil {
					t.Errorf("Send %s failed: %v", req, err)
					return
				}
				if want := fmt.Sprintf("%d:%s", w, req); string(resp) != want {
					t.Errorf("Expected %q, got %q", want, resp)
				}
			}
		}(w)
	}
	wg.Wait()
}
