package unix

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/internal/transporttest"
)

func TestUnixTransport(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "hkv.sock")
	transporttest.StartServer(t, NewUnixServerTransport(), endpoint)

	client := NewUnixClientTransport()
	transporttest.Connect(t, client, endpoint)
	transporttest.RunRoundTrips(t, client)
}

func TestListenReplacesStaleSocket(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "stale.sock")

	// a crashed server leaves its socket file behind
	stale, err := net.Listen("unix", endpoint)
	if err != nil {
		t.Fatalf("Failed to create socket: %v", err)
	}
	stale.(*net.UnixListener).SetUnlinkOnClose(false)
	stale.Close()

	listener, err := serverConnector{}.Listen(common.ServerConfig{Transport: common.ServerTransportConfig{Endpoint: endpoint}})
	if err != nil {
		t.Fatalf("Listen failed on a stale socket: %v", err)
	}
	listener.Close()
}

func TestListenKeepsRegularFiles(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "data.db")
	if err := os.WriteFile(endpoint, []byte("important"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := (serverConnector{}).Listen(common.ServerConfig{Transport: common.ServerTransportConfig{Endpoint: endpoint}}); err == nil {
		t.Fatalf("Expected Listen to refuse a regular file")
	}
	if data, err := os.ReadFile(endpoint); err != nil || string(data) != "important" {
		t.Errorf("File was modified: %q, %v", data, err)
	}
}
