package unix

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/ValentinKolb/hKV/rpc/transport/base"
)

// NewUnixServerTransport creates a server transport listening on a socket path
func NewUnixServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(serverConnector{})
}

// NewUnixClientTransport creates a client transport for socket paths
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(clientConnector{})
}

// --------------------------------------------------------------------------
// Server side (implements base.IServerConnector)
// --------------------------------------------------------------------------

type serverConnector struct{}

func (serverConnector) GetName() string { return "unix" }

// Listen removes a socket left behind by a previous run. Any other file at
// the path is an error.
func (serverConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	socketPath := config.Transport.Endpoint

	info, err := os.Lstat(socketPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to inspect %s: %w", socketPath, err)
	case info.Mode()&fs.ModeSocket == 0:
		return nil, fmt.Errorf("%s exists and is not a socket", socketPath)
	default:
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create Unix socket: %w", err)
	}
	return listener, nil
}

// UpgradeConnection is a no-op, unix sockets have no options worth tuning
func (serverConnector) UpgradeConnection(net.Conn, common.ServerConfig) error {
	return nil
}

// --------------------------------------------------------------------------
// Client side (implements base.IClientConnector)
// --------------------------------------------------------------------------

type clientConnector struct{}

func (clientConnector) GetName() string { return "unix" }

func (clientConnector) Connect(endpoint string, config common.ClientConfig) (net.Conn, error) {
	return net.DialTimeout("unix", endpoint, time.Duration(config.TimeoutSecond)*time.Second)
}

func (clientConnector) UpgradeConnection(net.Conn, common.ClientConfig) error {
	return nil
}
