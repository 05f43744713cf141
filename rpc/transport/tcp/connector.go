package tcp

import (
	"fmt"
	"net"
	"time"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/ValentinKolb/hKV/rpc/transport/base"
)

// NewTCPServerTransport creates a server transport listening on a host:port endpoint
func NewTCPServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(serverConnector{})
}

// NewTCPClientTransport creates a client transport for host:port endpoints
func NewTCPClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(clientConnector{})
}

// --------------------------------------------------------------------------
// Server side (implements base.IServerConnector)
// --------------------------------------------------------------------------

type serverConnector struct{}

func (serverConnector) GetName() string { return "tcp" }

func (serverConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	if _, _, err := net.SplitHostPort(config.Transport.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid tcp endpoint %q: %w", config.Transport.Endpoint, err)
	}
	listener, err := net.Listen("tcp", config.Transport.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", config.Transport.Endpoint, err)
	}
	return listener, nil
}

func (serverConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) error {
	t := config.Transport
	return tune(conn, socketOptions{
		noDelay:         t.TCPNoDelay,
		keepAliveSec:    t.TCPKeepAliveSec,
		lingerSec:       t.TCPLingerSec,
		writeBufferSize: t.WriteBufferSize,
		readBufferSize:  t.ReadBufferSize,
	})
}

// --------------------------------------------------------------------------
// Client side (implements base.IClientConnector)
// --------------------------------------------------------------------------

type clientConnector struct{}

func (clientConnector) GetName() string { return "tcp" }

func (clientConnector) Connect(endpoint string, config common.ClientConfig) (net.Conn, error) {
	dialer := net.Dialer{Timeout: time.Duration(config.TimeoutSecond) * time.Second}
	return dialer.Dial("tcp", endpoint)
}

func (clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	t := config.Transport
	return tune(conn, socketOptions{
		noDelay:         t.TCPNoDelay,
		keepAliveSec:    t.TCPKeepAliveSec,
		lingerSec:       t.TCPLingerSec,
		writeBufferSize: t.WriteBufferSize,
		readBufferSize:  t.ReadBufferSize,
	})
}
