package base

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

// errConnClosed is returned for requests on a connection that is gone
var errConnClosed = errors.New("connection is closed")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint. Dialing gives
	// up after the client timeout.
	Connect(endpoint string, config common.ClientConfig) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection represents a single net connection
type clientConnection struct {
	endpoint string
	parent   *clientTransport
	pending  *xsync.MapOf[uint64, chan responseResult]

	mu   sync.Mutex // Protects conn and serializes writes
	conn net.Conn
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex atomic.Uint64 // Round Robin counter
	nextRequestID atomic.Uint64
	stopping      atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.stopping.Store(true)
	t.closeConnections()
	t.stopping.Store(false)
	t.config = config

	connectionsPerEP := max(config.Transport.ConnectionsPerEndpoint, 1)
	connections := make([]*clientConnection, 0, len(config.Transport.Endpoints)*connectionsPerEP)

	for _, endpoint := range config.Transport.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			c := &clientConnection{
				endpoint: endpoint,
				parent:   t,
				pending:  xsync.NewMapOf[uint64, chan responseResult](),
			}

			conn, err := c.dial()
			if err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}
			c.conn = conn
			connections = append(connections, c)
			go c.readResponses(conn)
		}
	}

	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Infof("Connected %d out of %d connections to %d endpoints using %s transport",
		len(connections), len(config.Transport.Endpoints)*connectionsPerEP, len(config.Transport.Endpoints), t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(ctx context.Context, shardId uint64, req []byte) ([]byte, error) {
	// We always try at least once
	attempts := max(t.config.Transport.RetryCount, 1)
	backoff := 50 * time.Millisecond

	var lastErr error
	for i := 0; i < attempts; i++ {
		conn := t.getNextConnection()
		if conn == nil {
			return nil, fmt.Errorf("no active connections available")
		}

		data, err := conn.roundTrip(ctx, shardId, t.nextRequestID.Add(1), req)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
		Logger.Debugf("Request attempt %d/%d to %s failed: %v", i+1, attempts, conn.endpoint, err)

		if i+1 < attempts {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := time.Duration(float64(backoff) * (0.9 + 0.2*rand.Float64()))
			select {
			case <-time.After(jitter):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("failed to send request after %d attempts: %w", attempts, lastErr)
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	if len(t.connections) == 0 {
		return nil
	}
	index := t.nextConnIndex.Add(1) % uint64(len(t.connections))
	return t.connections[index]
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, c := range connections {
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.mu.Unlock()
	}
}

// timeout returns the configured per request timeout, zero means none
func (t *clientTransport) timeout() time.Duration {
	return time.Duration(t.config.TimeoutSecond) * time.Second
}

// roundTrip writes one request frame and waits for the matching response
func (c *clientConnection) roundTrip(ctx context.Context, shardId, requestID uint64, req []byte) ([]byte, error) {
	respCh := make(chan responseResult, 1)
	c.pending.Store(requestID, respCh)
	defer c.pending.Delete(requestID)

	if err := c.write(shardId, requestID, req); err != nil {
		return nil, err
	}

	var timeoutCh <-chan time.Time
	if timeout := c.parent.timeout(); timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		return nil, fmt.Errorf("request timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *clientConnection) write(shardId, requestID uint64, req []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errConnClosed
	}
	if timeout := c.parent.timeout(); timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return writeFrame(c.conn, shardId, requestID, req)
}

// readResponses distributes the responses read from conn to the waiting
// requests. On a read error all pending requests fail and the connection is
// re-established once.
func (c *clientConnection) readResponses(conn net.Conn) {
	for {
		header, data, err := readFrame(conn, nil)
		if err != nil {
			c.failPending(fmt.Errorf("error reading response: %w", err))
			if c.parent.stopping.Load() {
				return
			}

			Logger.Warningf("Connection to %s lost: %v", c.endpoint, err)
			newConn, err := c.reconnect(conn)
			if err != nil {
				Logger.Errorf("Failed to reconnect to %s: %v", c.endpoint, err)
				return
			}
			conn = newConn
			continue
		}

		respCh, found := c.pending.Load(header.requestID)
		if !found {
			// the request already gave up (timeout or canceled context)
			Logger.Debugf("Dropping response for unknown request ID %d with shard ID %d", header.requestID, header.shardID)
			continue
		}
		select {
		case respCh <- responseResult{data: data}:
		default:
		}
	}
}

// failPending completes every waiting request with err
func (c *clientConnection) failPending(err error) {
	c.pending.Range(func(requestID uint64, respCh chan responseResult) bool {
		select {
		case respCh <- responseResult{err: err}:
		default:
		}
		return true
	})
}

// reconnect replaces old with a new connection to the same endpoint
func (c *clientConnection) reconnect(old net.Conn) (net.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old.Close()
	c.conn = nil
	if c.parent.stopping.Load() {
		return nil, errConnClosed
	}

	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return conn, nil
}

// dial connects to the endpoint and applies the protocol-specific settings
func (c *clientConnection) dial() (net.Conn, error) {
	conn, err := c.parent.connector.Connect(c.endpoint, c.parent.config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}
	return conn, nil
}
