package base

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

const (
	DefaultWorkersPerConn = 16
	DefaultBufferSize     = 64 * 1024
)

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandleFunc
	config     common.ServerConfig
	bufferPool sync.Pool

	mu       sync.Mutex
	listener net.Listener
	closing  atomic.Bool
	conns    *xsync.MapOf[uint64, net.Conn]
	nextConn atomic.Uint64
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with a per-connection
// worker pool. Buffer size and worker count are taken from the config passed to Listen.
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		conns:     xsync.NewMapOf[uint64, net.Conn](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	t.config = config
	if t.config.Transport.WorkersPerConn < 1 {
		t.config.Transport.WorkersPerConn = DefaultWorkersPerConn
	}
	if t.config.Transport.BufferSize < 1 {
		t.config.Transport.BufferSize = DefaultBufferSize
	}
	bufferSize := t.config.Transport.BufferSize
	t.bufferPool.New = func() any {
		buf := make([]byte, bufferSize)
		return &buf
	}

	// Create listener using the connector
	listener, err := t.connector.Listen(t.config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	t.mu.Lock()
	t.listener = listener
	t.mu.Unlock()
	t.closing.Store(false)

	Logger.Infof("Starting %s server on %s with %d workers per connection",
		t.connector.GetName(), t.config.Transport.Endpoint, t.config.Transport.WorkersPerConn)

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.closing.Load() {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				Logger.Warningf("Accept error: %v", err)
				continue
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
			Logger.Errorf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			continue
		}

		// Handle the connection in a goroutine
		id := t.nextConn.Add(1)
		t.conns.Store(id, conn)
		go func() {
			defer t.conns.Delete(id)
			t.handleConnection(conn)
		}()
	}
}

func (t *serverTransport) Close() error {
	t.closing.Store(true)

	t.mu.Lock()
	listener := t.listener
	t.listener = nil
	t.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}
	t.conns.Range(func(_ uint64, conn net.Conn) bool {
		conn.Close()
		return true
	})
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection serves the requests of one connection until it is closed.
// Requests are processed concurrently by at most WorkersPerConn workers,
// responses carry the requestID of their request and may be out of order.
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	// canceled when the connection ends, aborts requests still waiting for a store
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	// The buffered channel acts as a counting semaphore
	workerSemaphore := make(chan struct{}, t.config.Transport.WorkersPerConn)
	var wg sync.WaitGroup
	var writeMu sync.Mutex

	respond := func(header frameHeader, data []byte, buf *[]byte) {
		defer func() {
			t.bufferPool.Put(buf)
			<-workerSemaphore
			wg.Done()
		}()

		start := time.Now()
		resp := t.handler(ctx, header.shardID, data)
		Logger.Debugf("Processed request %d for shard %d in %s", header.requestID, header.shardID, time.Since(start))

		writeMu.Lock()
		defer writeMu.Unlock()

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set write deadline: %v", err)
				return
			}
		}
		if err := writeFrame(conn, header.shardID, header.requestID, resp); err != nil {
			Logger.Errorf("Failed to write response: %v", err)
		}
	}

	for {
		buf := t.bufferPool.Get().(*[]byte)
		header, data, err := readFrame(conn, *buf)
		if err != nil {
			t.bufferPool.Put(buf)
			if err == io.EOF || t.closing.Load() {
				Logger.Debugf("Connection from %s closed", conn.RemoteAddr())
			} else {
				Logger.Errorf("Error reading request from %s: %v", conn.RemoteAddr(), err)
			}
			break
		}

		// blocks if WorkersPerConn requests are in flight
		workerSemaphore <- struct{}{}
		wg.Add(1)
		go respond(header, data, buf)
	}

	// Requests still waiting for a store give up, running ones finish
	cancel()
	wg.Wait()
}
