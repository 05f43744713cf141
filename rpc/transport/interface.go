package transport

import (
	"context"

	"github.com/ValentinKolb/hKV/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is called by a server transport for every received request.
// ctx ends when the client goes away or the transport shuts down.
type ServerHandleFunc func(ctx context.Context, shardId uint64, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the server side of the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler for all incoming requests.
	// It must be called before Listen.
	RegisterHandler(handler ServerHandleFunc)
	// Listen accepts requests on config.Transport.Endpoint. It blocks until
	// Close is called (returning nil) or the listener fails.
	Listen(config common.ServerConfig) error
	// Close stops accepting requests and closes all open connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request for the shard and waits for the response.
	// Transport failures are retried, ctx bounds the whole call.
	Send(ctx context.Context, shardId uint64, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
