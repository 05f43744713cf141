package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var Logger = logger.GetLogger("transport/rpc")

const (
	// callMethod is the full name of the only RPC of the service
	callMethod = "/hkv.Transport/Call"
	// shardMetadataKey carries the shard id of a call
	shardMetadataKey = "hkv-shard"
)

// callHandlerServer is implemented by the server transport; grpc checks the
// registered implementation against it.
type callHandlerServer interface {
	call(ctx context.Context, req []byte) ([]byte, error)
}

// serviceDesc describes the hkv.Transport service without generated code
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "hkv.Transport",
	HandlerType: (*callHandlerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Call", Handler: callHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hkv/transport",
}

func callHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	var req []byte
	if err := dec(&req); err != nil {
		return nil, err
	}

	server := srv.(callHandlerServer)
	handle := func(ctx context.Context, req any) (any, error) {
		resp, err := server.call(ctx, *req.(*[]byte))
		if err != nil {
			return nil, err
		}
		return &resp, nil
	}
	if interceptor == nil {
		return handle(ctx, &req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: callMethod}
	return interceptor(ctx, &req, info, handle)
}

func NewGRPCServerTransport() transport.IRPCServerTransport {
	return &grpcServerTransport{}
}

type grpcServerTransport struct {
	handler transport.ServerHandleFunc

	mu     sync.Mutex
	server *grpc.Server
	closed bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *grpcServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *grpcServerTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	listener, err := net.Listen("tcp", config.Transport.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	server := grpc.NewServer(grpc.ForceServerCodec(rawCodec{}))
	server.RegisterService(&serviceDesc, t)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return listener.Close()
	}
	t.server = server
	t.mu.Unlock()

	Logger.Infof("Starting gRPC server on %s", config.Transport.Endpoint)
	// Close may stop the server before Serve runs
	if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (t *grpcServerTransport) Close() error {
	t.mu.Lock()
	server := t.server
	t.server = nil
	t.closed = true
	t.mu.Unlock()

	if server != nil {
		server.GracefulStop()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// call reads the shard id from the call metadata and runs the handler
func (t *grpcServerTransport) call(ctx context.Context, req []byte) ([]byte, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get(shardMetadataKey)
	if len(values) != 1 {
		return nil, status.Errorf(codes.InvalidArgument, "expected exactly one %s header, got %d", shardMetadataKey, len(values))
	}
	shardId, err := strconv.ParseUint(values[0], 10, 64)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid shard id %q", values[0])
	}
	return t.handler(ctx, shardId, req), nil
}
