package grpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func NewGRPCClientTransport() transport.IRPCClientTransport {
	return &grpcClientTransport{}
}

type grpcClientTransport struct {
	conns      []*grpc.ClientConn
	counter    atomic.Uint32
	timeout    time.Duration
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *grpcClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	if err := t.Close(); err != nil {
		return err
	}

	for _, endpoint := range config.Transport.Endpoints {
		// grpc connects lazily, errors here are configuration errors
		conn, err := grpc.NewClient(endpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
		)
		if err != nil {
			t.Close()
			return fmt.Errorf("failed to create client for %s: %w", endpoint, err)
		}
		t.conns = append(t.conns, conn)
	}

	t.timeout = time.Duration(config.TimeoutSecond) * time.Second
	t.retryCount = max(config.Transport.RetryCount, 1)
	return nil
}

func (t *grpcClientTransport) Send(ctx context.Context, shardId uint64, req []byte) ([]byte, error) {
	if len(t.conns) == 0 {
		return nil, fmt.Errorf("grpc transport not initialized")
	}

	ctx = metadata.AppendToOutgoingContext(ctx, shardMetadataKey, strconv.FormatUint(shardId, 10))

	var lastErr error
	for i := 0; i < t.retryCount; i++ {
		resp, err := t.invoke(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		// only retry if the server could not be reached
		if status.Code(err) != codes.Unavailable || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (t *grpcClientTransport) Close() error {
	var errs []error
	for _, conn := range t.conns {
		errs = append(errs, conn.Close())
	}
	t.conns = nil
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// invoke runs a single call on the next connection (round robin)
func (t *grpcClientTransport) invoke(ctx context.Context, req []byte) ([]byte, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	conn := t.conns[t.counter.Add(1)%uint32(len(t.conns))]
	var resp []byte
	if err := conn.Invoke(ctx, callMethod, &req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
