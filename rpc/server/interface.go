package server

import (
	"context"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It translates request messages into store calls and the results into responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response.
	// Domain errors are reported inside the response, never as a Go error.
	Handle(ctx context.Context, req *common.Message, store store.IStore) (resp *common.Message)
}
