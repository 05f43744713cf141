package client

import (
	"context"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/serializer"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc/client")
)

// rpcClientAdapter is a struct that stores all data needed to send requests
// to one shard
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invoke sends req and returns the decoded response.
//
// Transport and decoding failures become RetCInternalError (or the context
// error), a failed response becomes the *store.Error it carries. A MsgTError
// response or a response of a different type is reported as an error as well.
func (a *rpcClientAdapter) invoke(ctx context.Context, req *common.Message) (*common.Message, error) {
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, store.Errorf(store.RetCInternalError, "failed to serialize request: %v", err)
	}

	respBytes, err := a.transport.Send(ctx, a.shardId, reqBytes)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, store.Errorf(store.RetCInternalError, "failed to send %s request to shard %d: %v", req.MsgType, a.shardId, err)
	}

	resp := &common.Message{}
	if err := a.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, store.Errorf(store.RetCInternalError, "failed to deserialize response: %v", err)
	}

	if resp.MsgType == common.MsgTError {
		code := resp.Code
		if code == store.RetCSuccess {
			code = store.RetCInternalError
		}
		return nil, store.NewError(code, resp.Msg)
	}
	if resp.MsgType != req.MsgType {
		return nil, store.Errorf(store.RetCInternalError, "unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	if err := resp.Err(); err != nil {
		Logger.Debugf("%s on shard %d failed: %v", req.MsgType, a.shardId, err)
		return resp, err
	}
	return resp, nil
}

// paths returns the paths of a successful tree response, never nil
func paths(resp *common.Message) []string {
	if resp.Paths == nil {
		return []string{}
	}
	return resp.Paths
}
