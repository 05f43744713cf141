package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
)

// NewIStoreServerAdapter creates the adapter for a store whose engine lives at location
func NewIStoreServerAdapter(location string) IRPCServerAdapter {
	if location == "" {
		location = "(in-memory)"
	}
	return &iStoreServerAdapterImpl{location: location}
}

type iStoreServerAdapterImpl struct {
	location string
}

func (adapter *iStoreServerAdapterImpl) Handle(ctx context.Context, req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse(store.RetCInternalError, "handler: store is nil")
	}

	ns, key := req.Namespace, req.Key

	switch req.MsgType {
	case common.MsgTWrite:
		value := string(req.Value)
		err := s.Write(ctx, ns, key, value)
		return respond(req.MsgType, err,
			fmt.Sprintf("Wrote key '%s' and value '%s'", key, value),
			fmt.Sprintf("Error when trying to write key '%s' and value '%s'", key, value))

	case common.MsgTRead:
		value, err := s.Read(ctx, ns, key)
		resp := respond(req.MsgType, err,
			fmt.Sprintf("Retrieved value '%s' from key '%s'", value, key),
			fmt.Sprintf("Error when trying to retrieve from key '%s'", key))
		if err == nil {
			resp.Value = []byte(value)
		}
		return resp

	case common.MsgTDelete:
		err := s.Delete(ctx, ns, key)
		return respond(req.MsgType, err,
			fmt.Sprintf("Deleted key '%s'", key),
			fmt.Sprintf("Error when trying to delete key '%s'", key))

	case common.MsgTSearch:
		paths, err := s.Search(ctx, ns, key)
		resp := respond(req.MsgType, err,
			fmt.Sprintf("Found %d paths containing '%s'", len(paths), key),
			fmt.Sprintf("Error when trying to search for '%s'", key))
		resp.Paths = paths
		return resp

	case common.MsgTDeleteRecursivelyFrom:
		deleted, err := s.DeleteRecursivelyFrom(ctx, ns, key)
		resp := respond(req.MsgType, err,
			fmt.Sprintf("Deleted %d keys below node '%s'", len(deleted), key),
			fmt.Sprintf("Error when trying to delete recursively from node '%s'", key))
		resp.Paths = deleted
		return resp

	case common.MsgTNodesStartingIn:
		layers := store.DefaultLayers
		if req.HasLayers {
			layers = int(min(req.Layers, math.MaxInt))
		}
		nodes, err := s.NodesStartingIn(ctx, ns, key, layers)
		resp := respond(req.MsgType, err,
			fmt.Sprintf("Found %d nodes %d layers below node '%s'", len(nodes), layers, key),
			fmt.Sprintf("Error when trying to list nodes starting in '%s'", key))
		resp.Paths = nodes
		return resp

	case common.MsgTDestroyDB:
		err := s.DestroyDB(ctx)
		return respond(req.MsgType, err,
			fmt.Sprintf("Destroyed database at path '%s'", adapter.location),
			fmt.Sprintf("Error when trying to destroy database at path '%s'", adapter.location))

	case common.MsgTOpenDB:
		err := s.OpenDB(ctx)
		return respond(req.MsgType, err,
			fmt.Sprintf("Opened database at path '%s'", adapter.location),
			fmt.Sprintf("Error when trying to open database at path '%s'", adapter.location))

	case common.MsgTCloseDB:
		err := s.CloseDB(ctx)
		return respond(req.MsgType, err, "Closed database", "Error when trying to close database")

	case common.MsgTDBInfo:
		info, err := s.GetDBInfo(ctx)
		resp := respond(req.MsgType, err,
			fmt.Sprintf("Retrieved info of database at path '%s'", adapter.location),
			"Error when trying to retrieve database info")
		if err == nil {
			meta, err := json.Marshal(info)
			if err != nil {
				return common.NewResponse(req.MsgType, "", fmt.Errorf("failed to encode database info: %w", err))
			}
			resp.Meta = meta
		}
		return resp

	default:
		return common.NewErrorResponse(store.RetCInvalidArgument,
			fmt.Sprintf("unsupported message type: %s", req.MsgType))
	}
}

// respond builds the response. Failures are reported as "<failure>: <reason>".
func respond(msgType common.MessageType, err error, success, failure string) *common.Message {
	resp := common.NewResponse(msgType, success, err)
	if err != nil {
		resp.Msg = failure + ": " + resp.Msg
	}
	return resp
}
