package client

import (
	"context"
	"encoding/json"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/serializer"
	"github.com/ValentinKolb/hKV/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a store.IStore and an error
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {

	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (s *rpcStore) Write(ctx context.Context, namespace, path, value string) error {
	_, err := s.invoke(ctx, common.NewWriteRequest(namespace, path, value))
	return err
}

func (s *rpcStore) Read(ctx context.Context, namespace, path string) (string, error) {
	resp, err := s.invoke(ctx, common.NewReadRequest(namespace, path))
	if err != nil {
		return "", err
	}
	return string(resp.Value), nil
}

func (s *rpcStore) Delete(ctx context.Context, namespace, path string) error {
	_, err := s.invoke(ctx, common.NewDeleteRequest(namespace, path))
	return err
}

func (s *rpcStore) Search(ctx context.Context, namespace, substring string) ([]string, error) {
	resp, err := s.invoke(ctx, common.NewSearchRequest(namespace, substring))
	if err != nil {
		return nil, err
	}
	return paths(resp), nil
}

func (s *rpcStore) DeleteRecursivelyFrom(ctx context.Context, namespace, node string) ([]string, error) {
	resp, err := s.invoke(ctx, common.NewDeleteRecursivelyFromRequest(namespace, node))
	if err != nil {
		return nil, err
	}
	return paths(resp), nil
}

func (s *rpcStore) NodesStartingIn(ctx context.Context, namespace, node string, layers int) ([]string, error) {
	resp, err := s.invoke(ctx, common.NewNodesStartingInRequest(namespace, node, layers))
	if err != nil {
		return nil, err
	}
	return paths(resp), nil
}

func (s *rpcStore) DestroyDB(ctx context.Context) error {
	_, err := s.invoke(ctx, common.NewControlRequest(common.MsgTDestroyDB))
	return err
}

func (s *rpcStore) OpenDB(ctx context.Context) error {
	_, err := s.invoke(ctx, common.NewControlRequest(common.MsgTOpenDB))
	return err
}

func (s *rpcStore) CloseDB(ctx context.Context) error {
	_, err := s.invoke(ctx, common.NewControlRequest(common.MsgTCloseDB))
	return err
}

// GetDBInfo returns the info of the remote engine. Metadata is decoded as
// generic json (map[string]any).
func (s *rpcStore) GetDBInfo(ctx context.Context) (db.DatabaseInfo, error) {
	resp, err := s.invoke(ctx, common.NewControlRequest(common.MsgTDBInfo))
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	var info db.DatabaseInfo
	if err := json.Unmarshal(resp.Meta, &info); err != nil {
		return db.DatabaseInfo{}, store.Errorf(store.RetCInternalError, "failed to decode database info: %v", err)
	}
	return info, nil
}
