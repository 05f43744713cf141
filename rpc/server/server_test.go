package server

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/serializer"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport captures the handler instead of listening
type stubTransport struct {
	handler transport.ServerHandleFunc
}

func (s *stubTransport) RegisterHandler(handler transport.ServerHandleFunc) { s.handler = handler }
func (s *stubTransport) Listen(common.ServerConfig) error                  { return nil }
func (s *stubTransport) Close() error                                      { return nil }

func newTestServer(t *testing.T, shards ...common.ServerShard) (*RPCServer, *stubTransport) {
	t.Helper()
	if len(shards) == 0 {
		shards = []common.ServerShard{{ShardID: 1, Engine: db.ImplMaple}}
	}
	stub := &stubTransport{}
	s := NewRPCServer(common.ServerConfig{
		Shards:        shards,
		TimeoutSecond: 5,
		Transport:     common.ServerTransportConfig{Endpoint: "unused"},
		LogLevel:      "info",
	}, stub, serializer.NewBinarySerializer())
	require.NoError(t, s.Serve())
	require.NotNil(t, stub.handler)
	t.Cleanup(func() { s.Close() })
	return s, stub
}

// call sends msg through the registered handler and decodes the response
func call(t *testing.T, stub *stubTransport, shardId uint64, msg *common.Message) common.Message {
	t.Helper()
	codec := serializer.NewBinarySerializer()
	req, err := codec.Serialize(*msg)
	require.NoError(t, err)

	var resp common.Message
	require.NoError(t, codec.Deserialize(stub.handler(context.Background(), shardId, req), &resp))
	return resp
}

func TestPointOperations(t *testing.T) {
	_, stub := newTestServer(t)

	resp := call(t, stub, 1, common.NewWriteRequest("car", "Vehicle.Speed", "42"))
	assert.True(t, resp.Ok)
	assert.Equal(t, common.MsgTWrite, resp.MsgType)
	assert.Equal(t, "Wrote key 'Vehicle.Speed' and value '42'", resp.Msg)

	resp = call(t, stub, 1, common.NewReadRequest("car", "Vehicle.Speed"))
	assert.True(t, resp.Ok)
	assert.Equal(t, "42", string(resp.Value))
	assert.Equal(t, "Retrieved value '42' from key 'Vehicle.Speed'", resp.Msg)

	resp = call(t, stub, 1, common.NewDeleteRequest("car", "Vehicle.Speed"))
	assert.True(t, resp.Ok)
	assert.Equal(t, "Deleted key 'Vehicle.Speed'", resp.Msg)

	resp = call(t, stub, 1, common.NewReadRequest("car", "Vehicle.Speed"))
	assert.False(t, resp.Ok)
	assert.Equal(t, store.RetCNotFound, resp.Code)
	assert.Empty(t, resp.Value)
	assert.True(t, strings.HasPrefix(resp.Msg, "Error when trying to retrieve from key 'Vehicle.Speed': "), resp.Msg)
}

func TestInvalidArguments(t *testing.T) {
	_, stub := newTestServer(t)

	resp := call(t, stub, 1, common.NewWriteRequest("car", "", "x"))
	assert.False(t, resp.Ok)
	assert.Equal(t, store.RetCInvalidArgument, resp.Code)

	resp = call(t, stub, 1, common.NewNodesStartingInRequest("car", "Vehicle", -1))
	assert.False(t, resp.Ok)
	assert.Equal(t, store.RetCInvalidArgument, resp.Code)

	resp = call(t, stub, 1, common.NewReadRequest("car", "a\x00b"))
	assert.Equal(t, store.RetCInvalidArgument, resp.Code)
}

func TestTreeOperations(t *testing.T) {
	_, stub := newTestServer(t)

	for _, path := range []string{"Vehicle.Cabin.Door.Left", "Vehicle.Cabin.Door.Right", "Vehicle.Speed", "Vehicles"} {
		require.True(t, call(t, stub, 1, common.NewWriteRequest("car", path, "v")).Ok)
	}

	// omitted layer count means one layer
	resp := call(t, stub, 1, &common.Message{MsgType: common.MsgTNodesStartingIn, Namespace: "car", Key: "Vehicle"})
	require.True(t, resp.Ok, resp.Msg)
	assert.Equal(t, []string{"Vehicle.Cabin", "Vehicle.Speed"}, resp.Paths)

	resp = call(t, stub, 1, common.NewNodesStartingInRequest("car", "Vehicle", 0))
	require.True(t, resp.Ok, resp.Msg)
	assert.Equal(t, []string{"Vehicle.Cabin.Door.Left", "Vehicle.Cabin.Door.Right", "Vehicle.Speed"}, resp.Paths)

	// deeper than every leaf, even when node depth + layers does not fit an int
	resp = call(t, stub, 1, &common.Message{MsgType: common.MsgTNodesStartingIn, Namespace: "car", Key: "Vehicle", Layers: math.MaxInt64, HasLayers: true})
	require.True(t, resp.Ok, resp.Msg)
	assert.Empty(t, resp.Paths)

	resp = call(t, stub, 1, common.NewNodesStartingInRequest("car", "Nope", 1))
	assert.False(t, resp.Ok)
	assert.Equal(t, store.RetCNotFound, resp.Code)

	resp = call(t, stub, 1, common.NewSearchRequest("car", "Door"))
	require.True(t, resp.Ok)
	assert.Equal(t, []string{"Vehicle.Cabin.Door.Left", "Vehicle.Cabin.Door.Right"}, resp.Paths)

	resp = call(t, stub, 1, common.NewDeleteRecursivelyFromRequest("car", "Vehicle.Cabin"))
	require.True(t, resp.Ok)
	assert.Equal(t, []string{"Vehicle.Cabin.Door.Left", "Vehicle.Cabin.Door.Right"}, resp.Paths)

	// nothing left to delete is still a success
	resp = call(t, stub, 1, common.NewDeleteRecursivelyFromRequest("car", "Vehicle.Cabin"))
	assert.True(t, resp.Ok)
	assert.Empty(t, resp.Paths)
}

func TestShardIsolation(t *testing.T) {
	_, stub := newTestServer(t,
		common.ServerShard{ShardID: 1, Engine: db.ImplMaple},
		common.ServerShard{ShardID: 2, Engine: db.ImplMaple},
	)

	require.True(t, call(t, stub, 1, common.NewWriteRequest("ns", "a", "1")).Ok)

	resp := call(t, stub, 2, common.NewReadRequest("ns", "a"))
	assert.Equal(t, store.RetCNotFound, resp.Code)
}

func TestControlOperations(t *testing.T) {
	_, stub := newTestServer(t)
	require.True(t, call(t, stub, 1, common.NewWriteRequest("ns", "a", "1")).Ok)

	resp := call(t, stub, 1, common.NewControlRequest(common.MsgTDBInfo))
	require.True(t, resp.Ok, resp.Msg)
	var info db.DatabaseInfo
	require.NoError(t, json.Unmarshal(resp.Meta, &info))
	assert.True(t, info.Open)
	assert.Equal(t, db.ImplMaple, info.DbType)

	assert.True(t, call(t, stub, 1, common.NewControlRequest(common.MsgTCloseDB)).Ok)
	assert.True(t, call(t, stub, 1, common.NewControlRequest(common.MsgTOpenDB)).Ok)

	resp = call(t, stub, 1, common.NewControlRequest(common.MsgTDestroyDB))
	assert.True(t, resp.Ok)
	assert.Equal(t, "Destroyed database at path '(in-memory)'", resp.Msg)

	resp = call(t, stub, 1, common.NewReadRequest("ns", "a"))
	assert.Equal(t, store.RetCNotFound, resp.Code)
}

func TestTransportLevelErrors(t *testing.T) {
	_, stub := newTestServer(t)
	codec := serializer.NewBinarySerializer()

	resp := call(t, stub, 99, common.NewReadRequest("ns", "a"))
	assert.Equal(t, common.MsgTError, resp.MsgType)
	assert.Equal(t, store.RetCInvalidArgument, resp.Code)
	assert.Contains(t, resp.Msg, "shard 99 not found")

	var decoded common.Message
	require.NoError(t, codec.Deserialize(stub.handler(context.Background(), 1, []byte{1}), &decoded))
	assert.Equal(t, common.MsgTError, decoded.MsgType)
	assert.Contains(t, decoded.Msg, "failed to deserialize request")

	resp = call(t, stub, 1, &common.Message{MsgType: common.MsgTUnknown})
	assert.Equal(t, common.MsgTError, resp.MsgType)
	assert.Contains(t, resp.Msg, "unsupported message type")
}

func TestInvalidConfig(t *testing.T) {
	s := NewRPCServer(common.ServerConfig{
		Shards:    []common.ServerShard{{ShardID: 1, Engine: db.ImplBolt}},
		Transport: common.ServerTransportConfig{Endpoint: "unused"},
	}, &stubTransport{}, serializer.NewBinarySerializer())

	err := s.Serve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a data directory")
}

func TestPersistentShard(t *testing.T) {
	dataDir := t.TempDir()
	config := common.ServerConfig{
		Shards:    []common.ServerShard{{ShardID: 7, Engine: db.ImplBolt}},
		DataDir:   dataDir,
		Transport: common.ServerTransportConfig{Endpoint: "unused"},
	}

	stub := &stubTransport{}
	s := NewRPCServer(config, stub, serializer.NewBinarySerializer())
	require.NoError(t, s.Serve())
	require.True(t, call(t, stub, 7, common.NewWriteRequest("ns", "a.b", "1")).Ok)
	require.NoError(t, s.Close())

	// a new server on the same data directory sees the data
	stub = &stubTransport{}
	s = NewRPCServer(config, stub, serializer.NewBinarySerializer())
	require.NoError(t, s.Serve())
	defer s.Close()

	resp := call(t, stub, 7, common.NewReadRequest("ns", "a.b"))
	require.True(t, resp.Ok, resp.Msg)
	assert.Equal(t, "1", string(resp.Value))
}

func TestMetricsEndpoint(t *testing.T) {
	_, stub := newTestServer(t)
	call(t, stub, 1, common.NewReadRequest("metrics", "missing"))

	ts := httptest.NewServer(metricsHandler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `hkv_requests_total{shard="1",type="read",code="NotFound"}`)
	assert.Contains(t, string(body), `hkv_request_duration_seconds_bucket{shard="1",type="read"`)
}
