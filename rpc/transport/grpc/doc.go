// Package grpc implements the RPC transport on top of google.golang.org/grpc.
//
// The service hkv.Transport has a single unary method Call. Request and
// response are the serialized messages, moved by a pass-through codec
// (content subtype "hkv-raw"), so no protobuf schema is involved. The shard id
// travels in the "hkv-shard" metadata entry.
//
// The client holds one grpc.ClientConn per endpoint, picks them round robin and
// retries calls that failed with codes.Unavailable.
package grpc
