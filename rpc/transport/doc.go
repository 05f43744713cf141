// Package transport defines how serialized RPC messages travel between the
// hKV client and server. A transport moves opaque byte slices tagged with a
// shard id; it knows nothing about messages or stores.
//
// Key Components:
//
//   - IRPCClientTransport: Connects to one or more endpoints and sends requests,
//     retrying transport failures until the context ends.
//
//   - IRPCServerTransport: Accepts requests and passes them to the registered
//     ServerHandleFunc together with the shard id.
//
// Implementations:
//
//   - base: framed protocol over any net.Conn, used by tcp and unix
//   - tcp, unix: connectors for base
//   - http: POST /{shardId}, request and response in the body
//   - grpc: unary method /hkv.Transport/Call with a raw bytes codec
package transport
