// Package rpc contains everything needed to serve hKV stores over the network.
//
// Subpackages:
//
//   - common: the Message protocol, server and client configuration, logging
//   - serializer: Message encodings (binary, json, gob)
//   - transport: byte transports (tcp, unix, http, grpc)
//   - server: hosts shards and answers requests
//   - client: store.IStore implementation talking to a server
package rpc
