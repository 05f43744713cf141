// Package client implements store.IStore on top of the RPC transport, so a
// remote shard can be used like a local store.
//
// Every method serializes one request, sends it to the configured shard and
// turns the response back into return values. Failed responses come back as
// *store.Error with the kind chosen by the server, so store.CodeOf works the
// same for local and remote stores. Transport failures (after the transport's
// own retries) are reported as RetCInternalError; a done context is returned
// as ctx.Err().
//
// Tree operations always return a non-nil slice on success, whatever the
// serializer did to empty results.
//
// Usage Example:
//
//	config := common.ClientConfig{
//		TimeoutSecond: 5,
//		Transport: common.ClientTransportConfig{
//			Endpoints:  []string{"localhost:8080"},
//			RetryCount: 3,
//		},
//	}
//	s, err := client.NewRPCStore(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//
//	err = s.Write(ctx, "car", "Vehicle.Cabin.Door.Left", "closed")
//	nodes, err := s.NodesStartingIn(ctx, "car", "Vehicle", store.DefaultLayers)
//
// All methods are safe for concurrent use.
package client
