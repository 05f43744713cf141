// Package server implements the hKV RPC server.
//
// A server hosts any number of shards. Each shard is an lstore.IStore over its
// own engine (bolt, pebble or maple) located at <data-dir>/shard-<id>[.db].
// Requests arrive through a transport as (shard id, bytes), are decoded with
// the configured serializer and passed to the shard's IRPCServerAdapter, which
// calls the store and builds the response message.
//
// Responses:
//
//   - Domain results, including failures, use the request's message type with
//     Ok, Code and Msg set. Failure messages read "Error when trying to ...: <reason>".
//   - Requests for an unknown shard, undecodable payloads and unsupported
//     message types get a MsgTError response.
//
// Every request waits at most TimeoutSecond for its store. Outcomes and
// durations are recorded with VictoriaMetrics/metrics and served in the
// Prometheus format on MetricsEndpoint when it is set.
//
// Usage:
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
//	go func() { <-ctx.Done(); s.Close() }()
//	if err := s.Serve(); err != nil {
//		log.Fatal(err)
//	}
package server
