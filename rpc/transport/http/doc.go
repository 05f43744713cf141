// Package http implements the RPC transport over plain HTTP.
//
// Every request is a POST to /{shardId} with the serialized message as body;
// the response body is the serialized response. Status codes other than 200
// only signal transport problems (bad shard id, unreadable body), domain
// errors travel inside the response message.
//
// The client picks endpoints round robin and retries failed requests up to
// RetryCount times. Endpoints may omit the scheme ("localhost:8080").
// With log level debug the server logs every request with its duration.
package http
