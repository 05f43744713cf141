// Package base implements the framed request/response protocol shared by the
// tcp and unix transports. The protocol specific parts (dialing, listening,
// socket options) are injected as IClientConnector and IServerConnector.
//
// Frame layout (big endian):
//
//	shardID u64 | requestID u64 | length u32 | payload
//
// A response carries the requestID of its request. Requests on one connection
// are processed concurrently, so responses may arrive out of order.
//
// Server:
//
//   - One goroutine per connection reads frames
//   - A per connection semaphore limits concurrent workers (WorkersPerConn)
//   - Read buffers come from a sync.Pool sized by BufferSize
//   - When a connection ends, requests still waiting for their store give up
//
// Client:
//
//   - ConnectionsPerEndpoint connections per endpoint, picked round robin
//   - Pending requests are kept in an xsync.MapOf keyed by requestID
//   - Failed attempts are retried RetryCount times with exponential backoff
//     and jitter, a lost connection is re-dialed once by its reader
//
// All exported methods are safe for concurrent use.
package base
