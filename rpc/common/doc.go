// Package common provides the data structures shared by the RPC server, the
// RPC client and the transports of hKV.
//
// Key Components:
//
//   - Message: The single structure used for every request and response. A
//     request carries the namespace, a key (path, node or search substring), a
//     value and an optional layer count. A response carries the success flag,
//     the error kind (store.RetCode), a human readable message and, for tree
//     operations, the resulting paths. Message.Err turns a failed response back
//     into a *store.Error.
//
//   - MessageType: Enumeration of all operations (write, read, delete, search,
//     deleteRecursivelyFrom, nodesStartingIn, destroyDB, openDB, closeDB,
//     dbInfo) plus the transport level error type.
//
//   - ServerConfig / ClientConfig: Configuration of server and client including
//     the transport settings. ServerConfig knows where each shard keeps its
//     engine (ShardLocation) and can validate itself.
//
//   - Logger: A dragonboat logger.Factory backed by zap. Every package obtains
//     its logger with logger.GetLogger(name); InitLoggers installs the factory
//     and sets the level. PebbleLogger forwards pebble's log output.
package common
