// Package store defines the hierarchical key-value store of hKV and its error
// model.
//
// Data is addressed by a namespace and a dot-delimited path such as
// "Vehicle.Cabin.Door.Left". Every prefix of a path ("Vehicle",
// "Vehicle.Cabin", ...) is a node of the tree, whether or not a value is
// stored at it. Namespaces are isolated: no operation in one namespace sees
// the paths of another.
//
// Key Components:
//
//   - IStore Interface: Point operations (Write, Read, Delete), tree
//     operations (Search, DeleteRecursivelyFrom, NodesStartingIn) and the
//     lifecycle operations of the underlying engine (OpenDB, CloseDB,
//     DestroyDB, GetDBInfo). The rpc client implements the same interface, so
//     callers do not care whether the store is local or remote.
//
//   - Error System: Every failure is a *Error with a RetCode (InvalidArgument,
//     NotFound, StorageUnavailable, PartialFailure, InternalError). CodeOf
//     extracts the code from any error, FromEngine converts engine errors.
//
//   - DBFactory: A function type that creates the db.KVDB a store works on.
//
// Implementations and helpers:
//
//   - lstore: The local store. One engine per store, all operations on it are
//     serialized by a lockmgr lock.
//   - keys: Encoding of (namespace, path) pairs into engine keys.
//   - tree: Traversal, recursive delete and search on top of prefix scans.
package store
