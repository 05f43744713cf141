// Package lstore implements store.IStore on top of a single db.KVDB.
//
// The local store is the request serializer of the system: it owns exactly one
// engine handle and runs every operation, reads included, while holding an
// exclusive lockmgr lock. A scan and a write therefore never interleave and a
// recursive delete sees a stable subtree.
//
// Key Features:
//   - One engine per store, created by the injected store.DBFactory
//   - Lazy open: the engine opens on the first operation and after CloseDB
//   - Point operations (Write, Read, Delete) implemented directly
//   - Tree operations (Search, NodesStartingIn, DeleteRecursivelyFrom)
//     delegated to the tree package
//   - Input validation (empty paths, the reserved 0x00 byte) before locking
//
// Waiting and cancellation:
//
//	A caller waits for the lock until its context is done and then receives a
//	RetCInternalError. Once an operation holds the lock it runs to completion.
//
// Usage Example:
//
//	factory := func() db.KVDB { return bolt.NewBoltDB(bolt.DBOptions{Path: "data/shard.db"}) }
//	s := lstore.NewLocalStore(factory)
//
//	err := s.Write(ctx, "car", "Vehicle.Cabin.Door.Left", "closed")
//	nodes, err := s.NodesStartingIn(ctx, "car", "Vehicle", store.DefaultLayers)
//	deleted, err := s.DeleteRecursivelyFrom(ctx, "car", "Vehicle.Cabin")
//
// Destroy semantics:
//
//	DestroyDB removes the engine location and leaves the handle closed. The
//	next operation recreates an empty engine at the same place.
package lstore
