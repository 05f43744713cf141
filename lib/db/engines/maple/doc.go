// Package maple implements an in-memory ordered key-value engine that satisfies
// the db.KVDB interface.
//
// Entries live in a red-black tree (github.com/emirpasic/gods treemap) with a
// byte-wise string comparator, so prefix scans visit keys in the same order as
// the durable engines. A scan seeks with Ceiling(prefix) and advances with
// Ceiling(key + "\x00"), the smallest key strictly greater than the current one.
//
// Persistence is optional. With DBOptions.Path set:
//   - Open reads the snapshot file (a missing file is an empty database)
//   - Close writes the whole tree to <path>.tmp and renames it over <path>
//   - Destroy drops the tree and removes the snapshot
//
// Snapshot layout (little endian):
//
//	magic "MAPLEDB\x00" | version u8 | count u64 | { keyLen u32 | key | valueLen u32 | value }*
//
// Without a path the tree lives as long as the handle; Close keeps it and
// only Destroy drops it.
//
// maple does not support atomic batch deletes, callers fall back to deleting
// keys one by one.
//
// The engine is not thread-safe. The lstore package serializes all access.
package maple
