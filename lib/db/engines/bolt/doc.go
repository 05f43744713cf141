// Package bolt implements the db.KVDB interface on go.etcd.io/bbolt.
//
// All entries live in a single root bucket of one database file. bbolt keeps
// keys in a B+tree sorted by raw bytes, so ScanPrefix is a cursor Seek to the
// prefix followed by Next until the first non-matching key.
//
// Every write is its own read-write transaction and is fsynced on commit.
// DeleteBatch removes all keys in one transaction, so the engine advertises
// db.FeatureAtomicBatch.
//
// The file is opened on the first operation. Options.Timeout bounds how long
// Open waits for the exclusive file lock held by another process. Destroy
// closes the handle and removes the file.
package bolt
