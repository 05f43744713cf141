// Package pebble implements the db.KVDB interface on github.com/cockroachdb/pebble,
// the LSM storage engine that dragonboat uses for its log.
//
// The engine owns one directory. Writes use pebble.Sync. ScanPrefix creates an
// iterator with the prefix as lower bound, seeks to it and stops at the first
// key that no longer carries the prefix. DeleteBatch commits a single batch,
// so recursive deletes are all or nothing.
//
// Destroy opens the directory once (to surface an unusable location as
// db.ErrStorageUnavailable), closes it and removes it recursively.
package pebble
