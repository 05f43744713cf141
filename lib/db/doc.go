// Package db provides a standardized interface for ordered key-value engines.
// It defines the KVDB interface that the hierarchical store is built on, so
// the traversal algorithms never depend on a concrete engine.
//
// The package focuses on:
//   - A unified interface for point operations and ordered prefix scans
//   - Feature discovery through capability flags
//   - Lazy lifecycle handling (open on demand, close, destroy)
//   - Metadata reporting
//
// Key Components:
//
//   - KVDB Interface: The core interface that all engines must satisfy.
//     It provides point operations (Put, Get, Delete), the ordered ScanPrefix
//     iteration, an optional atomic DeleteBatch and the lifecycle methods
//     Open, Close and Destroy.
//
//   - Feature Flags: The Feature type defines capability flags that engines
//     advertise through SupportsFeature. The store uses FeatureAtomicBatch to
//     decide whether a recursive delete can be done in one step.
//
//   - Implementation Identifiers: The Implementation type provides string constants
//     for the engines ("bolt", "pebble" and "maple").
//
//   - ErrStorageUnavailable: wrapped by every error caused by an engine that
//     cannot be opened at its location. Callers test for it with errors.Is.
//
// Note on ordering:
//   - Keys are compared as raw bytes. A prefix scan therefore visits a
//     contiguous range and may stop at the first key that does not match.
//
// Related Packages:
//
// The engines/bolt package wraps go.etcd.io/bbolt (single file B+tree).
// The engines/pebble package wraps github.com/cockroachdb/pebble (LSM directory).
// The engines/maple package is an in-memory red-black tree with an optional
// snapshot file, useful for tests and ephemeral deployments.
//
// The testing package (github.com/ValentinKolb/hKV/lib/db/testing) provides
// the conformance suite RunKVDBTests and the benchmarks RunKVDBBenchmarks that
// every engine runs.
package db
