// Package testing provides standardised tests and benchmarks for
// engines that satisfy the db.KVDB interface.
//
// The package contains:
//   - RunKVDBTests: a conformance suite for the KVDB contract (ordering, halting
//     scans, lazy open, destroy and reuse, atomic batches when advertised)
//   - RunKVDBBenchmarks: throughput of point operations and prefix scans
//   - TempLocation: a unique path inside the test temp dir for file based engines
//
// Example usage:
//
//	dbtesting.RunKVDBTests(t, "MyDatabase", func(t *testing.T) db.KVDB {
//		return NewMyDatabase(dbtesting.TempLocation(t, ".db"))
//	})
//
//	dbtesting.RunKVDBBenchmarks(b, "MyDatabase", func(b *testing.B) db.KVDB {
//		return NewMyDatabase(dbtesting.TempLocation(b, ".db"))
//	})
package testing
