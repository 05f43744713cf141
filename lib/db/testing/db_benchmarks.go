package testing

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
)

// BenchFactory creates a new, empty KVDB instance for a benchmark
type BenchFactory func(b *testing.B) db.KVDB

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory BenchFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Put", func(b *testing.B) {
			benchmarkPut(b, factory(b))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory(b))
		})

		b.Run("ScanPrefix", func(b *testing.B) {
			benchmarkScanPrefix(b, factory(b))
		})

		b.Run("Delete", func(b *testing.B) {
			benchmarkDelete(b, factory(b))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkPut(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	value := []byte("benchmark-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Put(fmt.Sprintf("ns\x00bench.key%d", i), value); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	const numKeys = 1000
	for i := 0; i < numKeys; i++ {
		mustPut(b, database, fmt.Sprintf("ns\x00bench.key%d", i), []byte("value"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := database.Get(fmt.Sprintf("ns\x00bench.key%d", i%numKeys)); err != nil {
			b.Fatal(err)
		}
	}
}

// benchmarkScanPrefix scans a subtree of 100 entries next to 900 unrelated ones
func benchmarkScanPrefix(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	for i := 0; i < 1000; i++ {
		branch := "other"
		if i%10 == 0 {
			branch = "hot"
		}
		mustPut(b, database, fmt.Sprintf("ns\x00%s.key%d", branch, i), []byte("value"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		count := 0
		err := database.ScanPrefix("ns\x00hot.", func(string, []byte) bool {
			count++
			return true
		})
		if err != nil || count != 100 {
			b.Fatalf("unexpected scan result: %d keys, err=%v", count, err)
		}
	}
}

func benchmarkDelete(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	for i := 0; i < b.N; i++ {
		mustPut(b, database, fmt.Sprintf("ns\x00bench.key%d", i), []byte("value"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Delete(fmt.Sprintf("ns\x00bench.key%d", i)); err != nil {
			b.Fatal(err)
		}
	}
}
