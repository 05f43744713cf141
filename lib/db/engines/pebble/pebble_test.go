package pebble

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
	dbtesting "github.com/ValentinKolb/hKV/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "PebbleDB", func(t *testing.T) db.KVDB {
		return NewPebbleDB(DBOptions{Dir: dbtesting.TempLocation(t, "")})
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "PebbleDB", func(b *testing.B) db.KVDB {
		return NewPebbleDB(DBOptions{Dir: dbtesting.TempLocation(b, "")})
	})
}

func TestPersistenceAcrossHandles(t *testing.T) {
	dir := dbtesting.TempLocation(t, "")

	first := NewPebbleDB(DBOptions{Dir: dir})
	if err := first.Put("ns\x00a.b", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := NewPebbleDB(DBOptions{Dir: dir})
	defer second.Close()
	value, ok, err := second.Get("ns\x00a.b")
	if err != nil || !ok || string(value) != "v" {
		t.Errorf("Expected value from a new handle, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestDestroyRemovesDirectory(t *testing.T) {
	dir := dbtesting.TempLocation(t, "")
	database := NewPebbleDB(DBOptions{Dir: dir})

	if err := database.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := database.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected %s to be removed, stat err=%v", dir, err)
	}
}

func TestOpenUnavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	database := NewPebbleDB(DBOptions{Dir: filepath.Join(blocker, "data")})
	_, _, err := database.Get("k")
	if !errors.Is(err, db.ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable, got %v", err)
	}
}
