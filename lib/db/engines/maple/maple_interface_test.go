package maple

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
	dbtesting "github.com/ValentinKolb/hKV/lib/db/testing"
	"github.com/emirpasic/gods/maps/treemap"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB", func(t *testing.T) db.KVDB {
		return NewMapleDB(nil)
	})
}

func TestWithSnapshot(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB(snapshot)", func(t *testing.T) db.KVDB {
		return NewMapleDB(&DBOptions{Path: dbtesting.TempLocation(t, ".maple")})
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "MapleDB", func(b *testing.B) db.KVDB {
		return NewMapleDB(nil)
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := treemap.NewWithStringComparator()
	src.Put("a\x00b.c", []byte("1"))
	src.Put("a\x00b", []byte{})
	src.Put("z", bytes.Repeat([]byte("x"), 4096))

	var buf bytes.Buffer
	if err := writeSnapshot(&buf, src); err != nil {
		t.Fatalf("writeSnapshot failed: %v", err)
	}

	dst := treemap.NewWithStringComparator()
	if err := readSnapshot(bytes.NewReader(buf.Bytes()), dst); err != nil {
		t.Fatalf("readSnapshot failed: %v", err)
	}

	if dst.Size() != src.Size() {
		t.Fatalf("Expected %d entries, got %d", src.Size(), dst.Size())
	}
	for _, k := range src.Keys() {
		want, _ := src.Get(k)
		got, ok := dst.Get(k)
		if !ok || !bytes.Equal(got.([]byte), want.([]byte)) {
			t.Errorf("Entry %q differs after reload", k)
		}
	}
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	dst := treemap.NewWithStringComparator()
	if err := readSnapshot(bytes.NewReader([]byte("NOTMAPLE")), dst); err == nil {
		t.Errorf("Expected magic number mismatch")
	}

	var buf bytes.Buffer
	src := treemap.NewWithStringComparator()
	src.Put("k", []byte("v"))
	if err := writeSnapshot(&buf, src); err != nil {
		t.Fatalf("writeSnapshot failed: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-1]
	if err := readSnapshot(bytes.NewReader(truncated), treemap.NewWithStringComparator()); err == nil {
		t.Errorf("Expected error for truncated snapshot")
	}
}

func TestOpenFailsOnBadSnapshot(t *testing.T) {
	dir := t.TempDir()
	database := NewMapleDB(&DBOptions{Path: dir}) // a directory is not a readable snapshot

	_, _, err := database.Get("k")
	if err == nil {
		t.Fatalf("Expected open error")
	}
	if !errors.Is(err, db.ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable, got %v", err)
	}

	other := NewMapleDB(&DBOptions{Path: filepath.Join(dir, "ok.maple")})
	if err := other.Put("k", []byte("v")); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
