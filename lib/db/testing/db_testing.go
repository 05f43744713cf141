package testing

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/google/uuid"
)

// DBFactory is a function that creates a new, empty instance of a KVDB implementation
type DBFactory func(t *testing.T) db.KVDB

// TempLocation returns a unique, not yet existing path inside the test's temp dir.
func TempLocation(tb testing.TB, suffix string) string {
	return filepath.Join(tb.TempDir(), uuid.NewString()+suffix)
}

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory(t))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})

		t.Run("ScanOrder", func(t *testing.T) {
			testScanOrder(t, factory(t))
		})

		t.Run("ScanPrefix", func(t *testing.T) {
			testScanPrefix(t, factory(t))
		})

		t.Run("ScanHalt", func(t *testing.T) {
			testScanHalt(t, factory(t))
		})

		t.Run("LazyOpen", func(t *testing.T) {
			testLazyOpen(t, factory(t))
		})

		t.Run("CloseReopen", func(t *testing.T) {
			testCloseReopen(t, factory(t))
		})

		t.Run("Destroy", func(t *testing.T) {
			testDestroy(t, factory(t))
		})

		t.Run("DeleteBatch", func(t *testing.T) {
			testDeleteBatch(t, factory(t))
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory(t))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

func mustPut(t testing.TB, database db.KVDB, key string, value []byte) {
	t.Helper()
	if err := database.Put(key, value); err != nil {
		t.Fatalf("Put(%q) failed: %v", key, err)
	}
}

func scanAll(t testing.TB, database db.KVDB, prefix string) []string {
	t.Helper()
	var keys []string
	err := database.ScanPrefix(prefix, func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		t.Fatalf("ScanPrefix(%q) failed: %v", prefix, err)
	}
	return keys
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustPut(t, database, testKey, testValue1)

	result, exists, err := database.Get(testKey)
	if err != nil || !exists {
		t.Fatalf("Expected key %s to exist after Put (err=%v)", testKey, err)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	mustPut(t, database, testKey, testValue2)

	result, exists, _ = database.Get(testKey)
	if !exists || !bytes.Equal(result, testValue2) {
		t.Errorf("Expected overwritten value %s, got %s", testValue2, result)
	}

	_, exists, err = database.Get("nonexistent-key")
	if err != nil || exists {
		t.Errorf("Expected nonexistent key to return exists=false (err=%v)", err)
	}

	retrievedValue, _, _ := database.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _, _ := database.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	input := []byte("mutable")
	mustPut(t, database, "mutable", input)
	input[0] = 'X'
	stored, _, _ := database.Get("mutable")
	if !bytes.Equal(stored, []byte("mutable")) {
		t.Errorf("Put should copy the value, got %s", stored)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureDelete)

	mustPut(t, database, "a", []byte("1"))
	mustPut(t, database, "b", []byte("2"))

	if err := database.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, exists, _ := database.Get("a"); exists {
		t.Errorf("Key a should not exist after Delete")
	}
	if _, exists, _ := database.Get("b"); !exists {
		t.Errorf("Key b should be untouched")
	}

	if err := database.Delete("never-written"); err != nil {
		t.Errorf("Deleting an absent key should succeed, got %v", err)
	}
}

func testScanOrder(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureScan)

	for _, k := range []string{"b", "a.b", "a", "a\x00x", "c", "a.a", "\x00root"} {
		mustPut(t, database, k, []byte(k))
	}

	want := []string{"\x00root", "a", "a\x00x", "a.a", "a.b", "b", "c"}
	if got := scanAll(t, database, ""); !equalKeys(got, want) {
		t.Errorf("Expected ascending byte order %q, got %q", want, got)
	}

	err := database.ScanPrefix("", func(key string, value []byte) bool {
		if !bytes.Equal(value, []byte(key)) {
			t.Errorf("Value for %q mismatched: %q", key, value)
		}
		return true
	})
	if err != nil {
		t.Errorf("ScanPrefix failed: %v", err)
	}
}

func testScanPrefix(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureScan)

	ns := "ns\x00"
	for _, k := range []string{"ns\x00Vehicle", "ns\x00Vehicle.Radio", "ns\x00Vehicle.Radio.Volume", "ns\x00VehicleX", "ns2\x00Vehicle.Radio", "n\x00Vehicle.Radio"} {
		mustPut(t, database, k, []byte("v"))
	}

	want := []string{"ns\x00Vehicle.Radio", "ns\x00Vehicle.Radio.Volume"}
	if got := scanAll(t, database, ns+"Vehicle."); !equalKeys(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}

	want = []string{"ns\x00Vehicle", "ns\x00Vehicle.Radio", "ns\x00Vehicle.Radio.Volume", "ns\x00VehicleX"}
	if got := scanAll(t, database, ns); !equalKeys(got, want) {
		t.Errorf("Expected namespace scan %q, got %q", want, got)
	}

	if got := scanAll(t, database, "missing\x00"); len(got) != 0 {
		t.Errorf("Expected empty scan, got %q", got)
	}
}

func testScanHalt(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureScan)

	for i := 0; i < 10; i++ {
		mustPut(t, database, fmt.Sprintf("k%02d", i), []byte("v"))
	}

	var visited []string
	err := database.ScanPrefix("k", func(key string, _ []byte) bool {
		visited = append(visited, key)
		return len(visited) < 3
	})
	if err != nil {
		t.Fatalf("ScanPrefix failed: %v", err)
	}
	if !equalKeys(visited, []string{"k00", "k01", "k02"}) {
		t.Errorf("Expected scan to stop after 3 keys, got %q", visited)
	}
}

func testLazyOpen(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureGet)

	if database.GetInfo().Open {
		t.Errorf("A new handle should not be open")
	}
	if _, exists, err := database.Get("k"); err != nil || exists {
		t.Errorf("Get on a fresh handle should open the engine, got exists=%v err=%v", exists, err)
	}
	if !database.GetInfo().Open {
		t.Errorf("Handle should be open after the first operation")
	}
	if err := database.Open(); err != nil {
		t.Errorf("Open on an open handle should be a no-op, got %v", err)
	}
}

func testCloseReopen(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	mustPut(t, database, "k", []byte("v"))
	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}

	value, exists, err := database.Get("k")
	if err != nil {
		t.Fatalf("Get after Close should reopen, got %v", err)
	}
	if !exists || !bytes.Equal(value, []byte("v")) {
		t.Errorf("Expected value to survive Close, got %q (exists=%v)", value, exists)
	}
}

func testDestroy(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	mustPut(t, database, "a", []byte("1"))
	mustPut(t, database, "b", []byte("2"))

	if err := database.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if database.GetInfo().Open {
		t.Errorf("Handle should be closed after Destroy")
	}

	if _, exists, err := database.Get("a"); err != nil || exists {
		t.Errorf("Expected empty database after Destroy, got exists=%v err=%v", exists, err)
	}

	mustPut(t, database, "c", []byte("3"))
	if value, exists, _ := database.Get("c"); !exists || !bytes.Equal(value, []byte("3")) {
		t.Errorf("Database should be usable after Destroy")
	}

	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := database.Destroy(); err != nil {
		t.Errorf("Destroy on a closed handle should succeed, got %v", err)
	}
}

func testDeleteBatch(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureAtomicBatch)

	for _, k := range []string{"a", "b", "c"} {
		mustPut(t, database, k, []byte(k))
	}

	if err := database.DeleteBatch([]string{"a", "c", "missing"}); err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}

	if got := scanAll(t, database, ""); !equalKeys(got, []string{"b"}) {
		t.Errorf("Expected only b to remain, got %q", got)
	}

	if err := database.DeleteBatch(nil); err != nil {
		t.Errorf("Empty batch should succeed, got %v", err)
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	mustPut(t, database, "k", []byte("value"))

	info := database.GetInfo()
	if _, ok := db.ParseImplementation(string(info.DbType)); !ok {
		t.Errorf("Unknown implementation %q", info.DbType)
	}
	for _, f := range info.SupportedFeatures {
		if !database.SupportsFeature(f) {
			t.Errorf("Feature %s listed but not supported", f)
		}
	}
	if !database.SupportsFeature(db.FeaturePut | db.FeatureGet | db.FeatureDelete | db.FeatureScan) {
		t.Errorf("Every engine must support the basic operations")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	mustPut(t, database, "empty", []byte{})
	value, exists, err := database.Get("empty")
	if err != nil || !exists {
		t.Errorf("Empty value should be stored (err=%v)", err)
	}
	if len(value) != 0 {
		t.Errorf("Expected empty value, got %q", value)
	}

	binaryValue := []byte{0, 1, 2, 255, 0}
	mustPut(t, database, "binary", binaryValue)
	if value, _, _ := database.Get("binary"); !bytes.Equal(value, binaryValue) {
		t.Errorf("Binary value mismatch: %v", value)
	}

	longKey := string(bytes.Repeat([]byte("k"), 4096))
	mustPut(t, database, longKey, []byte("long"))
	if _, exists, _ := database.Get(longKey); !exists {
		t.Errorf("Long key should be stored")
	}

	unicodeKey := "ns\x00Fahrzeug.Türen.Schloss"
	mustPut(t, database, unicodeKey, []byte("zu"))
	if got := scanAll(t, database, "ns\x00Fahrzeug."); !equalKeys(got, []string{unicodeKey}) {
		t.Errorf("Expected %q, got %q", unicodeKey, got)
	}
}
