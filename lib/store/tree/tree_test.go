package tree

import (
	"errors"
	"math"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/db/engines/maple"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/lib/store/keys"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Fixtures
// --------------------------------------------------------------------------

var vehicle = []string{
	"Vehicle.Infotainment.Radio.Volume",
	"Vehicle.Infotainment.Radio.Station",
	"Vehicle.Infotainment.Display",
	"Vehicle.Cabin.Door.Left",
	"Vehicle.Cabin.Door.Right",
	"Vehicle.Speed",
	"Vehicles", // shares the name prefix but is no descendant of Vehicle
}

func seed(t *testing.T, d db.KVDB, namespace string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, d.Put(keys.Encode(namespace, p), []byte("v:"+p)))
	}
}

func newDB(t *testing.T) db.KVDB {
	d := maple.NewMapleDB(nil)
	t.Cleanup(func() { d.Close() })
	return d
}

func requireCode(t *testing.T, err error, code store.RetCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, store.CodeOf(err), "error: %v", err)
}

// failingDB fails Delete for one key and counts successful deletes.
type failingDB struct {
	db.KVDB
	failOn  string
	deleted int
	atomic  bool
}

func (f *failingDB) Delete(key string) error {
	if key == f.failOn {
		return errors.New("disk on fire")
	}
	f.deleted++
	return f.KVDB.Delete(key)
}

func (f *failingDB) DeleteBatch(keys []string) error {
	for _, k := range keys {
		if k == f.failOn {
			return errors.New("batch rejected")
		}
	}
	for _, k := range keys {
		if err := f.KVDB.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (f *failingDB) SupportsFeature(feature db.Feature) bool {
	if feature&db.FeatureAtomicBatch != 0 {
		return f.atomic
	}
	return f.KVDB.SupportsFeature(feature)
}

// --------------------------------------------------------------------------
// NodesAtDepth
// --------------------------------------------------------------------------

func TestNodesAtDepth(t *testing.T) {
	d := newDB(t)
	seed(t, d, "car", vehicle...)
	seed(t, d, "truck", "Vehicle.Trailer.Axle")

	tests := []struct {
		name   string
		node   string
		layers int
		want   []string
	}{
		{"one layer", "Vehicle", 1, []string{"Vehicle.Cabin", "Vehicle.Infotainment", "Vehicle.Speed"}},
		{"two layers", "Vehicle", 2, []string{"Vehicle.Cabin.Door", "Vehicle.Infotainment.Display", "Vehicle.Infotainment.Radio"}},
		{"three layers", "Vehicle", 3, []string{
			"Vehicle.Cabin.Door.Left", "Vehicle.Cabin.Door.Right",
			"Vehicle.Infotainment.Radio.Station", "Vehicle.Infotainment.Radio.Volume",
		}},
		{"deeper than any leaf", "Vehicle", 9, []string{}},
		{"maximum layers", "Vehicle", math.MaxInt, []string{}},
		{"root maximum layers", "", math.MaxInt, []string{}},
		{"root one layer", "", 1, []string{"Vehicle", "Vehicles"}},
		{"root two layers", "", 2, []string{"Vehicle.Cabin", "Vehicle.Infotainment", "Vehicle.Speed"}},
		{"inner node", "Vehicle.Infotainment", 1, []string{"Vehicle.Infotainment.Display", "Vehicle.Infotainment.Radio"}},
		{"leaf entry", "Vehicle.Speed", 1, []string{}},
		{"all descendants", "Vehicle.Cabin", 0, []string{"Vehicle.Cabin.Door.Left", "Vehicle.Cabin.Door.Right"}},
		{"all descendants of an entry", "Vehicle.Speed", 0, []string{"Vehicle.Speed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NodesAtDepth(d, "car", tt.node, tt.layers)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NodesAtDepth(%q, %d) mismatch (-want +got):\n%s", tt.node, tt.layers, diff)
			}
		})
	}
}

func TestNodesAtDepthAllDescendantsIncludesEntryNode(t *testing.T) {
	d := newDB(t)
	seed(t, d, "", "a", "a.b", "a.b.c", "ab")

	got, err := NodesAtDepth(d, "", "a", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.b", "a.b.c"}, got)
}

func TestNodesAtDepthErrors(t *testing.T) {
	d := newDB(t)
	seed(t, d, "car", vehicle...)

	_, err := NodesAtDepth(d, "car", "Vehicle", -1)
	requireCode(t, err, store.RetCInvalidArgument)

	_, err = NodesAtDepth(d, "car", "Plane", 1)
	requireCode(t, err, store.RetCNotFound)

	_, err = NodesAtDepth(d, "car", "Plane", 0)
	requireCode(t, err, store.RetCNotFound)

	// the namespace is part of the lookup
	_, err = NodesAtDepth(d, "boat", "Vehicle", 1)
	requireCode(t, err, store.RetCNotFound)

	_, err = NodesAtDepth(d, "car", "Vehicle\x00", 1)
	requireCode(t, err, store.RetCInvalidArgument)
}

func TestNodesAtDepthRootOfEmptyStore(t *testing.T) {
	d := newDB(t)

	got, err := NodesAtDepth(d, "empty", "", 1)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NodesAtDepth(d, "empty", "", 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNodesAtDepthOnImpliedNode(t *testing.T) {
	d := newDB(t)
	seed(t, d, "", "x.y.z")

	// x.y is never written but has descendants
	got, err := NodesAtDepth(d, "", "x.y", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.y.z"}, got)
}

// --------------------------------------------------------------------------
// DeleteSubtree
// --------------------------------------------------------------------------

func TestDeleteSubtree(t *testing.T) {
	d := newDB(t)
	seed(t, d, "car", vehicle...)
	seed(t, d, "car", "Vehicle.Cabin")
	seed(t, d, "truck", "Vehicle.Cabin.Door.Left")

	deleted, err := DeleteSubtree(d, "car", "Vehicle.Cabin")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vehicle.Cabin", "Vehicle.Cabin.Door.Left", "Vehicle.Cabin.Door.Right"}, deleted)

	remaining, err := Search(d, "car", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Vehicle.Infotainment.Display",
		"Vehicle.Infotainment.Radio.Station",
		"Vehicle.Infotainment.Radio.Volume",
		"Vehicle.Speed",
		"Vehicles",
	}, remaining)

	other, err := Search(d, "truck", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vehicle.Cabin.Door.Left"}, other, "other namespaces are untouched")
}

func TestDeleteSubtreeKeepsSiblingsWithCommonPrefix(t *testing.T) {
	d := newDB(t)
	seed(t, d, "", vehicle...)

	deleted, err := DeleteSubtree(d, "", "Vehicle")
	require.NoError(t, err)
	assert.Len(t, deleted, 6)

	remaining, err := Search(d, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vehicles"}, remaining)
}

func TestDeleteSubtreeEdgeCases(t *testing.T) {
	d := newDB(t)
	seed(t, d, "", "a.b")

	_, err := DeleteSubtree(d, "", "")
	requireCode(t, err, store.RetCInvalidArgument)

	deleted, err := DeleteSubtree(d, "", "missing")
	require.NoError(t, err)
	assert.Empty(t, deleted)

	deleted, err = DeleteSubtree(d, "", "a.b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b"}, deleted)
}

func TestDeleteSubtreePartialFailure(t *testing.T) {
	d := &failingDB{KVDB: newDB(t), failOn: keys.Encode("", "a.c")}
	seed(t, d, "", "a", "a.b", "a.c", "a.d")

	_, err := DeleteSubtree(d, "", "a")
	requireCode(t, err, store.RetCPartialFailure)
	assert.Equal(t, 2, d.deleted)

	remaining, err := Search(d, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c", "a.d"}, remaining, "keys deleted before the failure stay deleted")
}

func TestDeleteSubtreeFirstKeyFails(t *testing.T) {
	d := &failingDB{KVDB: newDB(t), failOn: keys.Encode("", "a")}
	seed(t, d, "", "a", "a.b")

	_, err := DeleteSubtree(d, "", "a")
	requireCode(t, err, store.RetCInternalError)
	assert.Equal(t, 0, d.deleted)
}

func TestDeleteSubtreeAtomicBatch(t *testing.T) {
	d := &failingDB{KVDB: newDB(t), failOn: keys.Encode("", "a.c"), atomic: true}
	seed(t, d, "", "a", "a.b", "a.c")

	_, err := DeleteSubtree(d, "", "a")
	requireCode(t, err, store.RetCInternalError)

	remaining, err := Search(d, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.b", "a.c"}, remaining, "a rejected batch deletes nothing")

	d.failOn = ""
	deleted, err := DeleteSubtree(d, "", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.b", "a.c"}, deleted)
}

// --------------------------------------------------------------------------
// Search
// --------------------------------------------------------------------------

func TestSearch(t *testing.T) {
	d := newDB(t)
	seed(t, d, "car", vehicle...)
	seed(t, d, "car2", "Vehicle.Radio")

	tests := []struct {
		substring string
		want      []string
	}{
		{"Radio", []string{"Vehicle.Infotainment.Radio.Station", "Vehicle.Infotainment.Radio.Volume"}},
		{"radio", []string{}},
		{"Door.", []string{"Vehicle.Cabin.Door.Left", "Vehicle.Cabin.Door.Right"}},
		{"s", []string{"Vehicle.Infotainment.Display", "Vehicles"}},
		{"nothing", []string{}},
		{"", []string{
			"Vehicle.Cabin.Door.Left",
			"Vehicle.Cabin.Door.Right",
			"Vehicle.Infotainment.Display",
			"Vehicle.Infotainment.Radio.Station",
			"Vehicle.Infotainment.Radio.Volume",
			"Vehicle.Speed",
			"Vehicles",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.substring, func(t *testing.T) {
			got, err := Search(d, "car", tt.substring)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Search(%q) mismatch (-want +got):\n%s", tt.substring, diff)
			}
		})
	}
}

func TestSearchRejectsReservedNamespace(t *testing.T) {
	d := newDB(t)
	_, err := Search(d, "a\x00b", "")
	requireCode(t, err, store.RetCInvalidArgument)
}
