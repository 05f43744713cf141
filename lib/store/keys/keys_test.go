package keys

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	key := Encode("car", "Vehicle.Radio")
	assert.Equal(t, "car\x00Vehicle.Radio", key)

	path, err := Decode(key, "car")
	require.NoError(t, err)
	assert.Equal(t, "Vehicle.Radio", path)

	_, err = Decode(key, "ca")
	assert.Error(t, err, "a shorter namespace must not match")

	path, err = Decode(Encode("", "x"), "")
	require.NoError(t, err)
	assert.Equal(t, "x", path)
}

func TestPrefixes(t *testing.T) {
	assert.Equal(t, "ns\x00", NamespacePrefix("ns"))
	assert.Equal(t, "ns\x00", SubtreePrefix("ns", ""))
	assert.Equal(t, "ns\x00a.b.", SubtreePrefix("ns", "a.b"))
	assert.Equal(t, "\x00", NamespacePrefix(""))
}

func TestNamespacesAreContiguous(t *testing.T) {
	physical := []string{
		Encode("ab", "x"),
		Encode("a", "z"),
		Encode("a", "b.c"),
		Encode("a.b", "c"),
		Encode("a", ""),
	}
	sort.Strings(physical)

	// every key of namespace "a" precedes keys of "a.b" and "ab"
	assert.Equal(t, []string{"a\x00", "a\x00b.c", "a\x00z", "a.b\x00c", "ab\x00x"}, physical)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("", ""))
	assert.NoError(t, Validate("ns", "a.b"))
	assert.Error(t, Validate("n\x00s", "a"))
	assert.Error(t, Validate("ns", "a\x00b"))
}

func TestSegmentsAndDepth(t *testing.T) {
	tests := []struct {
		path     string
		segments int
		depth    int
	}{
		{"", 0, -1},
		{"a", 1, 0},
		{"a.b", 2, 1},
		{"Vehicle.Infotainment.Radio.Volume", 4, 3},
		{"a..b", 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Len(t, Segments(tt.path), tt.segments)
			assert.Equal(t, tt.depth, Depth(tt.path))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		path string
		n    int
		want string
	}{
		{"a.b.c", 1, "a"},
		{"a.b.c", 2, "a.b"},
		{"a.b.c", 3, "a.b.c"},
		{"a.b.c", 7, "a.b.c"},
		{"a.b.c", 0, ""},
		{"a..b", 2, "a."},
		{"Vehicle.Infotainment.Radio", 2, "Vehicle.Infotainment"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.path, tt.n), "Truncate(%q, %d)", tt.path, tt.n)
	}
}
