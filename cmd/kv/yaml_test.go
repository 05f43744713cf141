package kv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEntries(t *testing.T) {
	entries := map[string]string{
		"Vehicle":                "car",
		"Vehicle.Speed":          "42",
		"Vehicle.Cabin.Door.Row": "1: front",
		"Vehicle.Empty":          "",
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeEntries(&buf, entries))

	// keys are written in path order
	out := buf.String()
	assert.Less(t, strings.Index(out, "Vehicle.Cabin.Door.Row"), strings.Index(out, "Vehicle.Speed"))

	decoded, err := DecodeEntries(&buf)
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)
}

func TestDecodeNestedEntries(t *testing.T) {
	doc := `
Vehicle:
  Speed: 42
  Cabin:
    Door:
      Left: open
      Right: closed
Other: x
`
	entries, err := DecodeEntries(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Vehicle.Speed":            "42",
		"Vehicle.Cabin.Door.Left":  "open",
		"Vehicle.Cabin.Door.Right": "closed",
		"Other":                    "x",
	}, entries)
}

func TestDecodeEntriesErrors(t *testing.T) {
	entries, err := DecodeEntries(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)

	for name, doc := range map[string]string{
		"sequence root":  "- a\n- b\n",
		"sequence value": "Vehicle:\n  - a\n",
		"invalid yaml":   "Vehicle: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEntries(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}
