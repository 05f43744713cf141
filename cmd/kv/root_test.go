package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceFlagDefaultsToRootNamespace(t *testing.T) {
	flag := KeyValueCommands.PersistentFlags().Lookup("namespace")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
	assert.Equal(t, "n", flag.Shorthand)
}
