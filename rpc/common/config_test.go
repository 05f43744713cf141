package common

import (
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerShard(t *testing.T) {
	tests := []struct {
		in   string
		want ServerShard
	}{
		{"100=bolt", ServerShard{ShardID: 100, Engine: db.ImplBolt}},
		{" 7 = Pebble ", ServerShard{ShardID: 7, Engine: db.ImplPebble}},
		{"1=maple", ServerShard{ShardID: 1, Engine: db.ImplMaple}},
		{"42", ServerShard{ShardID: 42, Engine: db.ImplBolt}},
	}
	for _, tt := range tests {
		got, err := ParseServerShard(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, in := range []string{"x=bolt", "100=rocksdb", "=bolt", "-1=maple"} {
		_, err := ParseServerShard(in)
		assert.Error(t, err, in)
	}

	shard, err := ParseServerShard(ServerShard{ShardID: 5, Engine: db.ImplMaple}.String())
	require.NoError(t, err)
	assert.Equal(t, ServerShard{ShardID: 5, Engine: db.ImplMaple}, shard)
}

func TestShardLocation(t *testing.T) {
	c := ServerConfig{DataDir: "/var/lib/hkv"}
	assert.Equal(t, filepath.Join("/var/lib/hkv", "shard-1.db"), c.ShardLocation(ServerShard{ShardID: 1, Engine: db.ImplBolt}))
	assert.Equal(t, filepath.Join("/var/lib/hkv", "shard-2"), c.ShardLocation(ServerShard{ShardID: 2, Engine: db.ImplPebble}))
	assert.Equal(t, filepath.Join("/var/lib/hkv", "shard-3.db"), c.ShardLocation(ServerShard{ShardID: 3, Engine: db.ImplMaple}))

	c.DataDir = ""
	assert.Equal(t, "", c.ShardLocation(ServerShard{ShardID: 3, Engine: db.ImplMaple}))
}

func TestServerConfigValidate(t *testing.T) {
	valid := func() ServerConfig {
		return ServerConfig{
			Shards:    []ServerShard{{ShardID: 100, Engine: db.ImplBolt}, {ShardID: 200, Engine: db.ImplMaple}},
			DataDir:   "data",
			Transport: ServerTransportConfig{Endpoint: "localhost:8080"},
		}
	}
	c := valid()
	require.NoError(t, c.Validate())

	tests := map[string]func(c *ServerConfig){
		"no shards":       func(c *ServerConfig) { c.Shards = nil },
		"duplicate shard": func(c *ServerConfig) { c.Shards = append(c.Shards, ServerShard{ShardID: 100, Engine: db.ImplMaple}) },
		"unknown engine":  func(c *ServerConfig) { c.Shards[0].Engine = "rocksdb" },
		"no data dir":     func(c *ServerConfig) { c.DataDir = "" },
		"no endpoint":     func(c *ServerConfig) { c.Transport.Endpoint = "" },
		"bad log level":   func(c *ServerConfig) { c.LogLevel = "verbose" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	t.Run("in-memory maple needs no data dir", func(t *testing.T) {
		c := valid()
		c.DataDir = ""
		c.Shards = []ServerShard{{ShardID: 1, Engine: db.ImplMaple}}
		assert.NoError(t, c.Validate())
		assert.Contains(t, c.String(), "(in-memory)")
	})
}
