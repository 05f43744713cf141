package common

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ValentinKolb/hKV/lib/db"
)

// --------------------------------------------------------------------------
// Shards
// --------------------------------------------------------------------------

// ServerShard describes one independent store hosted by the server
type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Engine is the storage engine backing the shard
	Engine db.Implementation
}

// ParseServerShard parses a shard definition of the form "<id>=<engine>", e.g. "100=bolt".
// The engine defaults to bolt when only an id is given.
func ParseServerShard(s string) (ServerShard, error) {
	idStr, engine, found := strings.Cut(strings.TrimSpace(s), "=")
	if !found {
		engine = string(db.ImplBolt)
	}

	id, err := strconv.ParseUint(strings.TrimSpace(idStr), 10, 64)
	if err != nil {
		return ServerShard{}, fmt.Errorf("invalid shard id in %q: %w", s, err)
	}

	impl, ok := db.ParseImplementation(strings.ToLower(strings.TrimSpace(engine)))
	if !ok {
		return ServerShard{}, fmt.Errorf("invalid engine %q for shard %d, must be one of %v", engine, id, db.Implementations)
	}

	return ServerShard{ShardID: id, Engine: impl}, nil
}

// String returns the shard in the form accepted by ParseServerShard
func (s ServerShard) String() string {
	return fmt.Sprintf("%d=%s", s.ShardID, s.Engine)
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the settings of the server side transport layer
type ServerTransportConfig struct {
	// Endpoint is the address to listen on (host:port or a socket path)
	Endpoint string
	// WorkersPerConn limits the concurrent requests per connection (tcp, unix)
	WorkersPerConn int
	// BufferSize is the size of the pooled per request read buffers (tcp, unix)
	BufferSize int

	// TCP tuning, ignored by the other transports
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
	WriteBufferSize int
	ReadBufferSize  int
}

// ServerConfig holds all configuration parameters of a hKV server
type ServerConfig struct {
	// Shards hosted by the server
	Shards []ServerShard

	// DataDir is the directory all shard engines live in
	DataDir string

	// Read and write deadline for connections
	TimeoutSecond int64

	// Transport settings
	Transport ServerTransportConfig

	// MetricsEndpoint serves Prometheus metrics if not empty
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// ShardLocation returns the engine location of a shard inside DataDir.
// Pebble uses a directory, the file based engines get a ".db" suffix.
// An empty DataDir yields an empty location (in-memory maple only).
func (c *ServerConfig) ShardLocation(shard ServerShard) string {
	if c.DataDir == "" {
		return ""
	}
	name := fmt.Sprintf("shard-%d", shard.ShardID)
	if shard.Engine != db.ImplPebble {
		name += ".db"
	}
	return filepath.Join(c.DataDir, name)
}

// Validate checks the configuration for errors that would only surface later
func (c *ServerConfig) Validate() error {
	if len(c.Shards) == 0 {
		return fmt.Errorf("no shards configured")
	}
	seen := make(map[uint64]bool, len(c.Shards))
	for _, shard := range c.Shards {
		if seen[shard.ShardID] {
			return fmt.Errorf("shard %d configured more than once", shard.ShardID)
		}
		seen[shard.ShardID] = true
		if _, ok := db.ParseImplementation(string(shard.Engine)); !ok {
			return fmt.Errorf("shard %d has unknown engine %q", shard.ShardID, shard.Engine)
		}
		if c.DataDir == "" && shard.Engine != db.ImplMaple {
			return fmt.Errorf("shard %d uses the %s engine which needs a data directory", shard.ShardID, shard.Engine)
		}
	}
	if c.Transport.Endpoint == "" {
		return fmt.Errorf("no endpoint configured")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder
	addSection, addField := configPrinter(&sb)

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.Transport.BufferSize))
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Storage
	addSection("Storage")
	if c.DataDir == "" {
		addField("Data Directory", "(in-memory)")
	} else {
		addField("Data Directory", c.DataDir)
	}

	// Shards
	addSection("Shards")
	for _, shard := range c.Shards {
		location := c.ShardLocation(shard)
		if location == "" {
			location = "(in-memory)"
		}
		addField(strconv.FormatUint(shard.ShardID, 10), fmt.Sprintf("%s at %s", shard.Engine, location))
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the settings of the client side transport layer
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int

	// TCP tuning, ignored by the other transports
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
	WriteBufferSize int
	ReadBufferSize  int
}

// ClientConfig holds all configuration parameters of a hKV client
type ClientConfig struct {
	TimeoutSecond int64
	Transport     ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder
	addSection, addField := configPrinter(&sb)

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// configPrinter returns helper functions for consistent formatting of config sections
func configPrinter(sb *strings.Builder) (addSection func(title string), addField func(name, value string)) {
	addSection = func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField = func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-24s: %s\n", name, value))
	}
	return addSection, addField
}
