package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/serializer"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/ValentinKolb/hKV/rpc/transport/grpc"
	"github.com/ValentinKolb/hKV/rpc/transport/http"
	"github.com/ValentinKolb/hKV/rpc/transport/tcp"
	"github.com/ValentinKolb/hKV/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables read by hkv
	EnvPrefix = "hkv"
)

// Transports lists the transports selectable with --transport
var Transports = []string{"http", "tcp", "unix", "grpc"}

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// InitConfig loads .env files, the optional --config file and binds HKV_*
// environment variables. It is registered with cobra.OnInitialize.
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Printf("failed to read config file %s: %v\n", file, err)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int64(key, 10, WrapString("The timeout in seconds of the client"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "localhost:8080", WrapString("The address of the hKV server. For transports that support load balancing, multiple endpoints can be specified as a comma-separated list"))

	key = "transport-conn-per-endpoint"
	cmd.PersistentFlags().Int(key, 1, WrapString("Simultaneous connections per endpoint - for transports that support this feature"))

	key = "transport-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry a request that failed in the transport"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the socket write buffer (in KB, tcp and unix only)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the socket read buffer (in KB, tcp and unix only)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (tcp only)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, tcp only)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time (in seconds, tcp only)"))
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() *common.ClientConfig {
	var endpoints []string
	for _, e := range strings.Split(viper.GetString("transport-endpoints"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			endpoints = append(endpoints, e)
		}
	}

	return &common.ClientConfig{
		TimeoutSecond: viper.GetInt64("timeout"),
		Transport: common.ClientTransportConfig{
			Endpoints:              endpoints,
			RetryCount:             viper.GetInt("transport-retries"),
			ConnectionsPerEndpoint: viper.GetInt("transport-conn-per-endpoint"),
			TCPNoDelay:             viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec:        viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:           viper.GetInt("transport-tcp-linger"),
			WriteBufferSize:        viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:         viper.GetInt("transport-read-buffer") * 1024,
		},
	}
}

// GetShardID retrieves the configured shard ID
func GetShardID() uint64 {
	return viper.GetUint64("shard")
}

// --------------------------------------------------------------------------
// Factories
// --------------------------------------------------------------------------

// GetSerializer creates the serializer selected with --serializer
func GetSerializer() (serializer.IRPCSerializer, error) {
	name := viper.GetString("serializer")
	s, ok := serializer.ByName(name)
	if !ok {
		return nil, fmt.Errorf("invalid serializer %s, must be one of %v", name, serializer.Names)
	}
	return s, nil
}

// GetClientTransport creates the client transport selected with --transport
func GetClientTransport() (transport.IRPCClientTransport, error) {
	switch name := viper.GetString("transport"); name {
	case "http":
		return http.NewHttpClientTransport(), nil
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	case "grpc":
		return grpc.NewGRPCClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s, must be one of %v", name, Transports)
	}
}

// GetServerTransport creates the server transport selected with --transport
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch name := viper.GetString("transport"); name {
	case "http":
		return http.NewHttpServerTransport(), nil
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	case "grpc":
		return grpc.NewGRPCServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s, must be one of %v", name, Transports)
	}
}
