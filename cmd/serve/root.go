package serve

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cmdUtil "github.com/ValentinKolb/hKV/cmd/util"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/server"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the hKV server",
		Long:    `Start the hKV server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is HKV_<flag> (e.g. HKV_DATA_DIR=/var/lib/hkv)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100=bolt", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=ENGINE where ENGINE is one of: bolt, pebble, maple"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("Directory the shard engines are stored in. Leave empty to run maple shards in memory"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 30, cmdUtil.WrapString("Timeout in seconds for a request, including the time spent waiting for its shard"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080, /tmp/hkv.sock, ...)"))

	key = "workers"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Concurrent requests per connection (tcp and unix only, 0 uses the default)"))

	key = "buffer-size"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Size of the pooled request buffers in KB (tcp and unix only, 0 uses the default)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (tcp only)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval (in seconds, tcp only)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time (in seconds, tcp only)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address to serve Prometheus metrics on (e.g. localhost:9090), disabled if empty"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and
// environment variables and converts it to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Shards = []common.ServerShard{}
	for _, shardConfig := range strings.Split(viper.GetString("shards"), ",") {
		if strings.TrimSpace(shardConfig) == "" {
			continue
		}
		shard, err := common.ParseServerShard(shardConfig)
		if err != nil {
			return err
		}
		serveCmdConfig.Shards = append(serveCmdConfig.Shards, shard)
	}

	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint:        viper.GetString("endpoint"),
		WorkersPerConn:  viper.GetInt("workers"),
		BufferSize:      viper.GetInt("buffer-size") * 1024,
		TCPNoDelay:      viper.GetBool("tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("tcp-linger"),
	}

	if serveCmdConfig.DataDir != "" {
		if err := os.MkdirAll(serveCmdConfig.DataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return serveCmdConfig.Validate()
}

// run starts the hKV server and closes it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(serveCmdConfig.LogLevel)
	log := logger.GetLogger("cli")

	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(*serveCmdConfig, t, s)

	done := make(chan error, 1)
	go func() { done <- serv.Serve() }()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case err := <-done:
		// the transport stopped on its own, release the shards
		if closeErr := serv.Close(); closeErr != nil {
			log.Warningf("Failed to close server: %v", closeErr)
		}
		return err
	case sig := <-signals:
		log.Infof("Received %s, shutting down", sig)
		closeErr := serv.Close()
		if err := <-done; err != nil {
			return err
		}
		return closeErr
	}
}
