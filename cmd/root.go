package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/hKV/cmd/kv"
	"github.com/ValentinKolb/hKV/cmd/serve"
	"github.com/ValentinKolb/hKV/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "hkv",
		Short: "hierarchical namespaced key-value store",
		Long: fmt.Sprintf(`hKV (v%s)

A key-value store for tree shaped data. Values live at dotted paths
(e.g. Vehicle.Cabin.Door) inside isolated namespaces, and whole subtrees
can be listed, searched and deleted in one request.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of hKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hKV v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (binary, json, gob)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (http, tcp, unix, grpc)"))
	key = "config"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("optional config file (yaml, toml or json) with the same keys as the flags"))

	for _, key := range []string{"serializer", "transport", "config"} {
		_ = viper.BindPFlag(key, RootCmd.PersistentFlags().Lookup(key))
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
