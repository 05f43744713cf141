package kv

import (
	"github.com/ValentinKolb/hKV/cmd/util"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcStore store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform operations on the tree of a namespace",
		PersistentPreRunE: setupKVClient,
	}
)

func init() {
	util.SetupRPCClientFlags(KeyValueCommands)

	KeyValueCommands.PersistentFlags().Uint64("shard", 100, util.WrapString("ID of the shard to connect to"))
	KeyValueCommands.PersistentFlags().StringP("namespace", "n", "", util.WrapString("Namespace the paths belong to (empty is the default namespace)"))

	KeyValueCommands.AddCommand(writeCmd)
	KeyValueCommands.AddCommand(readCmd)
	KeyValueCommands.AddCommand(deleteCmd)
	KeyValueCommands.AddCommand(searchCmd)
	KeyValueCommands.AddCommand(rdeleteCmd)
	KeyValueCommands.AddCommand(nodesCmd)
	KeyValueCommands.AddCommand(destroyCmd)
	KeyValueCommands.AddCommand(openCmd)
	KeyValueCommands.AddCommand(closeCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(exportCmd)
	KeyValueCommands.AddCommand(importCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the RPC store client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	rpcStore, err = client.NewRPCStore(
		util.GetShardID(),
		*util.GetClientConfig(),
		t,
		s,
	)
	return err
}

// namespace returns the namespace selected with --namespace
func namespace() string {
	return viper.GetString("namespace")
}
