package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/spf13/cobra"
)

var (
	writeCmd = &cobra.Command{
		Use:   "write [path] [value]",
		Short: "Stores a value at a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Write(cmd.Context(), namespace(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("wrote '%s'\n", args[0])
			return nil
		},
	}
	readCmd = &cobra.Command{
		Use:   "read [path]",
		Short: "Reads the value stored at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := rpcStore.Read(cmd.Context(), namespace(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [path]",
		Short: "Deletes the value at a path, descendants are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Delete(cmd.Context(), namespace(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted '%s'\n", args[0])
			return nil
		},
	}
	searchCmd = &cobra.Command{
		Use:   "search [substring]",
		Short: "Lists every path of the namespace containing the substring",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := rpcStore.Search(cmd.Context(), namespace(), optionalArg(args))
			if err != nil {
				return err
			}
			printPaths(paths)
			return nil
		},
	}
	rdeleteCmd = &cobra.Command{
		Use:   "rdelete [node]",
		Short: "Deletes a node and everything below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := rpcStore.DeleteRecursivelyFrom(cmd.Context(), namespace(), args[0])
			if err != nil {
				return err
			}
			printPaths(deleted)
			fmt.Printf("deleted %d keys\n", len(deleted))
			return nil
		},
	}
	nodesCmd = &cobra.Command{
		Use:   "nodes [node]",
		Short: "Lists the nodes a number of layers below a node (the root if omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layers, _ := cmd.Flags().GetInt("layers")
			nodes, err := rpcStore.NodesStartingIn(cmd.Context(), namespace(), optionalArg(args), layers)
			if err != nil {
				return err
			}
			printPaths(nodes)
			return nil
		},
	}
	destroyCmd = &cobra.Command{
		Use:   "destroy",
		Short: "Deletes all data of the shard, in every namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rpcStore.DestroyDB(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("destroyed database")
			return nil
		},
	}
	openCmd = &cobra.Command{
		Use:   "open",
		Short: "Opens the database of the shard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rpcStore.OpenDB(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("opened database")
			return nil
		},
	}
	closeCmd = &cobra.Command{
		Use:   "close",
		Short: "Closes the database of the shard, the next request reopens it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rpcStore.CloseDB(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("closed database")
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the database of the shard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := rpcStore.GetDBInfo(cmd.Context())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	exportCmd = &cobra.Command{
		Use:   "export [node]",
		Short: "Writes a node and everything below it as YAML (the whole namespace if omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := rpcStore.NodesStartingIn(cmd.Context(), namespace(), optionalArg(args), 0)
			if err != nil {
				return err
			}

			entries := make(map[string]string, len(paths))
			for _, path := range paths {
				value, err := rpcStore.Read(cmd.Context(), namespace(), path)
				if store.CodeOf(err) == store.RetCNotFound {
					// deleted since the listing
					continue
				}
				if err != nil {
					return err
				}
				entries[path] = value
			}

			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return EncodeEntries(os.Stdout, entries)
			}
			f, err := os.Create(file)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := EncodeEntries(f, entries); err != nil {
				return err
			}
			fmt.Printf("exported %d keys to %s\n", len(entries), file)
			return nil
		},
	}
	importCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Writes every entry of a YAML file (nested mappings are joined with '.')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := DecodeEntries(f)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			prefix, _ := cmd.Flags().GetString("prefix")
			for _, path := range sortedPaths(entries) {
				target := path
				if prefix != "" {
					target = prefix + "." + path
				}
				if err := rpcStore.Write(cmd.Context(), namespace(), target, entries[path]); err != nil {
					return err
				}
			}
			fmt.Printf("imported %d keys\n", len(entries))
			return nil
		},
	}
)

func init() {
	nodesCmd.Flags().Int("layers", store.DefaultLayers, "How many layers below the node to list (0 lists all descendants)")
	exportCmd.Flags().StringP("file", "f", "", "Write to this file instead of stdout")
	importCmd.Flags().String("prefix", "", "Node to import the entries below")
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printPaths(paths []string) {
	if len(paths) == 0 {
		fmt.Println("(none)")
		return
	}
	fmt.Println(strings.Join(paths, "\n"))
}
