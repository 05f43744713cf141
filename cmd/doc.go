// Package cmd implements the command-line interface of hKV. It provides a
// hierarchical command structure for running the server and for talking to
// it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts an hKV server hosting one or more shards
//   - kv: Client commands for the tree operations (write, read, nodes, rdelete, ...)
//   - util: Shared flag, config and factory helpers (internal use)
//
// Every flag can also be set through an HKV_ prefixed environment variable
// (e.g. HKV_TRANSPORT_ENDPOINTS), a .env file or a --config file.
//
// See hkv --help for a list of all commands.
package cmd
