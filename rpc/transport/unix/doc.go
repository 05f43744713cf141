// Package unix provides Unix domain socket connectors for the framed transport
// of package base. The endpoint is the socket path; a stale socket file is
// removed before listening. Use it when client and server share a machine.
package unix
