package tcp

import (
	"net"
	"time"
)

// socketOptions are the tuning knobs shared by client and server config
type socketOptions struct {
	noDelay         bool
	keepAliveSec    int
	lingerSec       int
	writeBufferSize int
	readBufferSize  int
}

// tune applies the socket options to a tcp connection. Other connection types
// are left untouched.
func tune(conn net.Conn, opts socketOptions) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	// Disable Nagle's algorithm if configured
	if err := tcpConn.SetNoDelay(opts.noDelay); err != nil {
		return err
	}
	if opts.writeBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(opts.writeBufferSize); err != nil {
			return err
		}
	}
	if opts.readBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(opts.readBufferSize); err != nil {
			return err
		}
	}
	if opts.keepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(opts.keepAliveSec) * time.Second); err != nil {
			return err
		}
	}
	// zero keeps the OS default, a linger of 0 would reset connections on close
	if opts.lingerSec > 0 {
		if err := tcpConn.SetLinger(opts.lingerSec); err != nil {
			return err
		}
	}
	return nil
}
