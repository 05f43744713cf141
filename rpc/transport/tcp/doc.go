// Package tcp provides TCP connectors for the framed transport of package
// base. Besides dialing and listening it applies the TCP socket options of the
// configuration (no delay, keep alive, linger, socket buffer sizes) to every
// connection on both sides.
package tcp
