// Package tcp implements the TCP socket-based transport of the store's RPC system.
// It provides concrete implementations of the base package's connector
// interfaces and applies the TCPConf and SocketConf settings to every connection.
//
// This package builds on the base package's transport functionality, inheriting its
// connection pooling, buffer reuse, and request routing. See the base package
// documentation for the underlying transport mechanisms.
package tcp
