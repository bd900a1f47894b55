// Package inproc implements a transport that connects RPC clients and servers living
// in the same process. Servers register under their endpoint name in a process wide
// registry, clients look them up and call the handler directly.
//
// It is used by embedded servers and by tests that want the full client and server
// path without opening sockets.
package inproc
