// Package cmd implements the command-line interface of sKV. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Raw key-value operations (set, setex, get, del, expire, expireat, ttl)
//   - model: Typed operations on values described by a JSON Schema file
//   - serve: Commands for starting and configuring the sKV server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See skv -help for a list of all commands.
package cmd
