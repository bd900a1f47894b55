// Package rpc provides the remote procedure call layer of sKV. It connects
// store clients with the shards served by an sKV server.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP, in-process).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: An RPC client implementing store.IStore, so a remote shard can be
//     used like a local store.
//
//   - server: The RPC server that routes requests to its shard stores
//     (in-memory or bolt) and exposes request metrics.
package rpc
