// Package common provides core data structures and utilities shared across
// the RPC layer of the store. It defines the message protocol, the configuration
// structures and the logger setup used by the other packages.
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication between client and server,
//     with a flexible structure that adapts to the different store operations.
//     Includes factory methods for creating the request and response messages.
//
//   - MessageType: Enumeration of all supported operation types.
//
//   - ServerConfig: Configuration of the server, including its shards (memory or bolt),
//     transport settings and the optional metrics endpoint.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation plugged into the dragonboat logger package,
//     providing consistent formatting across the application.
package common
