package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shared transport configuration
// --------------------------------------------------------------------------

// SocketConf holds the socket settings shared by the stream transports (tcp, unix)
type SocketConf struct {
	WriteBufferSize int // in bytes, 0 = os default
	ReadBufferSize  int // in bytes, 0 = os default
}

// TCPConf holds the settings only applied to tcp connections
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int // 0 = disabled
	TCPLingerSec    int // < 0 = os default
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

type ServerShardType string

const (
	ShardTypeMemory ServerShardType = "memory" // in-memory store (lstore)
	ShardTypeBolt   ServerShardType = "bolt"   // persistent store (bstore)
)

// ParseShardType converts a string to a ServerShardType
func ParseShardType(s string) (ServerShardType, error) {
	switch ServerShardType(strings.ToLower(strings.TrimSpace(s))) {
	case ShardTypeMemory:
		return ShardTypeMemory, nil
	case ShardTypeBolt:
		return ShardTypeBolt, nil
	default:
		return "", fmt.Errorf("invalid shard type %q (expected memory or bolt)", s)
	}
}

type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Type is the store backend of the shard
	Type ServerShardType
}

// ServerTransportConfig holds the settings of the server transport
type ServerTransportConfig struct {
	Endpoint       string
	WorkersPerConn int // maximum concurrent requests per connection
	BufferSize     int // size of the pooled read buffers in bytes
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters of the RPC server.
type ServerConfig struct {
	Shards []ServerShard

	// Directory for the bolt shard files
	DataDir string

	// Read and write timeout of the transport
	TimeoutSecond int64

	Transport ServerTransportConfig

	// Address of the prometheus endpoint, empty = disabled
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.Transport.BufferSize))
	addField("Metrics Endpoint", orDisabled(c.MetricsEndpoint))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Storage
	addSection("Storage")
	addField("Data Directory", c.DataDir)

	// Shards
	addSection("Shards")
	for _, shard := range c.Shards {
		addField(strconv.FormatUint(shard.ShardID, 10), string(shard.Type))
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the settings of the client transport
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
	TCPConf
}

type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

func orDisabled(s string) string {
	if s == "" {
		return "disabled"
	}
	return s
}
