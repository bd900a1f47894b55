// Package server implements the RPC server of the store. It provides the adapter that
// translates RPC messages into store.IStore calls, along with the core server
// implementation that manages shards and request routing.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a store.IStore.
//
//   - NewIStoreServerAdapter: Factory function creating an adapter for key-value
//     store operations. Store errors are sent back together with their code.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	config := common.ServerConfig{
//		Shards: []common.ServerShard{
//			{ShardID: 1, Type: common.ShardTypeMemory},
//			{ShardID: 2, Type: common.ShardTypeBolt},
//		},
//		DataDir:         "/var/lib/skv",
//		Transport:       common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//		MetricsEndpoint: ":9090",
//		TimeoutSecond:   5,
//		LogLevel:        "info",
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
//	if err := s.Serve(); err != nil {
//		log.Fatalf("Server error: %v", err)
//	}
//
// The server supports two types of shards, which can be mixed within a single server:
//
//   - ShardTypeMemory: An in-memory store (lstore).
//
//   - ShardTypeBolt: A persistent store (bstore), kept in <DataDir>/shard-<id>.db.
//
// Metrics:
//
//	Every request is counted in skv_rpc_requests_total and, if it failed, in
//	skv_rpc_request_errors_total (labels: type, shard). Latencies are recorded in
//	skv_rpc_request_duration_seconds. If MetricsEndpoint is set, all metrics of the
//	process are served in the prometheus format on /metrics.
package server
