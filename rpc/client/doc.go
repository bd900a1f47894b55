// Package client implements the RPC client of the store. It provides an implementation
// of the store.IStore interface that forwards every call to a remote server.
//
// Key Components:
//
//   - NewRPCStore: Factory function that creates a client implementing the store.IStore
//     interface. This client forwards all operations to remote servers via the configured
//     transport layer.
//
//   - Registry: A go-metrics registry with a latency timer and an error meter per
//     message type.
//
// Durations travel as milliseconds and deadlines as unix milliseconds. Store errors of
// the server are rebuilt into *store.Error values with their original code.
//
// Usage Example:
//
//	config := common.ClientConfig{
//		TimeoutSecond: 5,
//		Transport: common.ClientTransportConfig{
//			Endpoints:  []string{"localhost:5000"},
//			RetryCount: 3,
//		},
//	}
//
//	s, err := client.NewRPCStore(1, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.SetEx("mykey", []byte("myvalue"), time.Minute)
//	value, exists, err := s.Get("mykey")
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from multiple goroutines
//	without additional synchronization.
package client
