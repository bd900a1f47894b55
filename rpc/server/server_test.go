package server

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/lib/store/lstore"
	storetesting "github.com/ValentinKolb/skv/lib/store/testing"
	"github.com/ValentinKolb/skv/rpc/client"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/ValentinKolb/skv/rpc/transport/http"
	"github.com/ValentinKolb/skv/rpc/transport/inproc"
	"github.com/ValentinKolb/skv/rpc/transport/tcp"
	"github.com/ValentinKolb/skv/rpc/transport/unix"
	"github.com/VictoriaMetrics/metrics"
)

var endpointCounter atomic.Uint64

// startServer starts a server on a fresh in-process endpoint and returns a connected client
func startServer(t testing.TB, config common.ServerConfig, ser serializer.IRPCSerializer, opts ...Option) store.IStore {
	t.Helper()

	config.Transport.Endpoint = fmt.Sprintf("server-test-%d", endpointCounter.Add(1))
	return startServerOn(t, config, inproc.NewInprocServerTransport(), inproc.NewInprocClientTransport(),
		config.Transport.Endpoint, ser, nil, opts...)
}

// startServerOn serves config over serverTransport and returns a client that reaches it at endpoint.
// If ready is not nil it is called before the client connects.
func startServerOn(
	t testing.TB,
	config common.ServerConfig,
	serverTransport transport.IRPCServerTransport,
	clientTransport transport.IRPCClientTransport,
	endpoint string,
	ser serializer.IRPCSerializer,
	ready func(),
	opts ...Option,
) store.IStore {
	t.Helper()

	s := NewRPCServer(config, serverTransport, ser, opts...)

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()
	t.Cleanup(func() {
		_ = s.Close()
		if err := <-done; err != nil {
			t.Errorf("Serve returned %v", err)
		}
	})

	if ready != nil {
		ready()
	}

	c, err := client.NewRPCStore(config.Shards[0].ShardID, common.ClientConfig{
		TimeoutSecond: 2,
		Transport:     common.ClientTransportConfig{Endpoints: []string{endpoint}},
	}, clientTransport, ser)
	if err != nil {
		t.Fatalf("NewRPCStore failed: %v", err)
	}
	return c
}

// waitForListener blocks until a server accepts connections on address
func waitForListener(t testing.TB, network, address string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial(network, address)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no server listening on %s %s", network, address)
}

// freeTCPAddress returns a loopback address with a currently unused port
func freeTCPAddress(t testing.TB) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}

func memoryConfig() common.ServerConfig {
	return common.ServerConfig{
		Shards: []common.ServerShard{{ShardID: 1, Type: common.ShardTypeMemory}},
	}
}

func TestRPCStore(t *testing.T) {
	serializers := map[string]func() serializer.IRPCSerializer{
		"Binary": serializer.NewBinarySerializer,
		"JSON":   serializer.NewJSONSerializer,
		"GOB":    serializer.NewGOBSerializer,
	}

	for name, newSerializer := range serializers {
		storetesting.RunStoreTests(t, "RPC/"+name, func(t *testing.T, clock *storetesting.FakeClock) store.IStore {
			factory := func(common.ServerConfig, common.ServerShard) (store.IStore, error) {
				return lstore.NewLocalStore(&lstore.Options{Clock: clock.Now}), nil
			}
			return startServer(t, memoryConfig(), newSerializer(), WithStoreFactory(factory))
		})
	}
}

func TestRPCStoreTransports(t *testing.T) {
	testCases := []struct {
		name    string
		network string
		// start returns the server and client transport, the listen address and the client endpoint
		start func(t *testing.T) (transport.IRPCServerTransport, transport.IRPCClientTransport, string, string)
	}{
		{"TCP", "tcp", func(t *testing.T) (transport.IRPCServerTransport, transport.IRPCClientTransport, string, string) {
			addr := freeTCPAddress(t)
			return tcp.NewTCPServerTransport(), tcp.NewTCPClientTransport(), addr, addr
		}},
		{"Unix", "unix", func(t *testing.T) (transport.IRPCServerTransport, transport.IRPCClientTransport, string, string) {
			// socket paths are length limited, t.TempDir can be too long
			dir, err := os.MkdirTemp("", "skv")
			if err != nil {
				t.Fatalf("MkdirTemp failed: %v", err)
			}
			t.Cleanup(func() { _ = os.RemoveAll(dir) })
			path := filepath.Join(dir, "s.sock")
			return unix.NewUnixServerTransport(), unix.NewUnixClientTransport(), path, path
		}},
		{"HTTP", "tcp", func(t *testing.T) (transport.IRPCServerTransport, transport.IRPCClientTransport, string, string) {
			addr := freeTCPAddress(t)
			return http.NewHttpServerTransport(), http.NewHttpClientTransport(), addr, "http://" + addr
		}},
	}

	for _, tc := range testCases {
		storetesting.RunStoreTests(t, "RPC/"+tc.name, func(t *testing.T, clock *storetesting.FakeClock) store.IStore {
			serverTransport, clientTransport, listen, endpoint := tc.start(t)

			config := memoryConfig()
			config.Transport.Endpoint = listen
			factory := func(common.ServerConfig, common.ServerShard) (store.IStore, error) {
				return lstore.NewLocalStore(&lstore.Options{Clock: clock.Now}), nil
			}

			return startServerOn(t, config, serverTransport, clientTransport, endpoint, serializer.NewBinarySerializer(),
				func() { waitForListener(t, tc.network, listen) }, WithStoreFactory(factory))
		})
	}
}

func TestStoreErrorCode(t *testing.T) {
	s := lstore.NewLocalStore(nil)
	defer s.Close()

	resp := NewIStoreServerAdapter().Handle(common.NewSetExRequest("key", []byte("v"), 0), s)
	if resp.Err == "" {
		t.Fatalf("Expected an error for ttl=0")
	}
	if len(resp.Meta) != 1 || store.RetCode(resp.Meta[0]) != store.RetCInvalidOperation {
		t.Errorf("Expected code %s in meta, got %v", store.RetCInvalidOperation, resp.Meta)
	}
}

func TestUnsupportedMessage(t *testing.T) {
	s := lstore.NewLocalStore(nil)
	defer s.Close()

	resp := NewIStoreServerAdapter().Handle(&common.Message{MsgType: common.MsgTCustom}, s)
	if resp.MsgType != common.MsgTError {
		t.Errorf("Expected an error response, got %s", resp.MsgType)
	}
}

func TestUnknownShard(t *testing.T) {
	config := memoryConfig()
	c := startServer(t, config, serializer.NewBinarySerializer())

	other, err := client.NewRPCStore(99, common.ClientConfig{
		TimeoutSecond: 1,
		Transport:     common.ClientTransportConfig{Endpoints: []string{currentEndpoint()}},
	}, inproc.NewInprocClientTransport(), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("NewRPCStore failed: %v", err)
	}

	if err := other.Set("key", []byte("value")); err == nil || !strings.Contains(err.Error(), "shard 99 not found") {
		t.Errorf("Expected shard not found error, got %v", err)
	}

	// the configured shard still works
	if err := c.Set("key", []byte("value")); err != nil {
		t.Errorf("Set failed: %v", err)
	}
}

func TestClientRebuildsStoreErrors(t *testing.T) {
	c := startServer(t, memoryConfig(), serializer.NewBinarySerializer())

	// GT on a key without deadline is rejected by the mode, not an error
	if err := c.Set("key", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	applied, err := c.ExpireAt("key", time.Now().Add(time.Hour), store.ExpireGT)
	if err != nil || applied {
		t.Errorf("Expected GT on a key without deadline to not apply, got %v, %v", applied, err)
	}

	err = c.SetEx("key", []byte("v"), -time.Second)
	var storeErr *store.Error
	if !errors.As(err, &storeErr) || storeErr.Code != store.RetCInvalidOperation {
		t.Errorf("Expected *store.Error with code %s, got %v", store.RetCInvalidOperation, err)
	}
}

func TestBoltShard(t *testing.T) {
	config := common.ServerConfig{
		Shards:  []common.ServerShard{{ShardID: 3, Type: common.ShardTypeBolt}},
		DataDir: t.TempDir(),
	}
	c := startServer(t, config, serializer.NewJSONSerializer())

	if err := c.SetEx("key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("SetEx failed: %v", err)
	}
	value, ok, err := c.Get("key")
	if err != nil || !ok || string(value) != "value" {
		t.Errorf("Expected value after SetEx, got %q, %v, %v", value, ok, err)
	}
}

func TestInvalidShardConfig(t *testing.T) {
	testCases := []struct {
		name   string
		config common.ServerConfig
	}{
		{"No shards", common.ServerConfig{}},
		{"Bolt without data dir", common.ServerConfig{Shards: []common.ServerShard{{ShardID: 1, Type: common.ShardTypeBolt}}}},
		{"Duplicate shard", common.ServerConfig{Shards: []common.ServerShard{{ShardID: 1, Type: common.ShardTypeMemory}, {ShardID: 1, Type: common.ShardTypeMemory}}}},
		{"Unknown type", common.ServerConfig{Shards: []common.ServerShard{{ShardID: 1, Type: "raft"}}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.config.Transport.Endpoint = fmt.Sprintf("server-test-%d", endpointCounter.Add(1))
			s := NewRPCServer(tc.config, inproc.NewInprocServerTransport(), serializer.NewBinarySerializer())
			if err := s.Serve(); err == nil {
				t.Errorf("Expected Serve to fail")
			}
		})
	}
}

func TestRequestMetrics(t *testing.T) {
	c := startServer(t, memoryConfig(), serializer.NewBinarySerializer())
	if _, _, err := c.Get("key"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, false)
	if !strings.Contains(buf.String(), `skv_rpc_requests_total{type="get",shard="1"}`) {
		t.Errorf("Expected request counter in metrics output")
	}
}

// currentEndpoint returns the endpoint of the most recently started test server
func currentEndpoint() string {
	return fmt.Sprintf("server-test-%d", endpointCounter.Load())
}
