package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/lib/store/bstore"
	"github.com/ValentinKolb/skv/lib/store/lstore"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates and the adapter that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// Option configures an RPCServer
type Option func(*RPCServer)

// WithStoreFactory replaces the default store creation of the shards
func WithStoreFactory(factory ShardStoreFactory) Option {
	return func(s *RPCServer) {
		s.storeFactory = factory
	}
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	opts ...Option,
) *RPCServer {
	s := &RPCServer{
		config:       config,
		transport:    transport,
		serializer:   serializer,
		shards:       xsync.NewMapOf[uint64, serverShard](),
		storeFactory: DefaultStoreFactory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RPCServer struct {
	config       common.ServerConfig
	transport    transport.IRPCServerTransport
	serializer   serializer.IRPCSerializer
	shards       *xsync.MapOf[uint64, serverShard]
	storeFactory ShardStoreFactory

	metricsServer *http.Server
	closeOnce     sync.Once
}

// DefaultStoreFactory creates an lstore for memory shards and a bstore file
// (<DataDir>/shard-<id>.db) for bolt shards
func DefaultStoreFactory(config common.ServerConfig, shard common.ServerShard) (store.IStore, error) {
	switch shard.Type {
	case common.ShardTypeMemory:
		return lstore.NewLocalStore(nil), nil
	case common.ShardTypeBolt:
		if config.DataDir == "" {
			return nil, fmt.Errorf("shard %d: bolt shards need a data directory", shard.ShardID)
		}
		return bstore.NewBoltStore(bstore.Options{
			Path: filepath.Join(config.DataDir, fmt.Sprintf("shard-%d.db", shard.ShardID)),
		})
	default:
		return nil, fmt.Errorf("shard %d: invalid shard type %q", shard.ShardID, shard.Type)
	}
}

// handle decodes a request, routes it to its shard and encodes the response
func (s *RPCServer) handle(shardId uint64, req []byte) []byte {
	start := time.Now()
	var msg common.Message
	var resp *common.Message

	if shard, ok := s.shards.Load(shardId); !ok {
		resp = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		resp = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		resp = shard.Adapter.Handle(&msg, shard.Store)
	}

	labels := fmt.Sprintf(`{type=%q,shard="%d"}`, msg.MsgType.String(), shardId)
	metrics.GetOrCreateCounter("skv_rpc_requests_total" + labels).Inc()
	if resp.Err != "" {
		metrics.GetOrCreateCounter("skv_rpc_request_errors_total" + labels).Inc()
	}
	metrics.GetOrCreateHistogram("skv_rpc_request_duration_seconds" + labels).UpdateDuration(start)

	val, err := s.serializer.Serialize(*resp)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

func (s *RPCServer) init() error {
	if len(s.config.Shards) == 0 {
		return fmt.Errorf("no shards configured")
	}

	if s.config.DataDir != "" {
		if err := os.MkdirAll(s.config.DataDir, 0o755); err != nil {
			return fmt.Errorf("could not create data directory: %w", err)
		}
	}

	for _, shardConfig := range s.config.Shards {
		if _, exists := s.shards.Load(shardConfig.ShardID); exists {
			return fmt.Errorf("shard %d configured twice", shardConfig.ShardID)
		}

		st, err := s.storeFactory(s.config, shardConfig)
		if err != nil {
			return err
		}
		s.shards.Store(shardConfig.ShardID, serverShard{
			Store:   st,
			Adapter: NewIStoreServerAdapter(),
		})
		Logger.Infof("created %s store for shard %d", shardConfig.Type, shardConfig.ShardID)
	}

	s.transport.RegisterHandler(s.handle)
	return nil
}

// startMetrics serves the prometheus metrics of the process on MetricsEndpoint
func (s *RPCServer) startMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	s.metricsServer = &http.Server{Addr: s.config.MetricsEndpoint, Handler: mux}

	go func() {
		Logger.Infof("Serving metrics on %s/metrics", s.config.MetricsEndpoint)
		if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()
}

// Serve starts the RPC server
// This function will also initialize the shards and start the transport layer.
// It blocks until Close is called or the transport fails.
func (s *RPCServer) Serve() error {
	Logger.Infof("Starting RPC Server")
	Logger.Infof(s.config.String())

	if err := s.init(); err != nil {
		s.closeStores()
		return err
	}

	if s.config.MetricsEndpoint != "" {
		s.startMetrics()
	}

	return s.transport.Listen(s.config)
}

// Close stops the transport and the metrics endpoint and closes all shard stores
func (s *RPCServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.transport.Close()

		if s.metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.metricsServer.Shutdown(ctx)
		}

		s.closeStores()
		Logger.Infof("RPC Server stopped")
	})
	return err
}

func (s *RPCServer) closeStores() {
	s.shards.Range(func(id uint64, shard serverShard) bool {
		if err := shard.Store.Close(); err != nil {
			Logger.Warningf("failed to close store of shard %d: %v", id, err)
		}
		return true
	})
	s.shards.Clear()
}
