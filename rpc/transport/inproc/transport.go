package inproc

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

var (
	ErrEndpointInUse   = errors.New("endpoint already in use")
	ErrUnknownEndpoint = errors.New("no server listening on endpoint")
)

// pollInterval is the interval in which Connect looks for a server that is not listening yet
const pollInterval = 10 * time.Millisecond

// registry maps endpoint names to listening servers of this process
var registry = xsync.NewMapOf[string, *serverTransport]()

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

type serverTransport struct {
	handler transport.ServerHandleFunc
	stop    chan struct{}
	once    sync.Once
}

// NewInprocServerTransport creates a server transport that is reachable from clients of the same process
func NewInprocServerTransport() transport.IRPCServerTransport {
	return &serverTransport{stop: make(chan struct{})}
}

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	endpoint := config.Transport.Endpoint

	if _, loaded := registry.LoadOrStore(endpoint, t); loaded {
		return fmt.Errorf("%w: %s", ErrEndpointInUse, endpoint)
	}
	Logger.Infof("Starting in-process server on %s", endpoint)

	<-t.stop
	registry.Compute(endpoint, func(current *serverTransport, loaded bool) (*serverTransport, bool) {
		// only remove our own registration
		return current, !loaded || current == t
	})
	return nil
}

func (t *serverTransport) Close() error {
	t.once.Do(func() {
		close(t.stop)
	})
	return nil
}

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

type clientTransport struct {
	endpoints []string
	counter   uint32
	closed    atomic.Bool
}

// NewInprocClientTransport creates a client transport that talks to servers of the same process
func NewInprocClientTransport() transport.IRPCClientTransport {
	return &clientTransport{}
}

// Connect waits up to TimeoutSecond for all endpoints to be served
func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	deadline := time.Now().Add(time.Duration(config.TimeoutSecond) * time.Second)
	for _, endpoint := range config.Transport.Endpoints {
		for {
			if _, ok := registry.Load(endpoint); ok {
				break
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
			}
			time.Sleep(pollInterval)
		}
	}

	t.endpoints = config.Transport.Endpoints
	t.closed.Store(false)
	return nil
}

func (t *clientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	if t.closed.Load() || len(t.endpoints) == 0 {
		return nil, fmt.Errorf("in-process transport not connected")
	}

	idx := atomic.AddUint32(&t.counter, 1) % uint32(len(t.endpoints))
	endpoint := t.endpoints[idx]

	server, ok := registry.Load(endpoint)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}

	// both sides own their buffers, as with a real connection
	resp := server.handler(shardId, append([]byte(nil), req...))
	return append([]byte(nil), resp...), nil
}

func (t *clientTransport) Close() error {
	t.closed.Store(true)
	return nil
}
