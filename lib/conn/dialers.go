package conn

import (
	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/lib/store/bstore"
	"github.com/ValentinKolb/skv/lib/store/lstore"
	"github.com/ValentinKolb/skv/rpc/client"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
	"github.com/ValentinKolb/skv/rpc/transport"
)

// Local returns a dialer for an in-memory store (nil opts = defaults).
func Local(opts *lstore.Options) Dialer {
	return func() (store.IStore, error) {
		return lstore.NewLocalStore(opts), nil
	}
}

// Bolt returns a dialer for a file-backed store.
func Bolt(opts bstore.Options) Dialer {
	return func() (store.IStore, error) {
		return bstore.NewBoltStore(opts)
	}
}

// RPC returns a dialer for a shard of a remote skv server.
func RPC(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) Dialer {
	return func() (store.IStore, error) {
		return client.NewRPCStore(shardId, config, transport, serializer)
	}
}
