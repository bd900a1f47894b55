package client

import (
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
	"github.com/ValentinKolb/skv/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a store.IStore and an error
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {

	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Set(key string, value []byte) (err error) {
	_, err = i.invoke(common.NewSetRequest(key, value))
	return err
}

func (i *rpcStore) SetEx(key string, value []byte, ttl time.Duration) (err error) {
	if ttl <= 0 {
		return store.NewError(store.RetCInvalidOperation, "SetEx requires a positive ttl")
	}
	_, err = i.invoke(common.NewSetExRequest(key, value, toMillis(ttl)))
	return err
}

func (i *rpcStore) Get(key string) (value []byte, loaded bool, err error) {
	resp, err := i.invoke(common.NewGetRequest(key))
	if err != nil {
		return nil, false, err
	}
	if resp.Ok && resp.Value == nil {
		// some serializers drop empty values
		resp.Value = []byte{}
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcStore) Delete(key string) (deleted bool, err error) {
	resp, err := i.invoke(common.NewDeleteRequest(key))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) Expire(key string, ttl time.Duration, mode store.ExpireMode) (applied bool, err error) {
	resp, err := i.invoke(common.NewExpireRequest(key, toMillis(ttl), uint8(mode)))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) ExpireAt(key string, at time.Time, mode store.ExpireMode) (applied bool, err error) {
	resp, err := i.invoke(common.NewExpireAtRequest(key, at.UnixMilli(), uint8(mode)))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) TTL(key string) (ttl time.Duration, loaded bool, err error) {
	resp, err := i.invoke(common.NewTTLRequest(key))
	if err != nil {
		return 0, false, err
	}
	if !resp.Ok {
		return 0, false, nil
	}
	if resp.TTL < 0 {
		return store.NoExpiry, true, nil
	}
	return time.Duration(resp.TTL) * time.Millisecond, true, nil
}

// Close closes the transport of the client, the remote store stays open
func (i *rpcStore) Close() error {
	return i.transport.Close()
}

// toMillis converts a duration to milliseconds, rounding positive sub-millisecond values up
// so they do not turn into "expire now"
func toMillis(d time.Duration) int64 {
	ms := d.Milliseconds()
	if d > 0 && ms == 0 {
		return 1
	}
	return ms
}
