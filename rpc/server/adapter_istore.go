package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	var (
		resp *common.Message
		err  error
	)

	switch req.MsgType {
	case common.MsgTKVSet:
		err = s.Set(req.Key, req.Value)
		resp = common.NewSetResponse(err)
	case common.MsgTKVSetEx:
		err = s.SetEx(req.Key, req.Value, time.Duration(req.TTL)*time.Millisecond)
		resp = common.NewSetExResponse(err)
	case common.MsgTKVGet:
		var (
			val []byte
			ok  bool
		)
		val, ok, err = s.Get(req.Key)
		resp = common.NewGetResponse(val, ok, err)
	case common.MsgTKVDelete:
		var deleted bool
		deleted, err = s.Delete(req.Key)
		resp = common.NewDeleteResponse(deleted, err)
	case common.MsgTKVExpire:
		var applied bool
		applied, err = s.Expire(req.Key, time.Duration(req.TTL)*time.Millisecond, store.ExpireMode(req.Mode))
		resp = common.NewExpireResponse(applied, err)
	case common.MsgTKVExpireAt:
		var applied bool
		applied, err = s.ExpireAt(req.Key, time.UnixMilli(req.At), store.ExpireMode(req.Mode))
		resp = common.NewExpireAtResponse(applied, err)
	case common.MsgTKVTTL:
		var (
			ttl time.Duration
			ok  bool
		)
		ttl, ok, err = s.TTL(req.Key)
		ms := ttl.Milliseconds()
		if ttl == store.NoExpiry {
			ms = -1
		}
		resp = common.NewTTLResponse(ms, ok, err)
	default:
		return common.NewErrorResponse(fmt.Sprintf("unsupported message type: %s", req.MsgType))
	}

	// store errors keep their code on the wire
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		resp.Err = storeErr.Msg
		resp.Meta = []byte{byte(storeErr.Code)}
	}
	return resp
}
