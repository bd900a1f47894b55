package client

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var (
	Logger = logger.GetLogger("rpc")

	// Registry collects the request timers (rpc.<type>.latency) and
	// error meters (rpc.<type>.errors) of all RPC clients of this process
	Registry = gometrics.NewRegistry()
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invoke sends a request and records its latency and errors in the Registry
func (a *rpcClientAdapter) invoke(req *common.Message) (*common.Message, error) {
	start := time.Now()
	resp, err := invokeRPCRequest(a.shardId, req, a.transport, a.serializer)

	name := req.MsgType.String()
	gometrics.GetOrRegisterTimer("rpc."+name+".latency", Registry).UpdateSince(start)
	if err != nil {
		gometrics.GetOrRegisterMeter("rpc."+name+".errors", Registry).Mark(1)
	}
	return resp, err
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a shard ID, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// This method also checks if the response is an error response and if the type of the response is the expected type
func invokeRPCRequest(shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	respBytes, err := transport.Send(shardId, reqBytes)
	if err != nil {
		return nil, err
	}

	resp := &common.Message{}
	if err := serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("rpc client: could not decode response: %w", err)
	}

	// Check if the response is an error response
	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, responseError(resp)
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("rpc client: unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	return resp, nil
}

// responseError rebuilds the error of a response. Store errors carry their code in Meta.
func responseError(resp *common.Message) error {
	if len(resp.Meta) == 1 {
		return store.NewError(store.RetCode(resp.Meta[0]), resp.Err)
	}
	return fmt.Errorf("rpc client: %s", resp.Err)
}
