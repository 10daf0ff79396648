package client

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dTodo/lib/worker"
	"github.com/ValentinKolb/dTodo/rpc/common"
	"github.com/ValentinKolb/dTodo/rpc/serializer"
	"github.com/ValentinKolb/dTodo/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

// ITodoClient is the remote view of a dTodo server.
type ITodoClient interface {
	// Post appends an entry to the list of key. It returns once the server queued it.
	Post(key, date, title string) error
	// Get returns the entries of key dated date.
	Get(key, date string) ([]common.Entry, error)
	// Flush waits until everything posted to key is persisted.
	Flush(key string) error
	// Crash makes the worker of key fail.
	Crash(key string) error
	// Stop terminates the worker of key normally. existed is false if it had none.
	Stop(key string) (existed bool, err error)
	// Status returns the bookkeeping of the worker of key. ok is false if it has none.
	Status(key string) (status worker.Status, ok bool, err error)
	// ServerStatus returns the registry and store statistics as raw json.
	ServerStatus() (json.RawMessage, error)
	// Keys returns the keys with a live worker.
	Keys() ([]string, error)
	// Requests returns how many requests of each message type this client sent.
	Requests() map[string]int64
	// Close releases the transport.
	Close() error
}

// NewRPCTodoClient connects transport and returns a client using serializer.
func NewRPCTodoClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (ITodoClient, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}
	return &rpcTodoClient{
		config:     config,
		transport:  transport,
		serializer: serializer,
		requests:   xsync.NewMapOf[string, *xsync.Counter](),
	}, nil
}

type rpcTodoClient struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
	requests   *xsync.MapOf[string, *xsync.Counter]
}

func (c *rpcTodoClient) invoke(req *common.Message) (*common.Message, error) {
	counter, _ := c.requests.LoadOrCompute(req.MsgType.String(), func() *xsync.Counter {
		return xsync.NewCounter()
	})
	counter.Inc()
	return invokeRPCRequest(req, c.transport, c.serializer)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see ITodoClient)
// --------------------------------------------------------------------------

func (c *rpcTodoClient) Post(key, date, title string) error {
	_, err := c.invoke(common.NewPostRequest(key, date, title))
	return err
}

func (c *rpcTodoClient) Get(key, date string) ([]common.Entry, error) {
	resp, err := c.invoke(common.NewGetRequest(key, date))
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *rpcTodoClient) Flush(key string) error {
	_, err := c.invoke(common.NewFlushRequest(key))
	return err
}

func (c *rpcTodoClient) Crash(key string) error {
	_, err := c.invoke(common.NewCrashRequest(key))
	return err
}

func (c *rpcTodoClient) Stop(key string) (bool, error) {
	resp, err := c.invoke(common.NewStopRequest(key))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (c *rpcTodoClient) Status(key string) (worker.Status, bool, error) {
	if key == "" {
		return worker.Status{}, false, fmt.Errorf("status needs a key, use ServerStatus for the server")
	}
	resp, err := c.invoke(common.NewStatusRequest(key))
	if err != nil || !resp.Ok {
		return worker.Status{}, false, err
	}
	var status worker.Status
	if err := json.Unmarshal(resp.Value, &status); err != nil {
		return worker.Status{}, false, fmt.Errorf("RPC client - invalid status: %w", err)
	}
	return status, true, nil
}

func (c *rpcTodoClient) ServerStatus() (json.RawMessage, error) {
	resp, err := c.invoke(common.NewStatusRequest(""))
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

func (c *rpcTodoClient) Keys() ([]string, error) {
	resp, err := c.invoke(common.NewKeysRequest())
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (c *rpcTodoClient) Requests() map[string]int64 {
	result := make(map[string]int64)
	c.requests.Range(func(msgType string, counter *xsync.Counter) bool {
		result[msgType] = counter.Value()
		return true
	})
	return result
}

func (c *rpcTodoClient) Close() error {
	return c.transport.Close()
}
