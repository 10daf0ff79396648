// Package client implements the RPC client of dTodo. ITodoClient forwards every
// operation to a server via the configured transport and serializer.
//
// Errors returned by the server are rebuilt from the response, so callers can
// test them with errors.Is against actor.ErrStopped, actor.ErrTimeout,
// store.ErrCorruptSnapshot and the other sentinels.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Endpoints:     []string{"localhost:8080"},
//	  TimeoutSecond: 5,
//	  RetryCount:    3,
//	}
//
//	c, err := client.NewRPCTodoClient(config, http.NewHttpClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer c.Close()
//
//	_ = c.Post("alice", "2024-03-01", "buy milk")
//	entries, _ := c.Get("alice", "2024-03-01")
//
// Thread Safety:
//
//	Clients are safe for concurrent use, the perf command shares one client
//	between all its goroutines.
package client
