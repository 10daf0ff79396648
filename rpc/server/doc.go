// Package server implements the dTodo server: it builds the storage backend, the
// store and the worker registry from a common.ServerConfig and serves them over a
// transport.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for server adapters, with
//     the Handle method that processes a request message.
//
//   - TodoServerAdapter: Maps post, get, flush, crash, stop, status and keys messages
//     onto registry and worker calls. If a worker terminates while a request is in
//     flight, the key is resolved again and the request replayed once. Errors are
//     returned as Err plus an ErrorCode.
//
//   - REST api: POST /todo, GET /todo/{name}/{date}, DELETE /crash-todo/{name} and
//     POST /flush-todo/{name} go through the same adapter. GET /health and
//     GET /metrics (Prometheus text format) are mounted next to them.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Endpoint:              "0.0.0.0:8080",
//	  Backend:               "file",
//	  DataDir:               "./data",
//	  TimeoutSecond:         5,
//	  ShutdownTimeoutSecond: 10,
//	  LogLevel:              "info",
//	}
//
//	s := server.NewRPCServer(config, http.NewHttpServerTransport(), serializer.NewBinarySerializer())
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Shutdown:
//
//	Serve returns after SIGINT or SIGTERM. The transport stops accepting requests
//	first, then all workers are stopped, then the store drains its queue and closes
//	the backend.
package server
