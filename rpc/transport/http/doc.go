// Package http implements the HTTP transport for RPC communication between dTodo
// clients and servers.
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport. Serialized requests are
//     posted to <endpoint>/rpc. Each attempt picks the next endpoint round-robin,
//     failed attempts are retried up to RetryCount times.
//
//   - httpServerTransport: Implements IRPCServerTransport with a net/http server.
//     POST /rpc is passed to the registered handler, other routes can be mounted
//     before Listen. With log level debug every request is logged.
//
// Thread Safety:
//
//	The client transport is thread-safe and can be used concurrently. It uses
//	atomic operations for the round-robin counter to ensure thread safety when
//	selecting server endpoints.
package http
