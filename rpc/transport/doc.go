// Package transport defines the interfaces for RPC communication between dTodo
// clients and servers. Serialized messages are opaque to the transport.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and passes them to the registered handler. Additional
//     routes (the REST api, health and metrics) are mounted on the same listener.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
//
// The only implementation lives in the http sub package.
package transport
