// Package rpc is the communication layer between dTodo clients and servers.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, error codes, configuration structures, and logging.
//
//   - transport: Network communication abstractions, implemented over HTTP.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: The todo client, allowing applications to use a remote server
//     with the same error semantics as the local worker handles.
//
//   - server: The server wiring storage backend, store, registry and transport,
//     plus the REST api.
package rpc
