// Package cmd implements the command-line interface of dTodo. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starting and configuring the dTodo server
//   - todo: Client commands (post, get, flush, crash, stop, status, keys, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as environment variable DTODO_<FLAG> (e.g.
// DTODO_LOG_LEVEL=debug), .env and .env.local are loaded on start.
//
// See dtodo -help for a list of all commands.
package cmd
