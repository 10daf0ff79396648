// Package common provides the data structures shared by the rpc server, client
// and transports of dTodo.
//
// Key Components:
//
//   - Message: the single structure used for every request and response, with
//     factory functions per operation. Errors travel as text plus an ErrorCode,
//     ErrorFromMessage turns them back into errors matching the actor and store
//     sentinels.
//
//   - ServerConfig / ClientConfig: configuration of server and client, filled from
//     flags, environment and config file by the cmd package.
//
//   - Logger: a zerolog backed implementation of dragonboat's logger.ILogger.
//     All packages obtain their logger with logger.GetLogger(name); InitLoggers
//     installs the factory and SetLogLevel changes the level at runtime.
package common
