// Package cmd implements the command-line interface of serialkv. It provides
// a client for the binary key-value protocol and an in-memory development
// server to run it against.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value operations (get, put, del, keys, perf, etc.)
//   - serve: Command for starting a serialkv development server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See skv -help for a list of all commands.
package cmd
