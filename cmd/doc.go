// Package cmd implements the command-line interface for strata. It provides
// a hierarchical command structure with operations for running the server
// and working with a local backend directly.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for primitive key-value, set and sorted-set operations
//   - col: Commands for collection-oriented document operations
//   - serve: Commands for starting and configuring the HTTP server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See strata -help for a list of all commands.
package cmd
