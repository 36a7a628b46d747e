// Package server implements the HTTP server and HTTP handlers for
// Cloud Mover, a code-indexed temporary file relay. It wires together
// the HTTP routes, dependencies (record store, blob store, database)
// and provides lifecycle helpers used by tests and the production
// binary.
package server
