// Package internal contains the topo request-processing core: the route
// table, the application dispatcher, the request Context, and the session
// manager.
//
// One request moves through a fixed sequence. The dispatcher wraps the
// transport writer in a buffer, resolves the route (first structural match
// in registration order), runs global then route middleware, invokes the
// handler, and commits the buffered response exactly once. Any failure —
// from middleware, the handler, or routing — funnels through a single error
// boundary that decides its wire form; partial output from a failed handler
// is discarded, and the dirty session is flushed to its store right before
// the first byte is written.
//
// The public API is re-exported by the root topo package; applications
// should not import this package directly.
package internal
