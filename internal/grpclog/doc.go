// Package grpclog provides the package-level structured logger shared by
// every component of the scheduling core (timer wheels, the write
// scheduler, the timeout codec, and the Z-Trace collector).
//
// Logging is deliberately a cross-cutting, package-level concern rather
// than something threaded through every constructor: the components in
// this module are instantiated deep inside a transport's hot path, and
// giving each one its own logger option would bloat every constructor's
// surface for a concern none of them actually need to vary per-instance.
package grpclog
