// Package host defines the narrow contract the scheduling core requires
// from its embedder: a monotonic clock, a way to wake a blocked checker
// thread, and a pool that can run callbacks (possibly after a delay).
//
// None of the timer, scheduler, or trace packages in this module spawn
// goroutines of their own to drive time; they are handed a Host (or just
// the sub-interface they need) and trust it. [NewRealHost] is a
// reference implementation good enough for tests, examples, and small
// programs; production embedders typically already have an equivalent
// (an event loop, a thread pool) and should implement the interfaces
// directly against it instead of wrapping this one.
package host
