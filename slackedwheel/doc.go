// Package slackedwheel implements a coarse, bucketed timer service for
// populations of timers that tolerate rounding up to a fixed resolution
// (keepalives, deferred cleanup). Unlike timerwheel, deadlines are
// rounded up to the next multiple of the wheel's resolution and grouped
// into buckets keyed by that tick index; an entire bucket fires
// together, trading precision for O(1) cancellation and much smaller
// per-timer bookkeeping.
package slackedwheel
