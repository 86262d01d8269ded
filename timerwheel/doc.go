// Package timerwheel implements the sharded, deadline-ordered timer
// service used for RPC deadlines, keepalives, and retries.
//
// A Wheel assigns each Timer to one of a small number of shards in
// round-robin order (the Timer's address is not hashed), each shard
// guarded by its own mutex, to keep insertion contention off a single
// global lock. Within a shard, only "imminent" timers (deadline below
// the shard's queue_deadline_cap) live in a binary min-heap; everything
// further out sits in an unordered overflow set until a refill sweeps it
// into the heap. An outer, far less contended mutex keeps the shards
// themselves ordered by their own minimum deadline, so Check can find
// the single soonest-firing shard without scanning all of them.
package timerwheel
