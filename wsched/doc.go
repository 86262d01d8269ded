// Package wsched implements the multi-endpoint write scheduler: given an
// outstanding byte count and a set of channels with their own readiness,
// start time, and observed delivery rate, it decides which channel
// should absorb each outgoing message.
//
// A Scheduler is used in three strictly ordered phases each quantum:
// Collect (NewStep, then AddChannel per channel), Plan (MakePlan), and
// Allocate (repeated AllocateMessage calls). Mixing phases out of order
// is a contract violation and panics, matching the source design's
// CHECK/DCHECK-guarded state machine.
package wsched
