package ztrace

import (
	"reflect"
	"sync"
	"time"

	"github.com/joeycumines/go-rpcsched/host"
	"github.com/joeycumines/go-rpcsched/internal/grpclog"
)

// EventData is implemented by every event type a Collector can capture.
// AppendJSONFields appends the event's fields — no surrounding braces,
// no trailing comma — to dst, ready to be embedded alongside the
// collector's own timestamp field.
type EventData interface {
	AppendJSONFields(dst []byte) []byte
}

// Config is supplied per Run call. Finishes is evaluated once per
// Append, after the event has been recorded, against the running total
// of events captured across every type; it reports whether the
// instance should complete now rather than wait for its deadline.
type Config interface {
	Finishes(total int) bool
}

type timestamped struct {
	ts int64
	ev EventData
}

// Instance is one in-flight registration against a Collector, created
// by Run. Its data is only ever mutated while the owning Collector's
// mutex is held.
type Instance struct {
	config   Config
	host     host.Host
	handle   host.Handle
	callback func(Result)

	data  [][]timestamped // indexed by the collector's kind order
	total int
}

// Result is delivered to a Run call's callback exactly once.
type Result struct {
	DeadlineExceeded bool
	JSON             []byte
}

// Collector is the shared fabric multiple producers append to and
// multiple Run calls register against. The zero value is not usable;
// construct with New.
type Collector struct {
	mu        sync.Mutex
	kindOrder []reflect.Type
	kindIndex map[reflect.Type]int
	instances map[*Instance]struct{}
}

// New constructs an empty Collector.
func New() *Collector {
	return &Collector{
		kindIndex: make(map[reflect.Type]int),
		instances: make(map[*Instance]struct{}),
	}
}

func (c *Collector) kindIndexForLocked(t reflect.Type) int {
	if idx, ok := c.kindIndex[t]; ok {
		return idx
	}
	idx := len(c.kindOrder)
	c.kindOrder = append(c.kindOrder, t)
	c.kindIndex[t] = idx
	return idx
}

// Append records one event against every live instance, first invoking
// producer to obtain it. producer is only called if at least one
// instance is live, so callers may pass an expensive or allocation-heavy
// producer without paying its cost absent a listener.
func Append[T EventData](c *Collector, producer func() T) {
	c.mu.Lock()
	if len(c.instances) == 0 {
		c.mu.Unlock()
		return
	}

	value := producer()
	ts := time.Now().UnixNano()
	idx := c.kindIndexForLocked(reflect.TypeOf(value))

	var finished []*Instance
	for inst := range c.instances {
		for len(inst.data) <= idx {
			inst.data = append(inst.data, nil)
		}
		inst.data[idx] = append(inst.data[idx], timestamped{ts: ts, ev: value})
		inst.total++
		if inst.config.Finishes(inst.total) {
			finished = append(finished, inst)
		}
	}
	for _, inst := range finished {
		delete(c.instances, inst)
	}
	kinds := len(c.kindOrder)
	c.mu.Unlock()

	for _, inst := range finished {
		inst.host.Cancel(inst.handle)
		inst.finishOK(kinds)
	}
}

// Run registers a new instance with the given deadline: it completes
// either when cfg.Finishes reports true after some Append, or when
// delay elapses, whichever happens first. callback runs on h's worker
// pool, never under the Collector's lock.
func (c *Collector) Run(delay time.Duration, cfg Config, h host.Host, callback func(Result)) *Instance {
	inst := &Instance{config: cfg, host: h, callback: callback}

	c.mu.Lock()
	inst.handle = h.RunAfter(delay, func() {
		c.mu.Lock()
		_, live := c.instances[inst]
		if live {
			delete(c.instances, inst)
		}
		c.mu.Unlock()
		if live {
			inst.finishDeadlineExceeded()
		}
	})
	c.instances[inst] = struct{}{}
	c.mu.Unlock()

	return inst
}

func (inst *Instance) finishDeadlineExceeded() {
	grpclog.Debug("ztrace", "instance finished by deadline before its Config completed",
		grpclog.Field{Key: "events_captured", Value: inst.total},
	)
	inst.host.Run(func() {
		inst.callback(Result{DeadlineExceeded: true, JSON: []byte("[]")})
	})
}

func (inst *Instance) finishOK(kindCount int) {
	data := inst.data
	inst.host.Run(func() {
		inst.callback(Result{JSON: renderJSON(data, kindCount)})
	})
}

// renderJSON emits a JSON array: groups by type in the order each type
// was first appended to the collector, each group in insertion order, every element carrying a "timestamp"
// field plus the event's own fields.
func renderJSON(data [][]timestamped, kindCount int) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, '[')
	first := true
	for i := 0; i < kindCount && i < len(data); i++ {
		for _, te := range data[i] {
			if !first {
				buf = append(buf, ',')
			}
			first = false
			buf = append(buf, `{"timestamp":`...)
			buf = appendInt64(buf, te.ts)
			buf = append(buf, ',')
			buf = te.ev.AppendJSONFields(buf)
			buf = append(buf, '}')
		}
	}
	buf = append(buf, ']')
	return buf
}

func appendInt64(dst []byte, v int64) []byte {
	if v == 0 {
		return append(dst, '0')
	}
	if v < 0 {
		dst = append(dst, '-')
		v = -v
	}
	start := len(dst)
	for v > 0 {
		dst = append(dst, byte('0'+v%10))
		v /= 10
	}
	for i, j := start, len(dst)-1; i < j; i, j = i+1, j-1 {
		dst[i], dst[j] = dst[j], dst[i]
	}
	return dst
}
