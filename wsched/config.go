package wsched

import (
	"strings"

	"github.com/joeycumines/go-rpcsched/internal/grpclog"
)

// Parse builds a Scheduler from its wire configuration string: a
// scheduler name followed by zero or more ":"-separated "key=value"
// options (see the package doc and §4.5.5 option table). An unknown
// scheduler name falls back to spanrr; an unknown key or malformed
// "key=value" segment is logged and otherwise ignored rather than
// failing the whole parse.
func Parse(config string) Scheduler {
	segments := strings.Split(config, ":")
	name := segments[0]

	var sched Scheduler
	switch name {
	case "rand":
		sched = NewRandomChoice()
	case "spanrr":
		sched = NewSpanRR()
	default:
		grpclog.Warn("wsched", "unknown scheduler name, defaulting to spanrr", grpclog.Field{Key: "name", Value: name})
		sched = NewSpanRR()
	}

	for _, segment := range segments[1:] {
		kv := strings.SplitN(segment, "=", 2)
		if len(kv) != 2 {
			grpclog.Warn("wsched", "ignoring malformed scheduler config segment", grpclog.Field{Key: "segment", Value: segment})
			continue
		}
		sched.SetConfig(kv[0], kv[1])
	}
	return sched
}
