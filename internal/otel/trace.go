package otel

import (
	"os"
	"strings"
	"sync/atomic"
)

// traceEnabled starts from SKYDECK_TRACE; `skydeck --trace` turns it on.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(traceFromEnv(os.Getenv("SKYDECK_TRACE")))
}

func traceFromEnv(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// TraceEnabled reports whether the dashboard emits a trace.msg_received
// event per tea message.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// SetTrace turns message tracing on or off.
func SetTrace(on bool) {
	traceEnabled.Store(on)
}
