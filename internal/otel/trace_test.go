package otel

import "testing"

func TestTraceFromEnv(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"0", false},
		{" false ", false},
		{"OFF", false},
		{"no", false},
		{"1", true},
		{"true", true},
		{"verbose", true},
	}
	for _, tt := range tests {
		if got := traceFromEnv(tt.in); got != tt.want {
			t.Errorf("traceFromEnv(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetTrace(t *testing.T) {
	orig := TraceEnabled()
	t.Cleanup(func() { SetTrace(orig) })

	SetTrace(true)
	if !TraceEnabled() {
		t.Error("tracing should be on after SetTrace(true)")
	}
	SetTrace(false)
	if TraceEnabled() {
		t.Error("tracing should be off after SetTrace(false)")
	}
}
