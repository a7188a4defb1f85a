package field

import (
	"bytes"
	"strings"
	"testing"
)

// TestSetLogWriters tests configuring the three logging streams
func TestSetLogWriters(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var ops, diag, trace bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag, Trace: &trace})

	Opsf("ops message: %d", 1)
	Diagf("diag message: %d", 2)
	Tracef("trace message: %d", 3)

	if !strings.Contains(ops.String(), "ops message: 1") {
		t.Errorf("ops output = %q, want to contain 'ops message: 1'", ops.String())
	}
	if !strings.Contains(diag.String(), "diag message: 2") {
		t.Errorf("diag output = %q, want to contain 'diag message: 2'", diag.String())
	}
	if !strings.Contains(trace.String(), "trace message: 3") {
		t.Errorf("trace output = %q, want to contain 'trace message: 3'", trace.String())
	}

	// Each stream carries the package prefix
	if !strings.Contains(ops.String(), "[field] ") {
		t.Errorf("ops output = %q, want '[field] ' prefix", ops.String())
	}
}

// TestLogWriters_NilStreams tests that nil writers disable their streams without panicking
func TestLogWriters_NilStreams(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var diag bytes.Buffer
	SetLogWriters(LogWriters{Diag: &diag})

	// Ops and Trace are disabled; these must not panic
	Opsf("dropped: %s", "ops")
	Tracef("dropped: %s", "trace")
	Diagf("kept")

	if !strings.Contains(diag.String(), "kept") {
		t.Errorf("diag output = %q, want to contain 'kept'", diag.String())
	}
}

// TestLogWriters_ThreadSafety tests concurrent logging through one stream.
// A single *log.Logger serialises its own writes, so sharing a buffer is safe.
func TestLogWriters_ThreadSafety(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var buf bytes.Buffer
	SetLogWriters(LogWriters{Ops: &buf})

	done := make(chan bool)
	for i := 0; i < 8; i++ {
		go func(id int) {
			for j := 0; j < 25; j++ {
				Opsf("goroutine %d message %d", id, j)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	if buf.Len() == 0 {
		t.Error("expected log output from concurrent goroutines, got none")
	}
}
