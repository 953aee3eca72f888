package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProfilerWritesTraceAndHeap(t *testing.T) {
	dir := t.TempDir()
	opts := NewOptions(
		WithTrace(filepath.Join(dir, "trace.out")),
		WithMemProfile(filepath.Join(dir, "mem.prof")),
	)

	p := NewProfiler(opts)
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	p.Stop()

	for _, name := range []string{"trace.out", "mem.prof"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestProfilerDisabled(t *testing.T) {
	p := NewProfiler(NewOptions())
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(p.stops) != 0 {
		t.Errorf("stops = %d, want 0", len(p.stops))
	}
	p.Stop()
}

func TestProfilerStartError(t *testing.T) {
	opts := NewOptions(WithTrace(filepath.Join(t.TempDir(), "missing", "trace.out")))

	err := NewProfiler(opts).Start()
	if err == nil || !strings.Contains(err.Error(), "could not create trace") {
		t.Errorf("Start() error = %v, want create failure", err)
	}
}
