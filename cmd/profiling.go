package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spiffcs/recap/internal/log"
)

// Profiler writes the CPU profile, heap profile and execution trace
// requested by --cpuprofile, --memprofile and --trace.
type Profiler struct {
	cpuPath   string
	memPath   string
	tracePath string

	stops []func() error // run in reverse order by Stop
}

// NewProfiler creates a profiler for the paths set in opts. Empty paths
// disable the corresponding profile.
func NewProfiler(opts *Options) *Profiler {
	return &Profiler{
		cpuPath:   opts.CPUProfile,
		memPath:   opts.MemProfile,
		tracePath: opts.Trace,
	}
}

// Start begins CPU profiling and tracing. On failure anything already
// started is stopped again.
func (p *Profiler) Start() error {
	if p.cpuPath != "" {
		if err := p.start(p.cpuPath, "CPU profile", pprof.StartCPUProfile, pprof.StopCPUProfile); err != nil {
			return err
		}
	}
	if p.tracePath != "" {
		if err := p.start(p.tracePath, "trace", trace.Start, trace.Stop); err != nil {
			_ = p.unwind()
			return err
		}
	}
	return nil
}

func (p *Profiler) start(path, what string, begin func(w io.Writer) error, end func()) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", what, err)
	}
	if err := begin(f); err != nil {
		f.Close()
		return fmt.Errorf("could not start %s: %w", what, err)
	}
	p.stops = append(p.stops, func() error {
		end()
		return f.Close()
	})
	return nil
}

// Stop ends profiling and writes the heap profile. Failures are logged.
func (p *Profiler) Stop() {
	errs := []error{p.unwind()}
	if p.memPath != "" {
		errs = append(errs, writeHeapProfile(p.memPath))
		p.memPath = ""
	}

	if err := errors.Join(errs...); err != nil {
		log.Warn("profiling output incomplete", "error", err)
	}
}

func (p *Profiler) unwind() error {
	var errs []error
	for i := len(p.stops) - 1; i >= 0; i-- {
		errs = append(errs, p.stops[i]())
	}
	p.stops = nil
	return errors.Join(errs...)
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return f.Close()
}
