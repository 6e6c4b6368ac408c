// Package worker drives ingestion cycles on a fixed interval until its
// context is cancelled.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"sync"
	"time"

	"partforge/internal/ingest"
	"partforge/internal/metrics"
)

// State of the run loop.
type State int

const (
	Idle State = iota
	Running
	Backoff
	ShuttingDown
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Backoff:
		return "backoff"
	case ShuttingDown:
		return "shutting_down"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Cycle is one unit of ingestion work.
type Cycle interface {
	Run(ctx context.Context) (*ingest.Report, error)
}

// CycleFunc adapts a function to Cycle.
type CycleFunc func(ctx context.Context) (*ingest.Report, error)

func (f CycleFunc) Run(ctx context.Context) (*ingest.Report, error) {
	return f(ctx)
}

type Options struct {
	Interval       time.Duration
	BackoffCeiling time.Duration
}

// Status is a point-in-time view of the worker.
type Status struct {
	State      State          `json:"state"`
	Cycles     int            `json:"cycles"`
	Failures   int            `json:"failures"`
	LastReport *ingest.Report `json:"last_report,omitempty"`
	LastError  string         `json:"last_error,omitempty"`
	LastRunAt  *time.Time     `json:"last_run_at,omitempty"`
	NextRunAt  *time.Time     `json:"next_run_at,omitempty"`
}

type Worker struct {
	cycle Cycle
	opts  Options

	mu     sync.RWMutex
	status Status
}

func New(cycle Cycle, opts Options) (*Worker, error) {
	if cycle == nil {
		return nil, errors.New("worker: cycle is required")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("worker: interval must be positive, got %s", opts.Interval)
	}
	if opts.BackoffCeiling <= 0 {
		return nil, fmt.Errorf("worker: backoff ceiling must be positive, got %s", opts.BackoffCeiling)
	}
	w := &Worker{cycle: cycle, opts: opts}
	w.setState(Idle)
	return w, nil
}

func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status.State
}

// Status returns a copy of the current status.
func (w *Worker) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.status
	if s.LastReport != nil {
		r := *s.LastReport
		r.PerCategory = maps.Clone(s.LastReport.PerCategory)
		s.LastReport = &r
	}
	return s
}

// Run loops until ctx is cancelled and returns nil on a clean stop. Cycle
// failures are logged and retried after the backoff delay; they never end
// the loop. A cycle in flight is not interrupted by cancellation.
func (w *Worker) Run(ctx context.Context) error {
	log.Printf("[worker] Started (interval=%s, backoff=%s)", w.opts.Interval, w.opts.BackoffCeiling)

	for ctx.Err() == nil {
		w.setState(Running)
		started := time.Now()

		report, err := w.cycle.Run(context.WithoutCancel(ctx))
		elapsed := time.Since(started)
		metrics.RecordCycle(err, elapsed)
		w.finish(report, err, started)

		var delay time.Duration
		if err != nil {
			delay = w.opts.BackoffCeiling
			if w.opts.Interval < delay {
				delay = w.opts.Interval
			}
			log.Printf("[worker] Cycle failed after %s: %v (retrying in %s)", elapsed.Round(time.Millisecond), err, delay)
			w.setState(Backoff)
		} else {
			delay = w.opts.Interval - elapsed
			w.setState(Idle)
		}

		if delay <= 0 {
			continue
		}
		w.setNextRun(time.Now().Add(delay))
		if !sleep(ctx, delay) {
			break
		}
	}

	w.setState(ShuttingDown)
	log.Printf("[worker] Shutting down")
	w.setState(Stopped)
	return nil
}

// sleep waits for d or until ctx is done. It reports whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *Worker) finish(report *ingest.Report, err error, started time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.Cycles++
	w.status.LastRunAt = &started
	w.status.NextRunAt = nil
	if err != nil {
		w.status.Failures++
		w.status.LastError = err.Error()
		return
	}
	w.status.LastError = ""
	if report != nil {
		w.status.LastReport = report
	}
}

func (w *Worker) setNextRun(at time.Time) {
	w.mu.Lock()
	w.status.NextRunAt = &at
	w.mu.Unlock()
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.status.State = s
	w.mu.Unlock()
	metrics.SetWorkerState(int(s))
}
