package catalog

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultQuietPeriod is how long input must pause before a query runs.
const DefaultQuietPeriod = 500 * time.Millisecond

type timer interface {
	Stop() bool
}

// Debouncer coalesces bursts of search input into one call of run, made with
// the last text once input has paused for the quiet period.
//
// At most one task is pending. Input replaces it; Cancel drops it. A task
// that was replaced or cancelled never calls run, even if its timer already
// fired and is waiting on the lock.
type Debouncer struct {
	quiet     time.Duration
	run       func(text string)
	logger    *slog.Logger
	afterFunc func(time.Duration, func()) timer

	mu      sync.Mutex
	pending timer
	gen     uint64
}

// NewDebouncer creates a Debouncer. quiet <= 0 uses DefaultQuietPeriod.
func NewDebouncer(quiet time.Duration, run func(text string), logger *slog.Logger) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Debouncer{
		quiet:  quiet,
		run:    run,
		logger: logger,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
}

// Input records a keystroke: the pending task is cancelled and a new one is
// scheduled for text.
func (d *Debouncer) Input(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
		d.logger.Debug("search superseded")
	}
	d.gen++
	gen := d.gen
	d.pending = d.afterFunc(d.quiet, func() { d.fire(gen, text) })
}

// Cancel drops the pending task, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
		d.logger.Debug("search cancelled")
	}
	d.gen++
}

// Pending reports whether a task is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) fire(gen uint64, text string) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.mu.Unlock()

	d.run(text)
}
