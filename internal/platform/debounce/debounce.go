// Package debounce delays a rapidly changing value until it has been quiet
// for a fixed window.
package debounce

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The default uses time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Debouncer.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock replaces the clock used to schedule deliveries.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// Debouncer holds a single pending value. Every Update cancels the
// scheduled delivery and starts the window again, so only the last value
// of a burst reaches deliver.
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   Clock
	window  time.Duration
	deliver func(T)

	timer   Timer
	gen     uint64
	pending T
	armed   bool
	stopped bool
}

// New creates a debouncer that calls deliver once window has elapsed
// without a new Update.
func New[T any](window time.Duration, deliver func(T), opts ...Option) *Debouncer[T] {
	o := options{clock: systemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{
		clock:   o.clock,
		window:  window,
		deliver: deliver,
	}
}

// Update replaces the pending value and restarts the window.
func (d *Debouncer[T]) Update(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = v
	d.armed = true
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

// Pending reports whether a value is waiting for its window to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Flush delivers the pending value immediately, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	v := d.pending
	d.armed = false
	d.mu.Unlock()

	d.deliver(v)
}

// Stop drops the pending value and ignores further updates.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.armed = false
	d.stopped = true
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// A timer that lost the race with Stop still runs; the generation
	// tells it apart from the live one.
	if gen != d.gen || !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.mu.Unlock()

	d.deliver(v)
}
