// Package testing provides test utilities and helpers for reach observers.
package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/reach"
)

// Delivery is a single event as seen by a Recorder, including the observer
// state visible while the listener ran.
type Delivery struct {
	Event      reach.Event
	LastStatus reach.Status
	LossDate   time.Time
	Lost       bool
}

// Recorder is a reach.Listener that records every delivery.
type Recorder struct {
	mu         sync.Mutex
	deliveries []Delivery
}

// Compile time check for interface compliance.
var _ reach.Listener = (*Recorder)(nil)

// OnEvent implements reach.Listener.
func (r *Recorder) OnEvent(_ context.Context, event reach.Event, source *reach.Observer) {
	lossDate, lost := source.ConnectionLossDate()
	d := Delivery{
		Event:      event,
		LastStatus: source.LastStatus(),
		LossDate:   lossDate,
		Lost:       lost,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
}

// Deliveries returns a copy of everything recorded so far.
func (r *Recorder) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Delivery, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

// Events returns the recorded event kinds in delivery order.
func (r *Recorder) Events() []reach.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reach.Event, len(r.deliveries))
	for i, d := range r.deliveries {
		out[i] = d.Event
	}
	return out
}

// Len returns the number of recorded deliveries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deliveries)
}

// Reset discards all recorded deliveries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = nil
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForStatus waits until the observer's last status equals expected or timeout occurs.
func WaitForStatus(t *testing.T, o *reach.Observer, expected reach.Status, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return o.LastStatus() == expected
	})
}

// RequireStatus fails the test immediately if the observer's last status is not expected.
func RequireStatus(t *testing.T, o *reach.Observer, expected reach.Status) {
	t.Helper()
	if got := o.LastStatus(); got != expected {
		t.Fatalf("expected status %s, got %s", expected, got)
	}
}

// RequireEvents fails the test if the recorder did not receive exactly the
// expected events in order.
func RequireEvents(t *testing.T, r *Recorder, expected ...reach.Event) {
	t.Helper()
	got := r.Events()
	if len(got) != len(expected) {
		t.Fatalf("expected events %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected events %v, got %v", expected, got)
		}
	}
}

// RequireLossDate fails the test if the observer's loss date presence does
// not match want.
func RequireLossDate(t *testing.T, o *reach.Observer, want bool) time.Time {
	t.Helper()
	date, lost := o.ConnectionLossDate()
	if lost != want {
		t.Fatalf("expected loss date present=%t, got present=%t (%v)", want, lost, date)
	}
	return date
}

// NewTestObserver creates an observer over a ManualReachability with a
// Recorder attached, starts it, and closes it when the test ends.
// Returns the observer, the source for driving status changes, and the recorder.
func NewTestObserver(t *testing.T, initial reach.Status, opts ...reach.Option) (*reach.Observer, *reach.ManualReachability, *Recorder) {
	t.Helper()
	source := reach.NewManualReachability(initial)
	rec := &Recorder{}

	opts = append([]reach.Option{reach.WithListener(rec)}, opts...)
	o := reach.New(source, opts...)
	if err := o.StartProducingEvents(context.Background()); err != nil {
		t.Fatalf("StartProducingEvents() error = %v", err)
	}
	t.Cleanup(func() {
		if err := o.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return o, source, rec
}
