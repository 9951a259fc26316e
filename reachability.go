package reach

import "time"

// Reachability reports the current connectivity class and signals when it
// may have changed. Signals are wake-ups only: an Observer always re-queries
// CurrentStatus rather than trusting anything delivered with a signal.
type Reachability interface {
	// CurrentStatus synchronously reports the connectivity class right now.
	CurrentStatus() Status

	// Register arranges for fn to be called whenever the status may have
	// changed while the notifier is running. The returned function removes
	// the registration and is safe to call more than once.
	//
	// Implementations must not invoke registered callbacks concurrently
	// with each other, including across a stop and restart of the notifier.
	Register(fn func()) (unregister func())

	// StartNotifier begins active monitoring. Calling it while already
	// running is a no-op.
	StartNotifier() error

	// StopNotifier ends active monitoring. Calling it while stopped is a no-op.
	// It must not wait for an in-flight callback to return, since callbacks
	// may themselves stop the notifier.
	StopNotifier() error
}

// SourceError records a failure inside a Reachability source, such as a wake
// path that could not be watched. Sources keep a bounded history of these.
type SourceError struct {
	// At is when the failure was observed, from the source's clock.
	At time.Time

	// Op names what the source was doing, such as "watch" or "list".
	Op string

	// Path is the file, directory or interface involved, if any.
	Path string

	Err error
}

func (e SourceError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e SourceError) Unwrap() error {
	return e.Err
}
