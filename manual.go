package reach

import "sync"

// ManualReachability is a Reachability whose status is set by the caller.
// Useful for testing and for hosts that already learn connectivity from
// somewhere else, such as a platform callback.
type ManualReachability struct {
	mu        sync.Mutex
	status    Status
	callbacks []registration
	nextID    uint64
	running   bool
	starts    int
	stops     int
	startErr  error

	// serialises callback dispatch so callbacks never overlap
	dispatch sync.Mutex
}

type registration struct {
	id uint64
	fn func()
}

// Compile time check for interface compliance.
var _ Reachability = (*ManualReachability)(nil)

// NewManualReachability creates a ManualReachability reporting the initial status.
func NewManualReachability(initial Status) *ManualReachability {
	return &ManualReachability{status: initial}
}

// CurrentStatus returns the last status passed to Set.
func (m *ManualReachability) CurrentStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Register adds a callback fired by Set and Notify while the notifier runs.
func (m *ManualReachability) Register(fn func()) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.callbacks = append(m.callbacks, registration{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, r := range m.callbacks {
				if r.id == id {
					m.callbacks = append(m.callbacks[:i], m.callbacks[i+1:]...)
					return
				}
			}
		})
	}
}

// StartNotifier marks the notifier as running. If FailStart was called, the
// configured error is returned once and the notifier stays stopped.
func (m *ManualReachability) StartNotifier() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.startErr; err != nil {
		m.startErr = nil
		return err
	}
	if m.running {
		return nil
	}
	m.running = true
	m.starts++
	return nil
}

// StopNotifier marks the notifier as stopped.
func (m *ManualReachability) StopNotifier() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	m.stops++
	return nil
}

// Set stores a new status and, if the notifier is running, fires every
// registered callback synchronously.
func (m *ManualReachability) Set(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()

	m.Notify()
}

// Notify fires registered callbacks without changing the status, simulating
// a spurious wake signal from the platform. Callbacks must not call Set or
// Notify themselves.
func (m *ManualReachability) Notify() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	fns := make([]func(), len(m.callbacks))
	for i, r := range m.callbacks {
		fns[i] = r.fn
	}
	m.mu.Unlock()

	m.dispatch.Lock()
	defer m.dispatch.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// FailStart makes the next StartNotifier call return err.
func (m *ManualReachability) FailStart(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// Registrations returns the number of active callback registrations.
func (m *ManualReachability) Registrations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.callbacks)
}

// NotifierRunning reports whether StartNotifier has been called without a
// matching StopNotifier.
func (m *ManualReachability) NotifierRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// NotifierStarts returns how many times the notifier transitioned to running.
func (m *ManualReachability) NotifierStarts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// NotifierStops returns how many times the notifier transitioned to stopped.
func (m *ManualReachability) NotifierStops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}
