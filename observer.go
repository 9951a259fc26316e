package reach

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

var (
	// ErrNotifierStart is returned when the reachability notifier could not
	// be started. The observer is left not listening.
	ErrNotifierStart = errors.New("reachability notifier failed to start")

	// ErrNotifierStop is returned when the reachability notifier could not
	// be stopped. The observer has already unregistered when this is returned.
	ErrNotifierStop = errors.New("reachability notifier failed to stop")
)

// Listener receives semantic connectivity events from an Observer.
//
// OnEvent is called synchronously on the goroutine that delivered the
// reachability notification. While it runs, source.LastStatus reports the
// status before the transition, and for ConnectionLost and
// ConnectionRetrieved source.ConnectionLossDate reports when the outage began.
// ctx is the context passed to StartProducingEvents.
type Listener interface {
	OnEvent(ctx context.Context, event Event, source *Observer)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, event Event, source *Observer)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(ctx context.Context, event Event, source *Observer) {
	f(ctx, event, source)
}

// config holds configuration options for an Observer.
type config struct {
	clock    clockz.Clock
	metrics  MetricsProvider
	listener Listener
}

// Option configures an Observer.
type Option func(*config)

// WithClock sets a custom clock for loss timestamps.
// Use this with clockz.FakeClock for deterministic testing.
func WithClock(clock clockz.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithMetrics sets a metrics provider for observability integration.
func WithMetrics(provider MetricsProvider) Option {
	return func(c *config) {
		c.metrics = provider
	}
}

// WithListener attaches a listener at construction time.
func WithListener(l Listener) Option {
	return func(c *config) {
		c.listener = l
	}
}

// Observer translates reachability notifications into NetworkChanged,
// ConnectionLost and ConnectionRetrieved events for a single listener.
//
// The observer holds the listener without owning it: it never keeps a
// listener alive on its own account, and owners must call RemoveListener
// before discarding one. Call Close (typically deferred) to guarantee the
// notifier registration is released on every exit path.
type Observer struct {
	reachability Reachability
	clock        clockz.Clock
	metrics      MetricsProvider
	source       string

	// lifecycle serialises StartProducingEvents and StopProducingEvents.
	lifecycle sync.Mutex

	// handling serialises notification processing including delivery.
	handling sync.Mutex

	mu         sync.Mutex
	lastStatus Status
	lossDate   time.Time
	lost       bool
	listening  bool
	unregister func()
	listener   Listener
}

// New creates an Observer for the given reachability source.
//
// The current status is read synchronously. If the source is already
// unreachable, the connection loss date is set to the construction time.
// No event is emitted and no notifications are received until
// StartProducingEvents is called.
//
// Example:
//
//	observer := reach.New(
//	    sysfs.New(),
//	    reach.WithListener(reach.ListenerFunc(func(ctx context.Context, e reach.Event, o *reach.Observer) {
//	        player.Post(e)
//	    })),
//	)
//	defer observer.Close()
//
//	if err := observer.StartProducingEvents(ctx); err != nil {
//	    return err
//	}
func New(r Reachability, opts ...Option) *Observer {
	cfg := &config{
		clock:   clockz.RealClock,
		metrics: NoOpMetricsProvider{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	o := &Observer{
		reachability: r,
		clock:        cfg.clock,
		metrics:      cfg.metrics,
		source:       fmt.Sprintf("%T", r),
		listener:     cfg.listener,
	}

	o.mu.Lock()
	o.resync()
	o.mu.Unlock()

	return o
}

// LastStatus returns the status as of the last processed notification.
func (o *Observer) LastStatus() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastStatus
}

// ConnectionLossDate returns when connectivity was lost and true, or the
// zero time and false if the observer does not consider itself offline.
func (o *Observer) ConnectionLossDate() (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lossDate, o.lost
}

// Downtime returns how long connectivity has been lost so far and true,
// or zero and false when reachable.
func (o *Observer) Downtime() (time.Duration, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.lost {
		return 0, false
	}
	return o.clock.Now().Sub(o.lossDate), true
}

// IsListening reports whether the observer is registered for notifications.
func (o *Observer) IsListening() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.listening
}

// Listener returns the attached listener, or nil.
func (o *Observer) Listener() Listener {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.listener
}

// SetListener attaches l, replacing any previous listener.
// Passing nil is equivalent to RemoveListener.
func (o *Observer) SetListener(l Listener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listener = l
}

// RemoveListener detaches the current listener. Events computed afterwards
// are dropped.
func (o *Observer) RemoveListener() {
	o.SetListener(nil)
}

// StartProducingEvents registers for reachability notifications and starts
// the source's notifier. Calling it while already listening is a no-op.
//
// The status is re-read first so that changes which happened while the
// observer was not listening do not produce a stale event later.
//
// ctx scopes the whole listening period: it is handed to every OnEvent and
// signal emitted for notifications. Once it is cancelled, notifications are
// ignored without changing LastStatus until the observer is stopped and
// started again with a live context.
//
// If the notifier cannot be started, the registration is rolled back and an
// error wrapping ErrNotifierStart is returned.
func (o *Observer) StartProducingEvents(ctx context.Context) error {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	o.mu.Lock()
	if o.listening {
		o.mu.Unlock()
		return nil
	}
	o.resync()
	status := o.lastStatus
	o.mu.Unlock()

	unregister := o.reachability.Register(func() {
		o.handle(ctx)
	})

	if err := o.reachability.StartNotifier(); err != nil {
		unregister()
		capitan.Emit(ctx, NotifierFailed,
			KeySource.Field(o.source),
			KeyError.Field(err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrNotifierStart, err)
	}

	o.mu.Lock()
	o.unregister = unregister
	o.listening = true
	o.mu.Unlock()

	capitan.Emit(ctx, ObserverStarted,
		KeySource.Field(o.source),
		KeyStatus.Field(status.String()),
	)

	return nil
}

// StopProducingEvents unregisters from notifications and stops the source's
// notifier. Calling it while not listening is a no-op.
//
// It is safe to call from inside Listener.OnEvent.
func (o *Observer) StopProducingEvents(ctx context.Context) error {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	o.mu.Lock()
	if !o.listening {
		o.mu.Unlock()
		return nil
	}
	unregister := o.unregister
	o.unregister = nil
	o.listening = false
	status := o.lastStatus
	o.mu.Unlock()

	unregister()

	if err := o.reachability.StopNotifier(); err != nil {
		capitan.Emit(ctx, NotifierFailed,
			KeySource.Field(o.source),
			KeyError.Field(err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrNotifierStop, err)
	}

	capitan.Emit(ctx, ObserverStopped,
		KeySource.Field(o.source),
		KeyStatus.Field(status.String()),
	)

	return nil
}

// Close stops producing events if the observer is still listening.
// It implements io.Closer so teardown can be deferred.
func (o *Observer) Close() error {
	return o.StopProducingEvents(context.Background())
}

// resync reads the current status from the source. Must be called with mu held.
// An outage that is still ongoing keeps its original loss date.
func (o *Observer) resync() {
	o.lastStatus = o.reachability.CurrentStatus()
	if o.lastStatus == NotReachable {
		if !o.lost {
			o.lossDate = o.clock.Now()
			o.lost = true
		}
		return
	}
	o.lossDate = time.Time{}
	o.lost = false
}

// handle processes a single wake signal from the reachability source.
func (o *Observer) handle(ctx context.Context) {
	o.handling.Lock()
	defer o.handling.Unlock()

	o.mu.Lock()
	if !o.listening || ctx.Err() != nil {
		o.mu.Unlock()
		return
	}
	oldStatus := o.lastStatus
	newStatus := o.reachability.CurrentStatus()

	if newStatus == oldStatus {
		o.mu.Unlock()
		capitan.Emit(ctx, NotificationReceived,
			KeySource.Field(o.source),
			KeyStatus.Field(newStatus.String()),
		)
		o.metrics.OnNotification()
		return
	}

	var (
		event    Event
		downtime time.Duration
	)
	switch {
	case newStatus == NotReachable:
		o.lossDate = o.clock.Now()
		o.lost = true
		event = ConnectionLost
	case oldStatus == NotReachable:
		if o.lost {
			downtime = o.clock.Now().Sub(o.lossDate)
		}
		event = ConnectionRetrieved
	default:
		event = NetworkChanged
	}
	listener := o.listener
	o.mu.Unlock()

	capitan.Emit(ctx, NotificationReceived,
		KeySource.Field(o.source),
		KeyStatus.Field(newStatus.String()),
	)
	o.metrics.OnNotification()

	capitan.Emit(ctx, StatusChanged,
		KeyOldStatus.Field(oldStatus.String()),
		KeyNewStatus.Field(newStatus.String()),
	)
	o.metrics.OnStatusChange(oldStatus, newStatus)

	switch event {
	case ConnectionLost:
		capitan.Emit(ctx, ConnectionLostSignal,
			KeyOldStatus.Field(oldStatus.String()),
		)
	case ConnectionRetrieved:
		capitan.Emit(ctx, ConnectionRetrievedSignal,
			KeyNewStatus.Field(newStatus.String()),
			KeyDowntime.Field(downtime),
		)
	default:
		capitan.Emit(ctx, NetworkChangedSignal,
			KeyOldStatus.Field(oldStatus.String()),
			KeyNewStatus.Field(newStatus.String()),
		)
	}

	o.deliver(ctx, listener, event)

	o.mu.Lock()
	if event == ConnectionRetrieved {
		o.lossDate = time.Time{}
		o.lost = false
	}
	o.lastStatus = newStatus
	o.mu.Unlock()
}

// deliver hands the event to the listener, or drops it when none is attached.
func (o *Observer) deliver(ctx context.Context, listener Listener, event Event) {
	if listener == nil {
		capitan.Emit(ctx, EventDropped,
			KeyEvent.Field(event.String()),
		)
		o.metrics.OnEventDropped(event)
		return
	}

	listener.OnEvent(ctx, event, o)
	o.metrics.OnEventDelivered(event)
}
