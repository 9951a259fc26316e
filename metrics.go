package reach

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key observer events.
type MetricsProvider interface {
	// OnNotification is called for every wake signal processed while listening.
	OnNotification()

	// OnStatusChange is called when the queried status differs from the last one.
	OnStatusChange(from, to Status)

	// OnEventDelivered is called after the listener returns from OnEvent.
	OnEventDelivered(event Event)

	// OnEventDropped is called when an event was computed with no listener attached.
	OnEventDropped(event Event)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnNotification()            {}
func (NoOpMetricsProvider) OnStatusChange(_, _ Status) {}
func (NoOpMetricsProvider) OnEventDelivered(_ Event)   {}
func (NoOpMetricsProvider) OnEventDropped(_ Event)     {}
