package reach

import "github.com/zoobzio/capitan"

// Observer lifecycle signals.
var (
	// ObserverStarted is emitted when an Observer begins producing events.
	ObserverStarted = capitan.NewSignal(
		"reach.observer.started",
		"Observer started producing events",
	)

	// ObserverStopped is emitted when an Observer stops producing events.
	ObserverStopped = capitan.NewSignal(
		"reach.observer.stopped",
		"Observer stopped producing events",
	)

	// NotifierFailed is emitted when the reachability notifier cannot be
	// started or stopped.
	NotifierFailed = capitan.NewSignal(
		"reach.notifier.failed",
		"Reachability notifier failed",
	)
)

// Notification processing signals.
var (
	// NotificationReceived is emitted for every wake signal from the source,
	// whether or not the status actually changed.
	NotificationReceived = capitan.NewSignal(
		"reach.notification.received",
		"Reachability notification received",
	)

	// StatusChanged is emitted when the queried status differs from the last one.
	StatusChanged = capitan.NewSignal(
		"reach.status.changed",
		"Reachability status transition",
	)

	// ConnectionLostSignal mirrors the ConnectionLost event.
	ConnectionLostSignal = capitan.NewSignal(
		"reach.connection.lost",
		"Network connection lost",
	)

	// ConnectionRetrievedSignal mirrors the ConnectionRetrieved event.
	ConnectionRetrievedSignal = capitan.NewSignal(
		"reach.connection.retrieved",
		"Network connection retrieved",
	)

	// NetworkChangedSignal mirrors the NetworkChanged event.
	NetworkChangedSignal = capitan.NewSignal(
		"reach.network.changed",
		"Network changed between reachable statuses",
	)

	// EventDropped is emitted when an event was computed with no listener attached.
	EventDropped = capitan.NewSignal(
		"reach.event.dropped",
		"Event dropped, no listener attached",
	)
)
