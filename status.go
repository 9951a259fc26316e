package reach

// Status is the connectivity class reported by a Reachability source.
type Status int32

const (
	// NotReachable indicates no usable network path.
	NotReachable Status = iota

	// ReachableViaWiFi indicates connectivity through a wireless LAN.
	ReachableViaWiFi

	// ReachableViaCellular indicates connectivity through a mobile data link.
	ReachableViaCellular

	// ReachableViaWired indicates connectivity through a wired interface.
	// Desktop and server hosts report this where a handset would report WiFi.
	ReachableViaWired
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case NotReachable:
		return "not_reachable"
	case ReachableViaWiFi:
		return "wifi"
	case ReachableViaCellular:
		return "cellular"
	case ReachableViaWired:
		return "wired"
	default:
		return "unknown"
	}
}

// Reachable reports whether the status represents any usable network path.
func (s Status) Reachable() bool {
	return s != NotReachable
}

// Event is a semantic connectivity event produced by an Observer.
type Event int32

const (
	// NetworkChanged is emitted when connectivity moves between two reachable
	// statuses, for example WiFi to cellular.
	NetworkChanged Event = iota

	// ConnectionLost is emitted when connectivity drops to NotReachable.
	ConnectionLost

	// ConnectionRetrieved is emitted when connectivity returns after an outage.
	ConnectionRetrieved
)

// String returns the string representation of the event.
func (e Event) String() string {
	switch e {
	case NetworkChanged:
		return "network_changed"
	case ConnectionLost:
		return "connection_lost"
	case ConnectionRetrieved:
		return "connection_retrieved"
	default:
		return "unknown"
	}
}
