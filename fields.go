package reach

import "github.com/zoobzio/capitan"

// Field keys for Observer events.
var (
	// KeyStatus is the current reachability status.
	KeyStatus = capitan.NewStringKey("status")

	// KeyOldStatus is the status before a transition.
	KeyOldStatus = capitan.NewStringKey("old_status")

	// KeyNewStatus is the status after a transition.
	KeyNewStatus = capitan.NewStringKey("new_status")

	// KeyEvent is the semantic event name.
	KeyEvent = capitan.NewStringKey("event")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyDowntime is how long connectivity was lost before it was retrieved.
	KeyDowntime = capitan.NewDurationKey("downtime")

	// KeySource is the type name of the reachability implementation.
	KeySource = capitan.NewStringKey("source")
)
