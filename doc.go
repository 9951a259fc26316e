/*
Package reach turns low-level network reachability notifications into three
semantic events a client can act on: NetworkChanged, ConnectionLost and
ConnectionRetrieved.

reach is designed to be embedded in long-running clients such as media players
that need to pause or resume network work, not run as a standalone service.
A platform-specific Reachability source reports the current connectivity class
and signals when it may have changed. The Observer re-reads the status on every
signal, classifies the transition and delivers it to a single Listener.

# Basic Usage

Create an observer over a source and attach a listener:

	observer := reach.New(sysfs.New(),
	    reach.WithListener(reach.ListenerFunc(func(ctx context.Context, e reach.Event, o *reach.Observer) {
	        player.Post(e)
	    })),
	)
	defer observer.Close()

	if err := observer.StartProducingEvents(ctx); err != nil {
	    return err
	}

# Events

Given the previous and current status, exactly one event is produced per
change and none when the status is unchanged:

	old            new            event
	reachable      not reachable  ConnectionLost       (loss date set)
	not reachable  reachable      ConnectionRetrieved  (loss date cleared after delivery)
	reachable      reachable'     NetworkChanged

While the listener runs, Observer.LastStatus still reports the status before
the transition, and Observer.ConnectionLossDate reports when the outage began.

# Sources

	reach.ManualReachability  status set by the caller; tests and host-provided callbacks
	sysfs.Reachability        Linux /sys/class/net, woken by fsnotify and a poll ticker
	ifaces.Reachability       portable interface table via gopsutil, fingerprint polling

# Observability

Every transition is emitted as a capitan signal regardless of whether a
listener is attached:

	capitan.Hook(reach.ConnectionLostSignal, func(ctx context.Context, e *capitan.Event) {
	    old, _ := reach.KeyOldStatus.From(e)
	    log.Printf("offline, was %s", old)
	})

Counters can be wired through WithMetrics and a MetricsProvider.
*/
package reach
