package benchmarks

import (
	"context"
	"testing"

	"github.com/zoobzio/reach"
)

func BenchmarkObserver_UnchangedNotification(b *testing.B) {
	source := reach.NewManualReachability(reach.ReachableViaWiFi)
	observer := reach.New(source,
		reach.WithListener(reach.ListenerFunc(func(context.Context, reach.Event, *reach.Observer) {})),
	)
	if err := observer.StartProducingEvents(context.Background()); err != nil {
		b.Fatalf("StartProducingEvents() error = %v", err)
	}
	defer observer.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		source.Notify()
	}
}

func BenchmarkObserver_Transition(b *testing.B) {
	source := reach.NewManualReachability(reach.ReachableViaWiFi)
	observer := reach.New(source,
		reach.WithListener(reach.ListenerFunc(func(context.Context, reach.Event, *reach.Observer) {})),
	)
	if err := observer.StartProducingEvents(context.Background()); err != nil {
		b.Fatalf("StartProducingEvents() error = %v", err)
	}
	defer observer.Close()

	cycle := []reach.Status{
		reach.ReachableViaCellular,
		reach.NotReachable,
		reach.ReachableViaWiFi,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		source.Set(cycle[i%len(cycle)])
	}
}

func BenchmarkObserver_Dropped(b *testing.B) {
	source := reach.NewManualReachability(reach.ReachableViaWiFi)
	observer := reach.New(source)
	if err := observer.StartProducingEvents(context.Background()); err != nil {
		b.Fatalf("StartProducingEvents() error = %v", err)
	}
	defer observer.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%2 == 0 {
			source.Set(reach.ReachableViaWired)
		} else {
			source.Set(reach.ReachableViaWiFi)
		}
	}
}

func BenchmarkObserver_StartStop(b *testing.B) {
	source := reach.NewManualReachability(reach.ReachableViaWiFi)
	observer := reach.New(source)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := observer.StartProducingEvents(ctx); err != nil {
			b.Fatalf("StartProducingEvents() error = %v", err)
		}
		if err := observer.StopProducingEvents(ctx); err != nil {
			b.Fatalf("StopProducingEvents() error = %v", err)
		}
	}
}
