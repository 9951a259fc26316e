package integration

import (
	"testing"
	"time"
)

// waitFor polls condition until it holds or timeout elapses. Real sources
// deliver from their own goroutines, so assertions must wait.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
