package history

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestLog_Disabled(t *testing.T) {
	for _, limit := range []int{0, -1} {
		if New(limit, clockz.NewFakeClock()) != nil {
			t.Errorf("expected nil log for limit %d", limit)
		}
	}

	var l *Log
	l.Record("watch", "/etc/resolv.conf", errors.New("boom"))
	l.Reset()
	if l.Entries() != nil {
		t.Error("expected nil entries from nil log")
	}
}

func TestLog_RecordStampsEntries(t *testing.T) {
	clock := clockz.NewFakeClock()
	l := New(4, clock)

	first := clock.Now()
	l.Record("watch", "/run/NetworkManager", os.ErrNotExist)
	clock.Advance(time.Minute)
	l.Record("notify", "", errors.New("inotify queue overflow"))
	l.Record("list", "/sys/class/net", nil)

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), entries)
	}

	watch := entries[0]
	if watch.Op != "watch" || watch.Path != "/run/NetworkManager" || !watch.At.Equal(first) {
		t.Errorf("unexpected first entry: %+v", watch)
	}
	if !errors.Is(watch, os.ErrNotExist) {
		t.Errorf("expected entry to unwrap to ErrNotExist, got %v", watch)
	}
	if got := watch.Error(); got != "watch /run/NetworkManager: file does not exist" {
		t.Errorf("unexpected message %q", got)
	}

	notify := entries[1]
	if !notify.At.Equal(first.Add(time.Minute)) {
		t.Errorf("expected second entry one minute later, got %v", notify.At)
	}
	if got := notify.Error(); got != "notify: inotify queue overflow" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestLog_EvictsOldest(t *testing.T) {
	l := New(2, clockz.NewFakeClock())

	for _, path := range []string{"a", "b", "c"} {
		l.Record("watch", path, errors.New("missing"))
	}

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Path != "b" || entries[1].Path != "c" {
		t.Errorf("expected [b c], got [%s %s]", entries[0].Path, entries[1].Path)
	}
}

func TestLog_EntriesIsACopy(t *testing.T) {
	l := New(2, clockz.NewFakeClock())
	l.Record("list", "", errors.New("first"))

	entries := l.Entries()
	entries[0].Op = "mutated"

	if l.Entries()[0].Op != "list" {
		t.Error("expected Entries to return a copy")
	}
}

func TestLog_Reset(t *testing.T) {
	l := New(2, clockz.NewFakeClock())
	l.Record("list", "", errors.New("first"))
	l.Reset()

	if l.Entries() != nil {
		t.Fatalf("expected no entries after Reset, got %v", l.Entries())
	}

	l.Record("list", "", errors.New("second"))
	if entries := l.Entries(); len(entries) != 1 || entries[0].Err.Error() != "second" {
		t.Errorf("expected [second], got %v", entries)
	}
}
