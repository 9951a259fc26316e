// Package sysfs provides a Linux reachability source that classifies network
// interfaces from /sys/class/net.
//
// Link state is always read fresh on CurrentStatus. The notifier only decides
// when to tell observers to look again: filesystem events on the configured
// wake paths (resolver and network manager state) and a periodic poll.
package sysfs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/reach"
	"github.com/zoobzio/reach/internal/history"
)

// ErrNoWakeSource is returned by StartNotifier when no wake path could be
// watched and polling is disabled, so the notifier would never fire.
var ErrNoWakeSource = errors.New("no wake path could be watched and polling is disabled")

// arphrdLoopback is the ARPHRD type the kernel reports for loopback devices.
const arphrdLoopback = "772"

// Link is a single network interface as seen through sysfs.
type Link struct {
	Name  string
	Class reach.Status
	Up    bool
}

// Option configures a Reachability.
type Option func(*Reachability)

// WithConfig replaces every setting with those from cfg.
func WithConfig(cfg Config) Option {
	return func(r *Reachability) {
		r.cfg = cfg
	}
}

// WithRoot sets the sysfs mount point.
func WithRoot(root string) Option {
	return func(r *Reachability) {
		r.cfg.Root = root
	}
}

// WithWakePaths replaces the paths watched for changes.
func WithWakePaths(paths ...string) Option {
	return func(r *Reachability) {
		r.cfg.WakePaths = paths
	}
}

// WithPollInterval sets the poll interval. Zero disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(r *Reachability) {
		r.cfg.PollInterval = d
	}
}

// WithExclude replaces the excluded interface name prefixes.
func WithExclude(prefixes ...string) Option {
	return func(r *Reachability) {
		r.cfg.Exclude = prefixes
	}
}

// WithCellularPrefixes replaces the name prefixes classified as cellular.
func WithCellularPrefixes(prefixes ...string) Option {
	return func(r *Reachability) {
		r.cfg.CellularPrefixes = prefixes
	}
}

// WithErrorHistory sets how many notifier errors are retained.
func WithErrorHistory(size int) Option {
	return func(r *Reachability) {
		r.cfg.ErrorHistory = size
	}
}

// WithClock sets a custom clock for the poll ticker and error timestamps.
// Use this with clockz.FakeClock for deterministic testing.
func WithClock(clock clockz.Clock) Option {
	return func(r *Reachability) {
		r.clock = clock
	}
}

// Reachability implements reach.Reachability on top of sysfs.
type Reachability struct {
	cfg     Config
	clock   clockz.Clock
	history *history.Log

	mu        sync.Mutex
	callbacks []registration
	nextID    uint64
	cancel    context.CancelFunc

	// dispatch is held while callbacks run so that a loop from a previous
	// start cannot overlap with the current one.
	dispatch sync.Mutex
}

type registration struct {
	id uint64
	fn func()
}

// Compile time check for interface compliance.
var _ reach.Reachability = (*Reachability)(nil)

// New creates a sysfs Reachability. Without options it reads /sys and uses
// DefaultConfig.
func New(opts ...Option) *Reachability {
	r := &Reachability{
		cfg:   DefaultConfig(),
		clock: clockz.RealClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.history = history.New(r.cfg.ErrorHistory, r.clock)
	return r
}

// CurrentStatus reads every link and reports the preferred reachable class:
// wired over WiFi over cellular. Any read failure reports NotReachable.
func (r *Reachability) CurrentStatus() reach.Status {
	links, err := r.Links()
	if err != nil {
		r.history.Record("list", r.linkDir(), err)
		return reach.NotReachable
	}

	best := reach.NotReachable
	for _, l := range links {
		if l.Up && rank(l.Class) > rank(best) {
			best = l.Class
		}
	}
	return best
}

// Links returns every non-loopback, non-excluded interface sorted by name.
func (r *Reachability) Links() ([]Link, error) {
	dir := r.linkDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	links := make([]Link, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == "lo" || hasPrefix(name, r.cfg.Exclude) {
			continue
		}

		path := filepath.Join(dir, name)
		if readAttr(path, "type") == arphrdLoopback {
			continue
		}

		links = append(links, Link{
			Name:  name,
			Class: r.classify(path, name),
			Up:    isUp(path),
		})
	}

	sort.Slice(links, func(i, j int) bool { return links[i].Name < links[j].Name })
	return links, nil
}

// Register adds a callback fired on every wake signal while the notifier runs.
func (r *Reachability) Register(fn func()) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.callbacks = append(r.callbacks, registration{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, reg := range r.callbacks {
				if reg.id == id {
					r.callbacks = append(r.callbacks[:i], r.callbacks[i+1:]...)
					return
				}
			}
		})
	}
}

// StartNotifier watches the wake paths and starts the poll ticker.
// Wake paths that cannot be watched are recorded in ErrorHistory; the
// notifier only fails when nothing at all could wake it.
func (r *Reachability) StartNotifier() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	watched := 0
	for _, path := range r.cfg.WakePaths {
		if err := watcher.Add(path); err != nil {
			r.history.Record("watch", path, err)
			continue
		}
		watched++
	}

	if watched == 0 && r.cfg.PollInterval <= 0 {
		watcher.Close()
		return ErrNoWakeSource
	}

	// Created before the goroutine so a fake clock advanced right after
	// StartNotifier returns is already observed.
	var ticker clockz.Ticker
	if r.cfg.PollInterval > 0 {
		ticker = r.clock.NewTicker(r.cfg.PollInterval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	go r.loop(ctx, watcher, ticker)

	return nil
}

// StopNotifier stops the notifier goroutine. It does not wait for the
// goroutine to exit, so it is safe to call from inside a callback. No
// callback is started by the stopped goroutine once this returns.
func (r *Reachability) StopNotifier() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel == nil {
		return nil
	}
	r.cancel()
	r.cancel = nil
	return nil
}

// Running reports whether the notifier is active.
func (r *Reachability) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// ErrorHistory returns recent watch, notify and read failures, oldest first.
func (r *Reachability) ErrorHistory() []reach.SourceError {
	return r.history.Entries()
}

// loop turns filesystem events and poll ticks into callback invocations.
func (r *Reachability) loop(ctx context.Context, watcher *fsnotify.Watcher, ticker clockz.Ticker) {
	defer watcher.Close()

	var tickC <-chan time.Time
	if ticker != nil {
		defer ticker.Stop()
		tickC = ticker.C()
	}

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-watcher.Events:
			if !ok {
				return
			}
			r.fire(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Continue watching despite errors
			r.history.Record("notify", "", err)

		case <-tickC:
			r.fire(ctx)
		}
	}
}

// fire invokes every registered callback in registration order. ctx is the
// generation of the calling loop; once it is cancelled nothing more runs.
func (r *Reachability) fire(ctx context.Context) {
	r.dispatch.Lock()
	defer r.dispatch.Unlock()

	r.mu.Lock()
	fns := make([]func(), len(r.callbacks))
	for i, reg := range r.callbacks {
		fns[i] = reg.fn
	}
	r.mu.Unlock()

	for _, fn := range fns {
		if ctx.Err() != nil {
			return
		}
		fn()
	}
}

func (r *Reachability) linkDir() string {
	return filepath.Join(r.cfg.Root, "class", "net")
}

// classify decides the connectivity class of the link at path.
func (r *Reachability) classify(path, name string) reach.Status {
	devtype := ueventValue(path, "DEVTYPE")

	if devtype == "wlan" || exists(filepath.Join(path, "wireless")) || exists(filepath.Join(path, "phy80211")) {
		return reach.ReachableViaWiFi
	}
	if devtype == "wwan" || hasPrefix(name, r.cfg.CellularPrefixes) {
		return reach.ReachableViaCellular
	}
	return reach.ReachableViaWired
}

// rank orders statuses by preference when several links are up.
func rank(s reach.Status) int {
	switch s {
	case reach.ReachableViaWired:
		return 3
	case reach.ReachableViaWiFi:
		return 2
	case reach.ReachableViaCellular:
		return 1
	default:
		return 0
	}
}

// isUp reports whether a link carries traffic. Point-to-point and tunnel
// devices often report operstate "unknown" while working, so carrier decides.
func isUp(path string) bool {
	switch readAttr(path, "operstate") {
	case "up":
		return true
	case "unknown":
		return readAttr(path, "carrier") == "1"
	default:
		return false
	}
}

// readAttr returns the trimmed contents of a sysfs attribute, or "" if it
// cannot be read. Reading carrier on a down link fails with EINVAL.
func readAttr(path, attr string) string {
	data, err := os.ReadFile(filepath.Join(path, attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ueventValue returns the value of key in the link's uevent file.
func ueventValue(path, key string) string {
	f, err := os.Open(filepath.Join(path, "uevent"))
	if err != nil {
		return ""
	}
	defer f.Close()

	prefix := key + "="
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix)
		}
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func hasPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
