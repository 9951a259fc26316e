// Package ifaces provides a portable reachability source built on the
// interface table reported by gopsutil.
//
// The notifier polls the interface table and computes a fingerprint of names,
// flags and addresses. Callbacks fire only when the fingerprint changes, so a
// quiet network costs one table read per poll interval and nothing else.
package ifaces

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/reach"
	"github.com/zoobzio/reach/internal/history"
)

// DefaultPollInterval is how often the interface table is read.
const DefaultPollInterval = 2 * time.Second

// Lister returns the host interface table.
type Lister func(ctx context.Context) (psnet.InterfaceStatList, error)

// Interface is a single network interface after classification.
type Interface struct {
	Name  string
	Class reach.Status
	Up    bool
	Addrs []string
}

// Option configures a Reachability.
type Option func(*Reachability)

// WithLister replaces the interface table source.
func WithLister(l Lister) Option {
	return func(r *Reachability) {
		r.list = l
	}
}

// WithPollInterval sets how often the interface table is read.
func WithPollInterval(d time.Duration) Option {
	return func(r *Reachability) {
		r.interval = d
	}
}

// WithClock sets a custom clock for the poll ticker and error timestamps.
// Use this with clockz.FakeClock for deterministic testing.
func WithClock(clock clockz.Clock) Option {
	return func(r *Reachability) {
		r.clock = clock
	}
}

// WithExclude replaces the excluded interface name prefixes.
func WithExclude(prefixes ...string) Option {
	return func(r *Reachability) {
		r.exclude = prefixes
	}
}

// WithWiFiPrefixes replaces the name prefixes classified as WiFi.
func WithWiFiPrefixes(prefixes ...string) Option {
	return func(r *Reachability) {
		r.wifi = prefixes
	}
}

// WithCellularPrefixes replaces the name prefixes classified as cellular.
func WithCellularPrefixes(prefixes ...string) Option {
	return func(r *Reachability) {
		r.cellular = prefixes
	}
}

// WithErrorHistory sets how many read errors are retained.
func WithErrorHistory(size int) Option {
	return func(r *Reachability) {
		r.historySize = size
	}
}

// Reachability implements reach.Reachability by polling the interface table.
type Reachability struct {
	list        Lister
	interval    time.Duration
	clock       clockz.Clock
	exclude     []string
	wifi        []string
	cellular    []string
	historySize int
	history     *history.Log

	mu          sync.Mutex
	callbacks   []registration
	nextID      uint64
	cancel      context.CancelFunc
	fingerprint string

	// dispatch serialises polls so a loop left over from a previous start
	// never reads the table or runs callbacks alongside the current one.
	dispatch sync.Mutex
}

type registration struct {
	id uint64
	fn func()
}

// Compile time check for interface compliance.
var _ reach.Reachability = (*Reachability)(nil)

// New creates an interface table Reachability.
func New(opts ...Option) *Reachability {
	r := &Reachability{
		list:        psnet.InterfacesWithContext,
		interval:    DefaultPollInterval,
		clock:       clockz.RealClock,
		exclude:     []string{"docker", "veth", "br-", "virbr", "lxc", "utun", "awdl", "llw", "bridge"},
		wifi:        []string{"wl", "ath", "ra"},
		cellular:    []string{"wwan", "rmnet", "ccmni", "pdp_ip"},
		historySize: 16,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.history = history.New(r.historySize, r.clock)
	return r
}

// Interfaces returns every non-loopback, non-excluded interface sorted by name.
func (r *Reachability) Interfaces(ctx context.Context) ([]Interface, error) {
	stats, err := r.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	result := make([]Interface, 0, len(stats))
	for _, s := range stats {
		if hasFlag(s.Flags, "loopback") || hasPrefix(s.Name, r.exclude) {
			continue
		}

		addrs := make([]string, 0, len(s.Addrs))
		routable := false
		for _, a := range s.Addrs {
			addrs = append(addrs, a.Addr)
			if isRoutable(a.Addr) {
				routable = true
			}
		}
		sort.Strings(addrs)

		result = append(result, Interface{
			Name:  s.Name,
			Class: r.classify(s.Name),
			Up:    hasFlag(s.Flags, "up") && routable,
			Addrs: addrs,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// CurrentStatus reports the preferred reachable class among interfaces that
// are up and hold a routable address: wired over WiFi over cellular.
func (r *Reachability) CurrentStatus() reach.Status {
	ifs, err := r.Interfaces(context.Background())
	if err != nil {
		r.history.Record("list", "", err)
		return reach.NotReachable
	}
	return bestStatus(ifs)
}

// Register adds a callback fired whenever the interface table changes while
// the notifier runs.
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

// StartNotifier records the current fingerprint and starts polling.
// It fails if the interval is not positive or the table cannot be read.
func (r *Reachability) StartNotifier() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return nil
	}
	if r.interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", r.interval)
	}

	ctx, cancel := context.WithCancel(context.Background())

	fp, err := r.snapshot(ctx)
	if err != nil {
		cancel()
		return err
	}
	r.fingerprint = fp
	r.cancel = cancel

	ticker := r.clock.NewTicker(r.interval)
	go r.pollLoop(ctx, ticker)

	return nil
}

// StopNotifier stops polling without waiting for an in-flight callback.
// The stopped loop starts no further callback once this returns.
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

// ErrorHistory returns recent read errors, oldest first.
func (r *Reachability) ErrorHistory() []reach.SourceError {
	return r.history.Entries()
}

func (r *Reachability) pollLoop(ctx context.Context, ticker clockz.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			r.poll(ctx)
		}
	}
}

// poll runs one check for the loop generation ctx and fires the callbacks
// in registration order if the table moved.
func (r *Reachability) poll(ctx context.Context) {
	r.dispatch.Lock()
	defer r.dispatch.Unlock()

	if ctx.Err() != nil || !r.checkChange(ctx) {
		return
	}

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

// checkChange reads the table and reports whether its fingerprint moved.
// A failed read counts as a change so observers re-query and see NotReachable.
func (r *Reachability) checkChange(ctx context.Context) bool {
	fp, err := r.snapshot(ctx)
	if err != nil {
		r.history.Record("list", "", err)
		fp = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if fp == r.fingerprint {
		return false
	}
	r.fingerprint = fp
	return true
}

func (r *Reachability) snapshot(ctx context.Context) (string, error) {
	ifs, err := r.Interfaces(ctx)
	if err != nil {
		return "", err
	}
	return fingerprint(ifs), nil
}

func (r *Reachability) classify(name string) reach.Status {
	switch {
	case hasPrefix(name, r.cellular):
		return reach.ReachableViaCellular
	case hasPrefix(name, r.wifi):
		return reach.ReachableViaWiFi
	default:
		return reach.ReachableViaWired
	}
}

func bestStatus(ifs []Interface) reach.Status {
	best := reach.NotReachable
	for _, i := range ifs {
		if i.Up && rank(i.Class) > rank(best) {
			best = i.Class
		}
	}
	return best
}

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

// fingerprint hashes the classified table. Interfaces must be sorted.
func fingerprint(ifs []Interface) string {
	parts := make([]string, 0, len(ifs))
	for _, i := range ifs {
		parts = append(parts, fmt.Sprintf("%s:%d:%t:[%s]", i.Name, i.Class, i.Up, strings.Join(i.Addrs, ",")))
	}
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

// isRoutable reports whether a CIDR address can reach beyond the link.
func isRoutable(cidr string) bool {
	ip, _, err := net.ParseCIDR(cidr)
	if err != nil {
		ip = net.ParseIP(cidr)
	}
	if ip == nil {
		return false
	}
	return !ip.IsLoopback() && !ip.IsLinkLocalUnicast() && !ip.IsUnspecified()
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func hasPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
