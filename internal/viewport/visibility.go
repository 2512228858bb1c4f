package viewport

import (
	"sync"
	"time"
)

// DefaultDeferDelay is how long a visibility batch arriving during scroll
// restoration is held before being re-checked.
const DefaultDeferDelay = 300 * time.Millisecond

// Observation is the latest intersection record for one observed target.
type Observation struct {
	Target       string
	Intersecting bool
	Ratio        float64
	At           time.Time
}

// SourceConfig mirrors the standard intersection-primitive knobs.
type SourceConfig struct {
	Threshold float64
	Margin    int
	Enabled   bool
}

// Source is the viewport-intersection primitive the tracker wraps. A source
// must deliver batches asynchronously with respect to its registration
// calls: delivering from inside Observe, Unobserve or Disconnect deadlocks
// the tracker.
type Source interface {
	Observe(target string)
	Unobserve(target string)
	Disconnect()
}

// SourceFactory builds a source that reports observations through deliver.
type SourceFactory func(cfg SourceConfig, deliver func([]Observation)) Source

type TrackerConfig struct {
	Source SourceConfig
	// Restoring is probed once per incoming batch. While it reports true a
	// batch is deferred once by DeferDelay and, if still restoring at that
	// point, dropped for good. Nil means never restoring.
	Restoring  func() bool
	DeferDelay time.Duration
}

// Tracker reports viewport intersection for a dynamic set of observed
// targets while remaining inert during scroll-position restoration.
type Tracker struct {
	mu      sync.Mutex
	factory SourceFactory
	cfg     TrackerConfig
	source  Source
	tracked map[string]struct{}
	entries map[string]Observation
	loaded  map[string]bool
	timers  map[*time.Timer]struct{}
	closed  bool
}

func NewTracker(factory SourceFactory, cfg TrackerConfig) *Tracker {
	if cfg.DeferDelay <= 0 {
		cfg.DeferDelay = DefaultDeferDelay
	}
	t := &Tracker{
		factory: factory,
		cfg:     cfg,
		tracked: make(map[string]struct{}),
		entries: make(map[string]Observation),
		loaded:  make(map[string]bool),
		timers:  make(map[*time.Timer]struct{}),
	}
	if cfg.Source.Enabled && factory != nil {
		t.source = factory(cfg.Source, t.deliver)
	}
	return t
}

// Observe begins tracking a target; observing an already tracked target is
// a no-op.
func (t *Tracker) Observe(target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if _, ok := t.tracked[target]; ok {
		return
	}
	t.tracked[target] = struct{}{}
	if t.source != nil {
		t.source.Observe(target)
	}
}

// Unobserve stops tracking a target and forgets its last-known entry.
func (t *Tracker) Unobserve(target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tracked[target]; !ok {
		return
	}
	delete(t.tracked, target)
	delete(t.entries, target)
	delete(t.loaded, target)
	if t.source != nil {
		t.source.Unobserve(target)
	}
}

// Disconnect stops tracking all targets and clears all entries. The tracker
// remains usable; Observe re-enrolls targets afterwards.
func (t *Tracker) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnectLocked()
}

func (t *Tracker) disconnectLocked() {
	if t.source != nil {
		t.source.Disconnect()
	}
	t.tracked = make(map[string]struct{})
	t.entries = make(map[string]Observation)
	t.loaded = make(map[string]bool)
	for timer := range t.timers {
		timer.Stop()
		delete(t.timers, timer)
	}
}

// Close tears the tracker down permanently; pending deferred batches are
// cancelled and no further updates are applied.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.disconnectLocked()
}

// Reconfigure tears down and recreates the underlying source with new
// parameters and re-registers every tracked target. Entries accumulated so
// far are preserved.
func (t *Tracker) Reconfigure(cfg SourceConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.source != nil {
		t.source.Disconnect()
		t.source = nil
	}
	t.cfg.Source = cfg
	if !cfg.Enabled || t.factory == nil {
		return
	}
	t.source = t.factory(cfg, t.deliver)
	for target := range t.tracked {
		t.source.Observe(target)
	}
}

// IsIntersecting returns the last known intersection state, false for any
// target never observed or since unobserved.
func (t *Tracker) IsIntersecting(target string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[target].Intersecting
}

// Entry returns the full last-known observation for a target.
func (t *Tracker) Entry(target string) (Observation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	obs, ok := t.entries[target]
	return obs, ok
}

// MarkLoaded records that a target's lazy content has been loaded.
func (t *Tracker) MarkLoaded(target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tracked[target]; !ok {
		return
	}
	t.loaded[target] = true
}

// CanLoad gates lazy loading: an already loaded target always may, anything
// else requires being intersecting outside of restoration.
func (t *Tracker) CanLoad(target string) bool {
	if t.restoring() {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.loaded[target]
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded[target] || t.entries[target].Intersecting
}

func (t *Tracker) restoring() bool {
	return t.cfg.Restoring != nil && t.cfg.Restoring()
}

func (t *Tracker) deliver(batch []Observation) {
	if !t.restoring() {
		t.apply(batch)
		return
	}

	// Defer once, then drop: updates lost during restoration would only
	// trigger lazy loads that shift layout while the viewport is being
	// repositioned.
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(t.cfg.DeferDelay, func() {
		t.mu.Lock()
		delete(t.timers, timer)
		closed := t.closed
		t.mu.Unlock()
		if closed || t.restoring() {
			return
		}
		t.apply(batch)
	})
	t.timers[timer] = struct{}{}
	t.mu.Unlock()
}

func (t *Tracker) apply(batch []Observation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	for _, obs := range batch {
		if _, ok := t.tracked[obs.Target]; !ok {
			continue
		}
		if obs.At.IsZero() {
			obs.At = time.Now()
		}
		t.entries[obs.Target] = obs
	}
}
