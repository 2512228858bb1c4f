// Package viewport keeps the materialized note count bounded while the
// logical stream grows without limit, tracks which rendered rows are
// visible, and deduplicates side-channel prefetches. None of it is on the
// render-critical path: every failure here degrades to a larger window or a
// missed dedup, never a crash.
package viewport

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gfranca/ripple/internal/session"
	"github.com/gfranca/ripple/internal/stream"
)

// Config carries the windowing tunables. Zero fields take the defaults
// below; the monitor thresholds are heuristics, not derived limits.
type Config struct {
	// CleanupThreshold is the logical sequence size above which windowing
	// kicks in. At or below it the sequence is left untouched.
	CleanupThreshold int
	// WindowRadius is how many notes to keep on each side of the cursor.
	WindowRadius int
	// DebounceDelay coalesces evaluation triggers during fetch bursts.
	DebounceDelay time.Duration
	// MonitorInterval paces the observe-only optimization loop.
	MonitorInterval time.Duration
	// LowHitRatio and HighMemoryUse are the percentages at which the
	// monitor annotates the persisted snapshot.
	LowHitRatio   float64
	HighMemoryUse float64
}

const (
	DefaultCleanupThreshold = 200
	DefaultWindowRadius     = 25
	DefaultDebounceDelay    = time.Second
	DefaultMonitorInterval  = 30 * time.Second
	DefaultLowHitRatio      = 60
	DefaultHighMemoryUse    = 80
)

func (c Config) withDefaults() Config {
	if c.CleanupThreshold == 0 {
		c.CleanupThreshold = DefaultCleanupThreshold
	}
	if c.WindowRadius == 0 {
		c.WindowRadius = DefaultWindowRadius
	}
	if c.DebounceDelay == 0 {
		c.DebounceDelay = DefaultDebounceDelay
	}
	if c.MonitorInterval == 0 {
		c.MonitorInterval = DefaultMonitorInterval
	}
	if c.LowHitRatio == 0 {
		c.LowHitRatio = DefaultLowHitRatio
	}
	if c.HighMemoryUse == 0 {
		c.HighMemoryUse = DefaultHighMemoryUse
	}
	return c
}

// PagerState is the slice of pagination-engine state the manager records
// for telemetry. It never drives fetching.
type PagerState struct {
	HasNextPage        bool `json:"has_next_page"`
	IsFetching         bool `json:"is_fetching"`
	IsFetchingNextPage bool `json:"is_fetching_next_page"`
}

// Snapshot is one observation of the logical sequence and cursor, taken at
// trigger time. The manager evaluates whatever snapshot is latest when the
// debounce fires.
type Snapshot struct {
	Notes  []stream.Note
	Cursor int
	Pager  PagerState
}

type Performance struct {
	HitRatio         float64 `json:"hit_ratio"`
	MemoryEfficiency float64 `json:"memory_efficiency"`
}

type LoadingHints struct {
	NearStart bool `json:"near_start"`
	NearEnd   bool `json:"near_end"`
}

// Metadata is the window snapshot persisted after every recomputation.
type Metadata struct {
	SessionID          string       `json:"session_id"`
	OriginalTotalItems int          `json:"original_total_items"`
	BufferStart        int          `json:"buffer_start"`
	BufferEnd          int          `json:"buffer_end"`
	OriginalCursor     int          `json:"original_cursor"`
	Timestamp          int64        `json:"timestamp"`
	QueryState         PagerState   `json:"query_state"`
	Performance        Performance  `json:"performance"`
	LoadingHints       LoadingHints `json:"loading_hints"`
	OptimizationReason string       `json:"optimization_reason,omitempty"`
}

// legacyMetadata is the reduced schema older consumers still read.
type legacyMetadata struct {
	OriginalTotalItems int   `json:"original_total_items"`
	BufferStart        int   `json:"buffer_start"`
	BufferEnd          int   `json:"buffer_end"`
	OriginalCursor     int   `json:"original_cursor"`
	Timestamp          int64 `json:"timestamp"`
}

// Result is the outcome of one evaluation. When Windowed is false the input
// sequence and cursor come back unchanged.
type Result struct {
	Windowed bool
	Notes    []stream.Note
	Cursor   int
	Meta     Metadata
}

// ApplyFunc installs a truncated window and remapped cursor into feed state.
type ApplyFunc func(notes []stream.Note, cursor int)

// Collaborator is an optional external buffer consumer notified after each
// recomputation. Notification is best-effort; errors and panics are logged
// and swallowed.
type Collaborator interface {
	BufferChanged(notes []stream.Note, cursor int) error
}

// Manager owns the sliding-window algorithm for the feed.
type Manager struct {
	cfg    Config
	store  *session.Store
	logger *slog.Logger
	apply  ApplyFunc
	collab Collaborator
	nowFn  func() time.Time

	mu       sync.Mutex
	pending  *Snapshot
	debounce *time.Timer
	stop     chan struct{}
	done     chan struct{}
	closed   bool
}

type Option func(*Manager)

func WithApplyFunc(fn ApplyFunc) Option {
	return func(m *Manager) { m.apply = fn }
}

func WithCollaborator(c Collaborator) Option {
	return func(m *Manager) { m.collab = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithNow(fn func() time.Time) Option {
	return func(m *Manager) { m.nowFn = fn }
}

func NewManager(store *session.Store, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:   cfg.withDefaults(),
		store: store,
		nowFn: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Schedule records a snapshot and arms the debounce. Triggers landing
// within the delay collapse into a single evaluation of the latest
// snapshot.
func (m *Manager) Schedule(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.pending = &snap
	if m.debounce != nil {
		m.debounce.Stop()
	}
	m.debounce = time.AfterFunc(m.cfg.DebounceDelay, m.fire)
}

func (m *Manager) fire() {
	m.mu.Lock()
	if m.closed || m.pending == nil {
		m.mu.Unlock()
		return
	}
	snap := *m.pending
	m.pending = nil
	m.debounce = nil
	m.mu.Unlock()

	m.Evaluate(snap)
}

// Evaluate recomputes the window immediately. Small sequences pass through
// untouched; anything above the cleanup threshold is sliced to the cursor's
// neighborhood, the cursor is remapped into the slice, and the window
// snapshot is persisted.
func (m *Manager) Evaluate(snap Snapshot) Result {
	total := len(snap.Notes)
	if total == 0 || total <= m.cfg.CleanupThreshold {
		return Result{Notes: snap.Notes, Cursor: snap.Cursor}
	}

	cursor := snap.Cursor
	if cursor < 0 {
		cursor = 0
	}
	if cursor > total-1 {
		cursor = total - 1
	}

	start := cursor - m.cfg.WindowRadius
	if start < 0 {
		start = 0
	}
	end := cursor + m.cfg.WindowRadius
	if end > total-1 {
		end = total - 1
	}

	window := append([]stream.Note(nil), snap.Notes[start:end+1]...)
	remapped := cursor - start

	meta := m.buildMetadata(total, start, end, cursor, len(window), snap.Pager)
	m.persist(meta)

	if m.apply != nil {
		m.apply(window, remapped)
	}
	if m.collab != nil {
		m.notify(window, remapped)
	}

	return Result{Windowed: true, Notes: window, Cursor: remapped, Meta: meta}
}

func (m *Manager) buildMetadata(total, start, end, cursor, materialized int, pager PagerState) Metadata {
	center := float64(start+end) / 2
	size := float64(end - start + 1)
	hitRatio := 100 - (math.Abs(float64(cursor)-center)/size)*100
	if hitRatio < 0 {
		hitRatio = 0
	}

	return Metadata{
		SessionID:          m.store.ID(),
		OriginalTotalItems: total,
		BufferStart:        start,
		BufferEnd:          end,
		OriginalCursor:     cursor,
		Timestamp:          m.nowFn().UnixMilli(),
		QueryState:         pager,
		Performance: Performance{
			HitRatio:         hitRatio,
			MemoryEfficiency: float64(materialized) / float64(total) * 100,
		},
		LoadingHints: LoadingHints{
			NearStart: cursor-start < 5,
			NearEnd:   end-cursor < 5,
		},
	}
}

// persist writes the primary and legacy snapshots. Storage failure only
// degrades restoration quality, so errors are dropped on the floor.
func (m *Manager) persist(meta Metadata) {
	_ = m.store.SetJSON(session.KeyWindowMetadata, meta)
	_ = m.store.SetJSON(session.KeyWindowMetadataLegacy, legacyMetadata{
		OriginalTotalItems: meta.OriginalTotalItems,
		BufferStart:        meta.BufferStart,
		BufferEnd:          meta.BufferEnd,
		OriginalCursor:     meta.OriginalCursor,
		Timestamp:          meta.Timestamp,
	})
}

func (m *Manager) notify(notes []stream.Note, cursor int) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("buffer collaborator panicked", "panic", r)
		}
	}()
	if err := m.collab.BufferChanged(notes, cursor); err != nil {
		m.logger.Warn("buffer collaborator rejected window", "error", err)
	}
}

// Start launches the optimization monitor. It observes the last persisted
// snapshot on a fixed interval and annotates it when the heuristics say the
// window is mis-sized; it never triggers re-windowing itself.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.monitor(m.stop, m.done)
}

func (m *Manager) monitor(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.cfg.MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.optimize()
		}
	}
}

func (m *Manager) optimize() {
	var meta Metadata
	found, err := m.store.GetJSON(session.KeyWindowMetadata, &meta)
	if !found {
		return
	}
	if err != nil {
		m.logger.Warn("window metadata unreadable, skipping optimization", "error", err)
		return
	}

	reason := ""
	switch {
	case meta.Performance.HitRatio < m.cfg.LowHitRatio:
		reason = "low_hit_ratio"
	case meta.Performance.MemoryEfficiency > m.cfg.HighMemoryUse:
		reason = "high_memory_usage"
	default:
		return
	}

	meta.OptimizationReason = reason
	meta.Timestamp = m.nowFn().UnixMilli()
	_ = m.store.SetJSON(session.KeyWindowMetadata, meta)
}

// Close cancels the debounce timer and the monitor. No evaluation runs
// after Close returns.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.debounce != nil {
		m.debounce.Stop()
		m.debounce = nil
	}
	m.pending = nil
	stop, done := m.stop, m.done
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}
