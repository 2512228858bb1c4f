package viewport

import (
	"sync"
	"time"
)

// RowSource is an intersection source for terminal lists: targets are
// registered at logical row positions, and each SetViewport call reports
// which observed rows fall inside the visible row range (widened by the
// configured margin). Ratio is binary; a row is either on screen or not.
type RowSource struct {
	mu        sync.Mutex
	cfg       SourceConfig
	deliver   func([]Observation)
	observed  map[string]struct{}
	positions map[string]int
}

func NewRowSource(cfg SourceConfig, deliver func([]Observation)) *RowSource {
	return &RowSource{
		cfg:       cfg,
		deliver:   deliver,
		observed:  make(map[string]struct{}),
		positions: make(map[string]int),
	}
}

// Bind resets the source to a fresh configuration and sink, dropping all
// registrations. It lets one physical source be handed out again when a
// tracker reconfigures instead of orphaning row positions held elsewhere.
func (s *RowSource) Bind(cfg SourceConfig, deliver func([]Observation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.deliver = deliver
	s.observed = make(map[string]struct{})
	s.positions = make(map[string]int)
}

func (s *RowSource) Observe(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observed[target] = struct{}{}
}

func (s *RowSource) Unobserve(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observed, target)
	delete(s.positions, target)
}

func (s *RowSource) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observed = make(map[string]struct{})
	s.positions = make(map[string]int)
}

// SetPosition places a target at a logical row. Positions survive until
// Unobserve or Disconnect.
func (s *RowSource) SetPosition(target string, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[target] = row
}

// SetViewport reports the visible row range [top, top+height) and delivers
// one observation per observed, positioned target. The batch is computed
// under the source lock but delivered outside it.
func (s *RowSource) SetViewport(top, height int) {
	s.mu.Lock()
	if !s.cfg.Enabled || s.deliver == nil {
		s.mu.Unlock()
		return
	}
	lo := top - s.cfg.Margin
	hi := top + height + s.cfg.Margin
	now := time.Now()

	batch := make([]Observation, 0, len(s.observed))
	for target := range s.observed {
		row, ok := s.positions[target]
		if !ok {
			continue
		}
		intersecting := row >= lo && row < hi
		ratio := 0.0
		if intersecting {
			ratio = 1.0
		}
		batch = append(batch, Observation{
			Target:       target,
			Intersecting: intersecting,
			Ratio:        ratio,
			At:           now,
		})
	}
	deliver := s.deliver
	s.mu.Unlock()

	if len(batch) > 0 {
		deliver(batch)
	}
}
