// Package desire implements the DesireState data type and its mutation
// laws: tick, satisfy, boost and get_dominant. The Activity Scheduler
// (internal/scheduler) owns the only *State value in the process; the
// Turn Engine only calls Boost, CuriosityTarget and SetCuriosityTarget.
package desire

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/utenadev/familiar-ai/pkg/models"
)

// defaultLevels is the level every desire resets to on Satisfy and the
// state a fresh or corrupt file falls back to.
var defaultLevels = map[models.DesireName]float64{
	models.DesireLookAround:     0.1,
	models.DesireExplore:        0.1,
	models.DesireGreetCompanion: 0.0,
	models.DesireRest:           0.0,
	models.DesireWorryCompanion: 0.0,
}

// growthRates is the per-second level growth applied by Tick.
// greet_companion, rest and worry_companion have rate zero: they only
// move through Boost (a greeting, a long session, a worry signal) and
// Satisfy, never through ambient time passing.
var growthRates = map[models.DesireName]float64{
	models.DesireLookAround:     0.002,
	models.DesireExplore:        0.001,
	models.DesireGreetCompanion: 0,
	models.DesireRest:           0,
	models.DesireWorryCompanion: 0,
}

// DominantThreshold is the level a desire must reach for GetDominant to
// report it.
const DominantThreshold = 0.6

// State is the mutable, file-persisted desire model.
type State struct {
	mu       sync.Mutex
	path     string
	logger   *slog.Logger
	levels   map[models.DesireName]float64
	target   string
	lastTick time.Time
}

// Load reads State from path, resetting to defaults if the file is
// absent or unreadable — a corrupt persistence file is tolerated, not
// fatal.
func Load(path string, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	s := &State{path: path, logger: logger, levels: cloneDefaults(), lastTick: time.Now()}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var persisted models.DesireState
	if err := json.Unmarshal(data, &persisted); err != nil {
		logger.Warn("desire: corrupt state file, resetting to defaults", "path", path, "error", err)
		return s
	}
	for name, level := range persisted.Levels {
		s.levels[name] = clamp(level)
	}
	s.target = persisted.CuriosityTarget
	if !persisted.LastTick.IsZero() {
		s.lastTick = persisted.LastTick
	}
	return s
}

func cloneDefaults() map[models.DesireName]float64 {
	out := make(map[models.DesireName]float64, len(defaultLevels))
	for k, v := range defaultLevels {
		out[k] = v
	}
	return out
}

// Tick advances every desire's level by elapsed-seconds × growth rate,
// clamped to 1.0, and persists the result.
func (s *State) Tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed := now.Sub(s.lastTick).Seconds()
	if elapsed > 0 {
		for name, rate := range growthRates {
			if rate == 0 {
				continue
			}
			s.levels[name] = clamp(s.levels[name] + elapsed*rate)
		}
	}
	s.lastTick = now
	s.save()
}

// Satisfy resets name to its default level. Idempotent: applying it
// twice in a row is equivalent to applying it once.
func (s *State) Satisfy(name models.DesireName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[name] = defaultLevels[name]
	s.save()
}

// Boost adds amount to name's level, clamped to 1.0. Two boosts compose:
// Boost(x,a) then Boost(x,b) equals Boost(x,a+b) up to clamping.
func (s *State) Boost(name models.DesireName, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[name] = clamp(s.levels[name] + amount)
	s.save()
}

// Dominant is the winning desire and whether get_dominant found one.
type Dominant struct {
	Name  models.DesireName
	Level float64
}

// GetDominant ticks first, then returns the highest-level desire whose
// level is >= DominantThreshold, or ok=false if none qualifies.
func (s *State) GetDominant(now time.Time) (Dominant, bool) {
	s.Tick(now)

	s.mu.Lock()
	defer s.mu.Unlock()
	var best Dominant
	found := false
	for _, name := range models.AllDesires {
		level := s.levels[name]
		if level < DominantThreshold {
			continue
		}
		if !found || level > best.Level {
			best = Dominant{Name: name, Level: level}
			found = true
		}
	}
	return best, found
}

// CuriosityTarget returns the persisted curiosity target, if any.
func (s *State) CuriosityTarget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// SetCuriosityTarget updates the curiosity target and persists it.
func (s *State) SetCuriosityTarget(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = target
	s.save()
}

// ClearCuriosityTarget clears the curiosity target.
func (s *State) ClearCuriosityTarget() {
	s.SetCuriosityTarget("")
}

// Level reads one desire's current level without ticking.
func (s *State) Level(name models.DesireName) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[name]
}

// save persists the state to disk. Caller must hold s.mu. Write failures
// are logged, not returned: desire persistence is best-effort, matching
// the "partial writes tolerated" resource-model guarantee.
func (s *State) save() {
	snapshot := models.DesireState{
		Levels:          make(map[models.DesireName]float64, len(s.levels)),
		CuriosityTarget: s.target,
		LastTick:        s.lastTick,
	}
	for k, v := range s.levels {
		snapshot.Levels[k] = v
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		s.logger.Warn("desire: marshal failed", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Warn("desire: mkdir failed", "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Warn("desire: save failed", "path", s.path, "error", err)
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
