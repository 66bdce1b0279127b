package desire

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utenadev/familiar-ai/pkg/models"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "desires.json"), nil)
	assert.Equal(t, defaultLevels[models.DesireLookAround], s.Level(models.DesireLookAround))
	assert.Empty(t, s.CuriosityTarget())
}

func TestLoadCorruptFileResetsToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desires.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	s := Load(path, nil)
	assert.Equal(t, defaultLevels[models.DesireExplore], s.Level(models.DesireExplore))
}

func TestTickGrowsOnlyNonZeroRates(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "desires.json"), nil)
	before := s.Level(models.DesireGreetCompanion)
	s.Tick(s.lastTick.Add(1000 * time.Second))
	assert.Equal(t, before, s.Level(models.DesireGreetCompanion), "greet_companion has a zero growth rate")
	assert.Greater(t, s.Level(models.DesireLookAround), defaultLevels[models.DesireLookAround])
}

func TestTickClampsAtOne(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "desires.json"), nil)
	s.Tick(s.lastTick.Add(1_000_000 * time.Second))
	assert.LessOrEqual(t, s.Level(models.DesireLookAround), 1.0)
}

func TestBoostComposes(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "desires.json"), nil)
	s.Boost(models.DesireWorryCompanion, 0.3)
	s.Boost(models.DesireWorryCompanion, 0.3)
	assert.InDelta(t, 0.6, s.Level(models.DesireWorryCompanion), 1e-9)
}

func TestSatisfyResetsToDefault(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "desires.json"), nil)
	s.Boost(models.DesireRest, 0.9)
	s.Satisfy(models.DesireRest)
	assert.Equal(t, defaultLevels[models.DesireRest], s.Level(models.DesireRest))

	// Idempotent: applying Satisfy twice in a row is the same as once.
	s.Satisfy(models.DesireRest)
	assert.Equal(t, defaultLevels[models.DesireRest], s.Level(models.DesireRest))
}

func TestGetDominantRequiresThreshold(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "desires.json"), nil)
	_, ok := s.GetDominant(s.lastTick)
	assert.False(t, ok, "nothing should qualify from defaults alone")

	s.Boost(models.DesireExplore, 0.61)
	dominant, ok := s.GetDominant(s.lastTick)
	require.True(t, ok)
	assert.Equal(t, models.DesireExplore, dominant.Name)
}

func TestGetDominantPicksHighestLevel(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "desires.json"), nil)
	s.Boost(models.DesireExplore, 0.65)
	s.Boost(models.DesireWorryCompanion, 0.9)
	dominant, ok := s.GetDominant(s.lastTick)
	require.True(t, ok)
	assert.Equal(t, models.DesireWorryCompanion, dominant.Name)
}

func TestCuriosityTargetRoundTrips(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "desires.json"), nil)
	s.SetCuriosityTarget("the bookshelf")
	assert.Equal(t, "the bookshelf", s.CuriosityTarget())
	s.ClearCuriosityTarget()
	assert.Empty(t, s.CuriosityTarget())
}

func TestSavePersistsAcrossLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desires.json")
	s := Load(path, nil)
	s.Boost(models.DesireLookAround, 0.5)
	s.SetCuriosityTarget("the window")

	reloaded := Load(path, nil)
	assert.InDelta(t, s.Level(models.DesireLookAround), reloaded.Level(models.DesireLookAround), 1e-9)
	assert.Equal(t, "the window", reloaded.CuriosityTarget())
}
