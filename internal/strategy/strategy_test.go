package strategy_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crab.casa/puzzle-tournament/internal/registry"
	"crab.casa/puzzle-tournament/internal/strategy"
)

func board() []registry.Player {
	return []registry.Player{
		{Name: "alice", Score: 5, IsActive: true},
		{Name: "bob", Score: 10, IsActive: true},
		{Name: "carol", Score: -3, IsActive: true},
		{Name: "dave", Score: 99, IsActive: false}, // inactive: never eligible
	}
}

func TestTopPicksMaxScoreExcludingSelf(t *testing.T) {
	target, err := strategy.Top{}.NextTarget(board(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", target)
}

func TestBottomPicksMinScoreExcludingSelf(t *testing.T) {
	target, err := strategy.Bottom{}.NextTarget(board(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "carol", target)
}

func TestRandomReturnsOnlyActiveOthers(t *testing.T) {
	s := strategy.Random{Rand: rand.New(rand.NewSource(42))}
	for i := 0; i < 20; i++ {
		target, err := s.NextTarget(board(), "alice")
		require.NoError(t, err)
		assert.NotEqual(t, "alice", target)
		assert.NotEqual(t, "dave", target) // inactive
	}
}

func TestStrategyFailsWithNoEligibleTarget(t *testing.T) {
	solo := []registry.Player{{Name: "alice", Score: 1, IsActive: true}}
	_, err := strategy.Top{}.NextTarget(solo, "alice")
	assert.Error(t, err)
}

func TestParseDefaultsToRandomOnUnknownName(t *testing.T) {
	s := strategy.Parse("nonsense", rand.New(rand.NewSource(1)))
	_, ok := s.(strategy.Random)
	assert.True(t, ok)
}
