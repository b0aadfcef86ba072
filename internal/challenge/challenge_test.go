package challenge_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crab.casa/puzzle-tournament/internal/challenge"
	"crab.casa/puzzle-tournament/internal/protocol"
)

func TestSolveAndVerifyHashCashRoundTrip(t *testing.T) {
	ct := protocol.MD5HashCash{Complexity: 5, Message: "hello world"}
	answer, err := challenge.Solve(context.Background(), ct, 4, 500, nil)
	require.NoError(t, err)
	assert.True(t, challenge.Verify(ct, answer))
}

func TestVerifyRejectsMalformedHashCashAnswer(t *testing.T) {
	ct := protocol.MD5HashCash{Complexity: 5, Message: "hello world"}
	assert.False(t, challenge.Verify(ct, "not-a-valid-answer"))
}

func TestSolveAndVerifyRecoverSecretSequenceMode(t *testing.T) {
	ct := protocol.RecoverSecret{WordCount: 1, Letters: "iffiiilfatroridato", TupleSizes: []int{3, 3, 3, 3, 3, 3}}
	answer, err := challenge.Solve(context.Background(), ct, 0, 0, nil)
	require.NoError(t, err)
	assert.True(t, challenge.Verify(ct, answer))
}

func TestSolveAndVerifyMonstrousMaze(t *testing.T) {
	ct := protocol.MonstrousMaze{Grid: "#####\n#I  #\n# # #\n#  X#\n#####", Endurance: 2}
	answer, err := challenge.Solve(context.Background(), ct, 0, 0, nil)
	require.NoError(t, err)
	assert.True(t, challenge.Verify(ct, answer))
}

func TestGenerateProducesAnInstanceForEveryKind(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, kind := range []string{"MD5HashCash", "RecoverSecret", "MonstrousMaze"} {
		ct := challenge.Generate(kind, rng, nil)
		require.NotNil(t, ct)
	}
}

func TestGenerateMonstrousMazeSamplesFromCatalog(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	catalog := fakeMazeCatalog{grids: []string{"#####\n#I  #\n# # #\n#  X#\n#####"}}
	ct := challenge.Generate("MonstrousMaze", rng, catalog)
	mm, ok := ct.(protocol.MonstrousMaze)
	require.True(t, ok)
	assert.Equal(t, catalog.grids[0], mm.Grid)
}

type fakeMazeCatalog struct{ grids []string }

func (c fakeMazeCatalog) Grids() []string { return c.grids }
