package round_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crab.casa/puzzle-tournament/internal/challenge/hashcash"
	"crab.casa/puzzle-tournament/internal/protocol"
	"crab.casa/puzzle-tournament/internal/registry"
	"crab.casa/puzzle-tournament/internal/round"
)

func newGameWithTwoPlayers(t *testing.T, duration time.Duration) (*round.Game, string, string) {
	t.Helper()
	reg := registry.New()
	alice := reg.Insert("conn-alice")
	reg.Activate(alice.ConnID, "alice")
	bob := reg.Insert("conn-bob")
	reg.Activate(bob.ConnID, "bob")

	g := round.New("MD5HashCash", duration, reg, rand.New(rand.NewSource(1)), nil)
	return g, alice.ConnID, bob.ConnID
}

func TestStartRoundFailsWithNoActivePlayers(t *testing.T) {
	reg := registry.New()
	g := round.New("MD5HashCash", time.Second, reg, rand.New(rand.NewSource(1)), nil)
	_, err := g.StartRound()
	assert.Error(t, err)
}

func TestStartRoundPicksAnActivePlayer(t *testing.T) {
	g, _, _ := newGameWithTwoPlayers(t, time.Second)
	r, err := g.StartRound()
	require.NoError(t, err)
	assert.Contains(t, []string{"alice", "bob"}, r.Active)
	assert.NotNil(t, r.Challenge)
}

func TestAcceptResultRollsForwardOnValidAnswer(t *testing.T) {
	g, aliceConn, _ := newGameWithTwoPlayers(t, time.Minute)
	r, err := g.StartRound()
	require.NoError(t, err)
	r.Active = "alice"

	// Force a trivially-solvable challenge so we can submit a correct answer.
	ct := r.Challenge.(protocol.MD5HashCash)
	ct.Complexity = 0
	r.Challenge = ct

	sol, err := hashcash.Solve(context.Background(), ct.Message, ct.Complexity, 1, 10)
	require.NoError(t, err)

	outcome, err := g.AcceptResult(aliceConn, "alice", protocol.ChallengeResult{
		Answer:     fmt.Sprintf("%d:%s", sol.Seed, sol.Hash),
		NextTarget: "bob",
	})
	require.NoError(t, err)
	assert.False(t, outcome.RoundExpired)
	assert.Equal(t, "bob", r.Active)
}

func TestAcceptResultExpiresRoundAndPenalizesLaggard(t *testing.T) {
	g, aliceConn, _ := newGameWithTwoPlayers(t, time.Nanosecond)
	r, err := g.StartRound()
	require.NoError(t, err)
	r.Active = "alice"
	time.Sleep(time.Millisecond)

	outcome, err := g.AcceptResult(aliceConn, "alice", protocol.ChallengeResult{
		Answer:     "wrong",
		NextTarget: "bob",
	})
	require.NoError(t, err)
	assert.True(t, outcome.RoundExpired)
	require.NotNil(t, outcome.NewRound)

	p, ok := g.Registry.ByName("alice")
	require.True(t, ok)
	assert.Equal(t, int64(-1), p.Score)
}

func TestAcceptResultWithNoCurrentRoundFails(t *testing.T) {
	g, aliceConn, _ := newGameWithTwoPlayers(t, time.Minute)
	_, err := g.AcceptResult(aliceConn, "alice", protocol.ChallengeResult{Answer: "x", NextTarget: "bob"})
	assert.Error(t, err)
}

type fakeMazeCatalog struct{ grids []string }

func (c fakeMazeCatalog) Grids() []string { return c.grids }

func TestStartRoundSamplesFromMazeCatalogWhenConfigured(t *testing.T) {
	reg := registry.New()
	alice := reg.Insert("conn-alice")
	reg.Activate(alice.ConnID, "alice")

	catalog := fakeMazeCatalog{grids: []string{"#####\n#I  #\n# # #\n#  X#\n#####"}}
	g := round.New("MonstrousMaze", time.Minute, reg, rand.New(rand.NewSource(1)), catalog)

	r, err := g.StartRound()
	require.NoError(t, err)
	mm, ok := r.Challenge.(protocol.MonstrousMaze)
	require.True(t, ok)
	assert.Equal(t, catalog.grids[0], mm.Grid)
}

func TestRecordUnreachableInactivatesPlayer(t *testing.T) {
	g, _, _ := newGameWithTwoPlayers(t, time.Minute)
	g.RecordUnreachable("bob")
	_, ok := g.Registry.ByName("bob")
	assert.False(t, ok)

	chain := g.Chain()
	require.Len(t, chain, 1)
	_, isUnreachable := chain[0].(protocol.UnreachableResult)
	assert.True(t, isUnreachable)
}
