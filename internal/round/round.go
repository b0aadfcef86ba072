// Package round implements the Game/Round lifecycle from spec.md §3/§4.7:
// the server-owned state machine that starts rounds, hands a challenge to
// the active player, accepts and verifies results, and docks a point from
// the active player on expiry. Timing fields use the well-known protobuf types
// (google.golang.org/protobuf/types/known/{timestamppb,durationpb}) the
// teacher already depends on for RPC payloads — kept here purely as an
// internal timing representation; the wire protocol stays the
// length-prefixed JSON codec in internal/protocol.
package round

import (
	"math/rand"
	"sync"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"crab.casa/puzzle-tournament/internal/challenge"
	"crab.casa/puzzle-tournament/internal/protocol"
	"crab.casa/puzzle-tournament/internal/ptserr"
	"crab.casa/puzzle-tournament/internal/registry"
)

// Round is one in-flight challenge cycle: who is solving, which challenge,
// and when it started and was last resolved.
type Round struct {
	Solvers      map[string]bool
	Start        *timestamppb.Timestamp
	LastResolved *timestamppb.Timestamp
	Duration     *durationpb.Duration
	Active       string
	Challenge    protocol.ChallengeType
}

func newRound(active string, challengeType protocol.ChallengeType, duration time.Duration) *Round {
	now := timestamppb.Now()
	return &Round{
		Solvers:      make(map[string]bool),
		Start:        now,
		LastResolved: now,
		Duration:     durationpb.New(duration),
		Active:       active,
		Challenge:    challengeType,
	}
}

// elapsedSince reports the duration between r.Start and now.
func (r *Round) elapsedSince(now time.Time) time.Duration {
	return now.Sub(r.Start.AsTime())
}

func (r *Round) expired(now time.Time) bool {
	return r.elapsedSince(now) > r.Duration.AsDuration()
}

// Game is the full per-tournament state: one fixed challenge kind, a
// round-duration budget, the shared registry, and the append-only result
// chain (spec.md §3's "chain of results").
type Game struct {
	GameType      string // "MD5HashCash" | "RecoverSecret" | "MonstrousMaze"
	RoundDuration time.Duration
	Registry      *registry.Registry
	Rand          *rand.Rand
	Mazes         challenge.MazeCatalog // nil when no --maze-catalog-path was loaded

	mu       sync.Mutex
	current  *Round
	chain    []protocol.ResultEntry
	archived []*Round
}

// New builds a Game with no current round; call StartRound to begin play.
// mazes may be nil, in which case MonstrousMaze rounds always generate a
// fresh maze instead of sampling from a catalog.
func New(gameType string, roundDuration time.Duration, reg *registry.Registry, rng *rand.Rand, mazes challenge.MazeCatalog) *Game {
	return &Game{
		GameType:      gameType,
		RoundDuration: roundDuration,
		Registry:      reg,
		Rand:          rng,
		Mazes:         mazes,
	}
}

// StartRound creates a fresh Round: a uniformly random active player from
// the registry and a freshly generated challenge instance of the game's
// configured type. Returns ptserr.ErrNoActivePlayer if the registry has no
// active player to dispatch to.
func (g *Game) StartRound() (*Round, error) {
	player, ok := g.Registry.RandomActive(g.Rand)
	if !ok {
		return nil, ptserr.ErrNoActivePlayer
	}

	ct := challenge.Generate(g.GameType, g.Rand, g.Mazes)
	round := newRound(player.Name, ct, g.RoundDuration)

	g.mu.Lock()
	g.current = round
	g.mu.Unlock()

	return round, nil
}

// Current returns the in-flight round, or nil if none has started.
func (g *Game) Current() *Round {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Chain returns a snapshot of the game's accumulated result chain.
func (g *Game) Chain() []protocol.ResultEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]protocol.ResultEntry, len(g.chain))
	copy(out, g.chain)
	return out
}

// Outcome is the disposition AcceptResult reached, so the protocol state
// machine knows what else to do (dispatch a new challenge, mark a player
// unreachable, or nothing further).
type Outcome struct {
	Entry       protocol.ResultEntry
	RoundExpired bool
	NewRound    *Round // non-nil when RoundExpired
}

// AcceptResult implements spec.md §4.7's "Accept challenge result": verify
// the answer, credit the reporter on success, append to the chain, and
// either roll the round's active player forward to next_target or, if the
// round's duration has elapsed, penalize the laggard and start a new
// round.
func (g *Game) AcceptResult(reporterConnID string, reporterName string, result protocol.ChallengeResult) (Outcome, error) {
	g.mu.Lock()
	round := g.current
	g.mu.Unlock()
	if round == nil {
		return Outcome{}, ptserr.ErrNoCurrentChallenge
	}

	now := time.Now()
	valid := challenge.Verify(round.Challenge, result.Answer)

	var entry protocol.ResultEntry
	if valid {
		usedTime := now.Sub(round.LastResolved.AsTime()).Microseconds()
		g.Registry.CreditResult(reporterConnID, usedTime)
		entry = protocol.OkResult{UsedTimeMicros: usedTime, NextTarget: result.NextTarget}
	} else {
		usedTime := now.Sub(round.LastResolved.AsTime()).Microseconds()
		entry = protocol.BadResultEntry{UsedTimeMicros: usedTime, NextTarget: result.NextTarget}
	}

	g.mu.Lock()
	g.chain = append(g.chain, entry)
	round.LastResolved = timestamppb.New(now)
	expired := round.expired(now)
	var newRoundPtr *Round
	if expired {
		g.Registry.DecrementScoreByName(round.Active)
		g.archived = append(g.archived, round)
	} else {
		round.Active = result.NextTarget
	}
	g.mu.Unlock()

	if expired {
		fresh, err := g.StartRound()
		if err != nil {
			return Outcome{}, err
		}
		newRoundPtr = fresh
	}

	return Outcome{Entry: entry, RoundExpired: expired, NewRound: newRoundPtr}, nil
}

// MarkUnreachable implements spec.md §4.7's "Unreachable" handling: the
// named next-target is dead, so inactivate them in the registry. Callers
// append an UnreachableResult to the chain themselves via RecordUnreachable.
func (g *Game) MarkUnreachable(name string) {
	g.Registry.MarkInactiveByName(name)
}

// RecordUnreachable appends an UnreachableResult to the chain and
// inactivates name in one step.
func (g *Game) RecordUnreachable(name string) {
	g.mu.Lock()
	g.chain = append(g.chain, protocol.UnreachableResult{})
	g.mu.Unlock()
	g.MarkUnreachable(name)
}

// RecordTimeout appends a TimeoutResult to the chain without touching any
// player's credit, used when a round is force-expired with no reported
// result at all.
func (g *Game) RecordTimeout() {
	g.mu.Lock()
	g.chain = append(g.chain, protocol.TimeoutResult{})
	g.mu.Unlock()
}

// Summary builds the RoundSummary message for the round just retired.
func Summary(round *Round, chain []protocol.ResultEntry) protocol.RoundSummary {
	return protocol.RoundSummary{Challenge: round.Challenge, Chain: chain}
}
