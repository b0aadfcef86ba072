// Package challenge is the dispatch layer spec.md §9 calls for: one place
// that maps a protocol.ChallengeType to the concrete engine that solves,
// verifies, and generates it, so the round engine and client never
// type-switch on challenge variants themselves. Each engine package
// (hashcash, recoversecret, monstrousmaze) stays ignorant of the wire
// protocol; this package is the only one that imports both sides.
package challenge

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"crab.casa/puzzle-tournament/internal/challenge/hashcash"
	"crab.casa/puzzle-tournament/internal/challenge/monstrousmaze"
	"crab.casa/puzzle-tournament/internal/challenge/recoversecret"
	"crab.casa/puzzle-tournament/internal/protocol"
	"crab.casa/puzzle-tournament/internal/ptserr"
)

// Dictionary backs RecoverSecret's sentence mode; internal/assets supplies
// the loaded-wordlist implementation.
type Dictionary = recoversecret.Dictionary

// MazeCatalog backs MonstrousMaze's "sample from a catalog" generation
// path; internal/assets supplies the loaded-catalog implementation.
type MazeCatalog interface {
	Grids() []string
}

// Verify checks a client's submitted answer against the challenge that was
// issued, independent of how it was produced (solved honestly or guessed).
func Verify(ct protocol.ChallengeType, answer string) bool {
	switch v := ct.(type) {
	case protocol.MD5HashCash:
		return verifyHashCash(v, answer)
	case protocol.RecoverSecret:
		return recoversecret.Validate(recoversecret.Instance{
			WordCount:  v.WordCount,
			Letters:    v.Letters,
			TupleSizes: v.TupleSizes,
		}, answer)
	case protocol.MonstrousMaze:
		return monstrousmaze.Validate(monstrousmaze.Instance{
			Grid:      v.Grid,
			Endurance: v.Endurance,
		}, answer)
	default:
		return false
	}
}

func verifyHashCash(v protocol.MD5HashCash, answer string) bool {
	seed, hash, ok := splitHashCashAnswer(answer)
	if !ok {
		return false
	}
	return hashcash.Verify(seed, hash, v.Message, v.Complexity)
}

// Solve runs the appropriate engine against ct, using workers/sliceSize for
// MD5HashCash and dict for RecoverSecret's sentence mode (nil falls back to
// sequence mode, matching spec.md §6's "--load-dictionary is optional").
func Solve(ctx context.Context, ct protocol.ChallengeType, workers, sliceSize int, dict Dictionary) (string, error) {
	switch v := ct.(type) {
	case protocol.MD5HashCash:
		sol, err := hashcash.Solve(ctx, v.Message, v.Complexity, workers, sliceSize)
		if err != nil {
			return "", err
		}
		return joinHashCashAnswer(sol), nil
	case protocol.RecoverSecret:
		instance := recoversecret.Instance{WordCount: v.WordCount, Letters: v.Letters, TupleSizes: v.TupleSizes}
		if dict != nil {
			return recoversecret.SolveSentence(instance, dict)
		}
		return recoversecret.SolveSequence(instance)
	case protocol.MonstrousMaze:
		return monstrousmaze.Solve(monstrousmaze.Instance{Grid: v.Grid, Endurance: v.Endurance})
	default:
		return "", ptserr.ErrNoSolution
	}
}

// Generate produces a random instance of the named challenge kind
// ("MD5HashCash" | "RecoverSecret" | "MonstrousMaze"). The round engine
// calls this once per round to build the instance it hands to the active
// player. mazes is consulted only for MonstrousMaze: when it is non-nil and
// has at least one grid loaded, a round samples from it instead of
// generating a fresh maze, per spec.md §6's "maze catalog" static asset.
func Generate(kind string, rng *rand.Rand, mazes MazeCatalog) protocol.ChallengeType {
	switch kind {
	case "RecoverSecret":
		inst := recoversecret.Generate(2, rng)
		return protocol.RecoverSecret{WordCount: inst.WordCount, Letters: inst.Letters, TupleSizes: inst.TupleSizes}
	case "MonstrousMaze":
		if mazes != nil {
			if grids := mazes.Grids(); len(grids) > 0 {
				inst := monstrousmaze.GenerateFromCatalog(grids, rng)
				return protocol.MonstrousMaze{Grid: inst.Grid, Endurance: inst.Endurance}
			}
		}
		inst := monstrousmaze.Generate(15, 10, rng)
		return protocol.MonstrousMaze{Grid: inst.Grid, Endurance: inst.Endurance}
	default:
		return protocol.MD5HashCash{Complexity: uint8(5 + rng.Intn(19)), Message: randomMessage(rng)}
	}
}

// MD5HashCash's proof-of-work is a (seed, hash) pair, but spec.md's wire
// format carries a single "answer" string. We encode the pair as
// "<seed>:<hash>", mirroring how the Rust source's ChallengeAnswer enum
// wraps MD5HashCashOutput{seed, hashcode} — collapsed to the flat string
// the simplified wire protocol expects.
func joinHashCashAnswer(sol hashcash.Solution) string {
	return fmt.Sprintf("%d:%s", sol.Seed, sol.Hash)
}

func splitHashCashAnswer(answer string) (seed uint64, hash string, ok bool) {
	seedStr, hash, found := strings.Cut(answer, ":")
	if !found {
		return 0, "", false
	}
	seed, err := strconv.ParseUint(seedStr, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return seed, hash, true
}

const messageAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generatedMessageLength matches spec.md §3's Challenge-instance invariant
// for server-generated MD5HashCash rounds: message is exactly 16 ASCII
// characters.
const generatedMessageLength = 16

func randomMessage(rng *rand.Rand) string {
	out := make([]byte, generatedMessageLength)
	for i := range out {
		out[i] = messageAlphabet[rng.Intn(len(messageAlphabet))]
	}
	return string(out)
}
