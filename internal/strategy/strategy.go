// Package strategy implements the target-selection policies clients use to
// hand off the next round (spec.md §4.5, §9): a single operation,
// NextTarget, with three concrete, stateless-except-for-self-name variants.
// Kept as an interface with concrete implementations rather than a
// function table, mirroring the teacher's one-behavior-per-type style
// (items/rewards.go's reward-domain structs) generalized to a decision
// policy instead of a data payload.
package strategy

import (
	"math/rand"

	"crab.casa/puzzle-tournament/internal/ptserr"
	"crab.casa/puzzle-tournament/internal/registry"
)

// Strategy picks the next active player, other than self, to receive the
// next challenge.
type Strategy interface {
	NextTarget(board []registry.Player, self string) (string, error)
}

// eligible returns the subset of board whose name is active and not self.
func eligible(board []registry.Player, self string) []registry.Player {
	out := make([]registry.Player, 0, len(board))
	for _, p := range board {
		if p.IsActive && p.Name != self {
			out = append(out, p)
		}
	}
	return out
}

// Top picks the player with the maximum score; ties break on the
// leaderboard's iteration order (the first maximum encountered).
type Top struct{}

func (Top) NextTarget(board []registry.Player, self string) (string, error) {
	candidates := eligible(board, self)
	if len(candidates) == 0 {
		return "", ptserr.ErrNoTarget
	}
	best := candidates[0]
	for _, p := range candidates[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best.Name, nil
}

// Bottom picks the player with the minimum score; same tie rule as Top.
type Bottom struct{}

func (Bottom) NextTarget(board []registry.Player, self string) (string, error) {
	candidates := eligible(board, self)
	if len(candidates) == 0 {
		return "", ptserr.ErrNoTarget
	}
	best := candidates[0]
	for _, p := range candidates[1:] {
		if p.Score < best.Score {
			best = p
		}
	}
	return best.Name, nil
}

// Random picks uniformly among eligible players.
type Random struct {
	Rand *rand.Rand
}

func (s Random) NextTarget(board []registry.Player, self string) (string, error) {
	candidates := eligible(board, self)
	if len(candidates) == 0 {
		return "", ptserr.ErrNoTarget
	}
	r := s.Rand
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}
	return candidates[r.Intn(len(candidates))].Name, nil
}

// Parse resolves a CLI-supplied strategy name ("top", "bottom", "random")
// to a Strategy, defaulting to Random for an unrecognized name so client
// startup never fails over a flag typo — matching spec.md's
// "argument parsing ... excluded; they deliver typed configuration" stance:
// this is the one place the core decides what the typed configuration
// means once it arrives.
func Parse(name string, rng *rand.Rand) Strategy {
	switch name {
	case "top":
		return Top{}
	case "bottom":
		return Bottom{}
	default:
		return Random{Rand: rng}
	}
}
