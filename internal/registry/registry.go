// Package registry implements the concurrent player collection described in
// spec.md §3/§4.6: a mapping from connection ID to Player, guarded by a
// single lock, with snapshot-returning iteration so callers never invoke a
// callback while holding the lock — generalizing the teacher's pattern of
// guarding shared game state behind one mutex and copying out before use
// (items/pending_writes.go batches writes under a single lock the same way).
package registry

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"crab.casa/puzzle-tournament/internal/protocol"
)

// Player is the server-side record for one connection. The connection ID
// is generated with uuid.New() (github.com/google/uuid, vendored by
// _examples/rclone-rclone) rather than a shared counter, so IDs stay
// globally unique without taking the registry lock just to mint one.
type Player struct {
	ConnID        string
	Name          string
	Score         int64
	Steps         uint64
	IsActive      bool
	TotalUsedTime int64
}

// Public converts the internal record to its wire representation.
func (p Player) Public() protocol.Player {
	return protocol.Player{
		Name:          p.Name,
		StreamID:      p.ConnID,
		Score:         p.Score,
		Steps:         p.Steps,
		IsActive:      p.IsActive,
		TotalUsedTime: p.TotalUsedTime,
	}
}

// NewConnID mints a fresh, globally-unique connection identifier.
func NewConnID() string {
	return uuid.NewString()
}

// Registry is the shared, lock-guarded player collection.
type Registry struct {
	mu      sync.Mutex
	players map[string]*Player // keyed by ConnID
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{players: make(map[string]*Player)}
}

// Insert adds a new, inactive Player placeholder for a freshly accepted
// connection. Per spec.md §3, the connection ID is used as the placeholder
// name until Subscribe succeeds.
func (r *Registry) Insert(connID string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &Player{ConnID: connID, Name: connID, IsActive: false}
	r.players[connID] = p
	return p
}

// Remove deletes the player record for a connection. Per spec.md §3, a
// player is never removed from the registry during a game; internal/server
// does not call Remove; its connection teardown inactivates the player
// with MarkInactive, so a connection that closes before subscribing stays
// behind as an inactive placeholder.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, connID)
}

// ByConnID looks up a player by connection ID.
func (r *Registry) ByConnID(connID string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[connID]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// ByName returns the first active player with the given name, enforcing
// invariant (iii) from spec.md §3: at most one active player per name.
func (r *Registry) ByName(name string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.IsActive && p.Name == name {
			return *p, true
		}
	}
	return Player{}, false
}

// IsNameTaken reports whether an active player already holds name.
func (r *Registry) IsNameTaken(name string) bool {
	_, ok := r.ByName(name)
	return ok
}

// Activate marks the connection's player active under the given name. The
// caller must already have checked IsNameTaken; Activate itself does not
// re-check to keep the check-then-act sequence observable to the protocol
// state machine, which holds no lock across the two calls but serializes
// all Subscribe handling onto a single goroutine per spec.md §4.8.
func (r *Registry) Activate(connID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[connID]
	if !ok {
		return false
	}
	p.Name = name
	p.IsActive = true
	return true
}

// MarkInactive marks the connection's player inactive, on disconnect or on
// an Unreachable result (spec.md §4.7).
func (r *Registry) MarkInactive(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[connID]; ok {
		p.IsActive = false
	}
}

// MarkInactiveByName marks inactive the active player with the given name,
// used when a round's next_target names a player that is no longer
// reachable by connection ID.
func (r *Registry) MarkInactiveByName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.IsActive && p.Name == name {
			p.IsActive = false
			return
		}
	}
}

// CreditResult folds a verified ChallengeResult into the reporting
// player's counters (spec.md §4.7 step 2): step count increments, and
// usedTimeMicros (elapsed since the round's last-resolved instant) is
// added to the player's total solving time.
func (r *Registry) CreditResult(connID string, usedTimeMicros int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[connID]; ok {
		p.Steps++
		p.TotalUsedTime += usedTimeMicros
	}
}

// DecrementScoreByName decrements the named active player's score by one,
// used by the round engine to penalize the laggard on round expiry
// (spec.md §4.7, §9 — preserved as documented, not "corrected").
func (r *Registry) DecrementScoreByName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.IsActive && p.Name == name {
			p.Score--
			return
		}
	}
}

// Active returns a snapshot of all currently-active players. Snapshotting
// under the lock and returning copies means callers never invoke
// user-supplied logic (a strategy, a JSON encoder) while the lock is held.
func (r *Registry) Active() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out
}

// PublicLeaderBoard is Active() converted to the wire representation,
// suitable for direct embedding in a protocol.PublicLeaderBoard message.
func (r *Registry) PublicLeaderBoard() []protocol.Player {
	active := r.Active()
	out := make([]protocol.Player, len(active))
	for i, p := range active {
		out[i] = p.Public()
	}
	return out
}

// RandomActive returns a uniformly random active player, or false if none
// are active.
func (r *Registry) RandomActive(rng *rand.Rand) (Player, bool) {
	active := r.Active()
	if len(active) == 0 {
		return Player{}, false
	}
	return active[rng.Intn(len(active))], true
}
