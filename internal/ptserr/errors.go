// Package ptserr defines the sentinel errors for the tournament core, grouped
// by taxonomy. Return these unwrapped where the taxonomy itself is the
// signal; wrap with fmt.Errorf("...: %w", ...) at call sites that need to
// attach context.
package ptserr

import "errors"

// Transport errors: socket read/write failure or a short read. The
// connection is terminated and the player is marked inactive; the game
// keeps running.
var (
	ErrShortRead  = errors.New("transport: short read on frame")
	ErrConnClosed = errors.New("transport: connection closed")
)

// Framing errors: malformed length prefix or non-UTF-8 / non-JSON body.
// Treated identically to Transport errors by the caller.
var (
	ErrFrameTooLarge = errors.New("framing: frame exceeds maximum length")
	ErrBadEnvelope   = errors.New("framing: unparsable message envelope")
)

// ProtocolViolation: unexpected message for the current state, or a
// ChallengeResult variant mismatched with the current challenge type.
// Fatal to the connection, not to the round.
var (
	ErrUnexpectedMessage  = errors.New("protocol: unexpected message for current state")
	ErrChallengeMismatch  = errors.New("protocol: challenge result does not match current challenge type")
	ErrNoCurrentChallenge = errors.New("protocol: no challenge is currently active")
)

// SubscriptionRejected: reported back to the client. The client treats
// either as fatal and exits.
var (
	ErrAlreadyRegistered = errors.New("subscribe: name already held by an active player")
	ErrInvalidName       = errors.New("subscribe: invalid name")
)

// SolverNoSolution: RecoverSecret/MonstrousMaze exhausted their search
// space without finding an answer. Reported as BadResult or Unreachable,
// never as a process-level failure.
var (
	ErrNoSolution = errors.New("solver: no solution found")
	ErrNoTarget   = errors.New("strategy: no eligible target player")
)

// RoundDeadlineExceeded: the round expired before a correct answer was
// accepted; the active player loses a point and a new round begins.
var ErrRoundDeadlineExceeded = errors.New("round: deadline exceeded")

// NoActivePlayer: the server has no active player left to dispatch to.
var ErrNoActivePlayer = errors.New("game: no active player to dispatch to")

// Asset errors: a requested dictionary or maze catalog could not be loaded.
// Loading is optional per spec, so callers downgrade this to "mode
// disabled" rather than failing startup.
var ErrAssetUnavailable = errors.New("assets: requested asset is unavailable")
