// Package protocol implements the length-prefixed JSON wire format and the
// externally-tagged Message sum type described by the tournament protocol:
// hello -> subscribe -> leaderboard -> per-round challenge/result/summary ->
// end-of-game. It generalizes the teacher's plain struct-plus-json.Marshal
// idiom (compare items/player_rpc.go, notify/notify.go) into a closed set of
// variants, the way republicprotocol/tau models inter-task traffic as a
// Message marker interface with one concrete type per kind
// (core/task/message.go) — used here only as a style reference, since that
// example carries no go.mod to pin a dependency version.
package protocol

import (
	"encoding/json"
	"fmt"

	"crab.casa/puzzle-tournament/internal/ptserr"
)

var errBadEnvelope = ptserr.ErrBadEnvelope

// Message is the externally-tagged sum type carried by every frame.
type Message interface {
	isMessage()
}

// Player is the public, wire-serializable view of a registry entry.
type Player struct {
	Name          string `json:"name"`
	StreamID      string `json:"stream_id"`
	Score         int64  `json:"score"`
	Steps         uint64 `json:"steps"`
	IsActive      bool   `json:"is_active"`
	TotalUsedTime int64  `json:"total_used_time"`
}

// Unit variants: no payload, encoded as a bare JSON string.
type (
	Hello               struct{}
	StartGame           struct{}
	EndOfCommunication  struct{}
)

func (Hello) isMessage()              {}
func (StartGame) isMessage()          {}
func (EndOfCommunication) isMessage() {}

// Welcome carries the protocol version the server speaks.
type Welcome struct {
	Version int `json:"version"`
}

func (Welcome) isMessage() {}

// Subscribe is the client's request to take the given name.
type Subscribe struct {
	Name string `json:"name"`
}

func (Subscribe) isMessage() {}

// SubscribeResult reports whether the requested name was accepted.
type SubscribeResult struct {
	Outcome SubscribeOutcome
}

func (SubscribeResult) isMessage() {}

// SubscribeOutcome is the nested Ok|Err(kind) sum carried by SubscribeResult.
type SubscribeOutcome interface {
	isOutcome()
}

type SubscribeOk struct{}

func (SubscribeOk) isOutcome() {}

type SubscribeErr struct {
	Kind string // "AlreadyRegistered" | "InvalidName"
}

func (SubscribeErr) isOutcome() {}

const (
	SubscribeErrAlreadyRegistered = "AlreadyRegistered"
	SubscribeErrInvalidName       = "InvalidName"
)

// PublicLeaderBoard is a bare sequence of players, tagged at the Message
// level only — the payload itself is a JSON array, not an object.
type PublicLeaderBoard []Player

func (PublicLeaderBoard) isMessage() {}

// Challenge carries one concrete challenge instance to the active player.
type Challenge struct {
	Type ChallengeType
}

func (Challenge) isMessage() {}

// ChallengeType is the tagged variant described in spec.md §3: exactly one
// of MD5HashCash, RecoverSecret, or MonstrousMaze carries concrete inputs.
// Kept as a closed interface rather than a dynamic-dispatch object so the
// solver/verifier/generator stay total functions on one arm (spec.md §9).
type ChallengeType interface {
	isChallengeType()
}

type MD5HashCash struct {
	Complexity uint8  `json:"complexity"`
	Message    string `json:"message"`
}

func (MD5HashCash) isChallengeType() {}

type RecoverSecret struct {
	WordCount  int    `json:"word_count"`
	Letters    string `json:"letters"`
	TupleSizes []int  `json:"tuple_sizes"`
}

func (RecoverSecret) isChallengeType() {}

type MonstrousMaze struct {
	Grid      string `json:"grid"`
	Endurance int    `json:"endurance"`
}

func (MonstrousMaze) isChallengeType() {}

// ChallengeResult is the client's report for the currently-active challenge.
type ChallengeResult struct {
	Answer     string `json:"answer"`
	NextTarget string `json:"next_target"`
}

func (ChallengeResult) isMessage() {}

// RoundSummary carries the challenge just retired and the chain of reported
// results accumulated against it.
type RoundSummary struct {
	Challenge ChallengeType   `json:"-"`
	Chain     []ResultEntry   `json:"-"`
}

func (RoundSummary) isMessage() {}

// ResultEntry is one append to the game's chain (spec.md §3 "Challenge
// result"): Ok|BadResult carry timing and a hand-off target; Timeout and
// Unreachable are unit variants.
type ResultEntry interface {
	isResultEntry()
}

type OkResult struct {
	UsedTimeMicros int64  `json:"used_time"`
	NextTarget     string `json:"next_target"`
}

func (OkResult) isResultEntry() {}

type BadResultEntry struct {
	UsedTimeMicros int64  `json:"used_time"`
	NextTarget     string `json:"next_target"`
}

func (BadResultEntry) isResultEntry() {}

type TimeoutResult struct{}

func (TimeoutResult) isResultEntry() {}

type UnreachableResult struct{}

func (UnreachableResult) isResultEntry() {}

// EndOfGame carries the final leaderboard.
type EndOfGame struct {
	LeaderBoard []Player `json:"leader_board"`
}

func (EndOfGame) isMessage() {}

// --- externally-tagged encoding -------------------------------------------------

// taggedUnit/taggedObject are the two shapes an externally-tagged enum can
// take on the wire: a bare string for a no-payload variant, or a
// single-key object mapping the tag to its payload.

func marshalUnit(tag string) ([]byte, error) {
	return json.Marshal(tag)
}

func marshalTagged(tag string, payload interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{tag: payload})
}

// splitTag inspects a JSON value and returns either (tag, nil, true) for a
// bare-string unit variant, or (tag, rawPayload, false) for a single-key
// tagged object. An envelope with zero or more than one key is malformed.
func splitTag(data []byte) (tag string, payload json.RawMessage, isUnit bool, err error) {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		return asString, nil, true, nil
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(data, &asObject); err != nil {
		return "", nil, false, fmt.Errorf("%w: %v", errBadEnvelope, err)
	}
	if len(asObject) != 1 {
		return "", nil, false, fmt.Errorf("%w: expected exactly one tag, got %d", errBadEnvelope, len(asObject))
	}
	for k, v := range asObject {
		tag, payload = k, v
	}
	return tag, payload, false, nil
}

// Encode marshals a Message to its externally-tagged JSON representation.
func Encode(m Message) ([]byte, error) {
	switch v := m.(type) {
	case Hello:
		return marshalUnit("Hello")
	case StartGame:
		return marshalUnit("StartGame")
	case EndOfCommunication:
		return marshalUnit("EndOfCommunication")
	case Welcome:
		return marshalTagged("Welcome", v)
	case Subscribe:
		return marshalTagged("Subscribe", v)
	case SubscribeResult:
		payload, err := encodeOutcome(v.Outcome)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]json.RawMessage{"SubscribeResult": payload})
	case PublicLeaderBoard:
		return marshalTagged("PublicLeaderBoard", []Player(v))
	case Challenge:
		payload, err := encodeChallengeType(v.Type)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]json.RawMessage{"Challenge": payload})
	case ChallengeResult:
		return marshalTagged("ChallengeResult", v)
	case RoundSummary:
		challengePayload, err := encodeChallengeType(v.Challenge)
		if err != nil {
			return nil, err
		}
		chainPayload, err := encodeChain(v.Chain)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(map[string]json.RawMessage{
			"challenge": challengePayload,
			"chain":     chainPayload,
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]json.RawMessage{"RoundSummary": body})
	case EndOfGame:
		return marshalTagged("EndOfGame", v)
	default:
		return nil, fmt.Errorf("%w: unknown message type %T", errBadEnvelope, m)
	}
}

// Decode unmarshals a frame body into a Message. Per spec.md §4.1, an
// unparsable body is reported as (EndOfCommunication, non-nil error) so
// the caller can decide to terminate the connection without crashing.
func Decode(data []byte) (Message, error) {
	tag, payload, isUnit, err := splitTag(data)
	if err != nil {
		return EndOfCommunication{}, err
	}
	if isUnit {
		switch tag {
		case "Hello":
			return Hello{}, nil
		case "StartGame":
			return StartGame{}, nil
		case "EndOfCommunication":
			return EndOfCommunication{}, nil
		default:
			return EndOfCommunication{}, fmt.Errorf("%w: unknown unit tag %q", errBadEnvelope, tag)
		}
	}

	switch tag {
	case "Welcome":
		var v Welcome
		if err := json.Unmarshal(payload, &v); err != nil {
			return EndOfCommunication{}, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		return v, nil
	case "Subscribe":
		var v Subscribe
		if err := json.Unmarshal(payload, &v); err != nil {
			return EndOfCommunication{}, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		return v, nil
	case "SubscribeResult":
		outcome, err := decodeOutcome(payload)
		if err != nil {
			return EndOfCommunication{}, err
		}
		return SubscribeResult{Outcome: outcome}, nil
	case "PublicLeaderBoard":
		var v []Player
		if err := json.Unmarshal(payload, &v); err != nil {
			return EndOfCommunication{}, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		return PublicLeaderBoard(v), nil
	case "Challenge":
		ct, err := decodeChallengeType(payload)
		if err != nil {
			return EndOfCommunication{}, err
		}
		return Challenge{Type: ct}, nil
	case "ChallengeResult":
		var v ChallengeResult
		if err := json.Unmarshal(payload, &v); err != nil {
			return EndOfCommunication{}, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		return v, nil
	case "RoundSummary":
		var body struct {
			Challenge json.RawMessage `json:"challenge"`
			Chain     json.RawMessage `json:"chain"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return EndOfCommunication{}, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		ct, err := decodeChallengeType(body.Challenge)
		if err != nil {
			return EndOfCommunication{}, err
		}
		chain, err := decodeChain(body.Chain)
		if err != nil {
			return EndOfCommunication{}, err
		}
		return RoundSummary{Challenge: ct, Chain: chain}, nil
	case "EndOfGame":
		var v EndOfGame
		if err := json.Unmarshal(payload, &v); err != nil {
			return EndOfCommunication{}, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		return v, nil
	default:
		return EndOfCommunication{}, fmt.Errorf("%w: unknown tag %q", errBadEnvelope, tag)
	}
}

func encodeOutcome(o SubscribeOutcome) (json.RawMessage, error) {
	switch v := o.(type) {
	case SubscribeOk:
		return json.Marshal("Ok")
	case SubscribeErr:
		return json.Marshal(map[string]string{"Err": v.Kind})
	default:
		return nil, fmt.Errorf("%w: unknown subscribe outcome %T", errBadEnvelope, o)
	}
}

func decodeOutcome(data json.RawMessage) (SubscribeOutcome, error) {
	tag, payload, isUnit, err := splitTag(data)
	if err != nil {
		return nil, err
	}
	if isUnit {
		if tag == "Ok" {
			return SubscribeOk{}, nil
		}
		return nil, fmt.Errorf("%w: unknown subscribe outcome tag %q", errBadEnvelope, tag)
	}
	if tag != "Err" {
		return nil, fmt.Errorf("%w: unknown subscribe outcome tag %q", errBadEnvelope, tag)
	}
	var kind string
	if err := json.Unmarshal(payload, &kind); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadEnvelope, err)
	}
	return SubscribeErr{Kind: kind}, nil
}

func encodeChallengeType(ct ChallengeType) (json.RawMessage, error) {
	switch v := ct.(type) {
	case MD5HashCash:
		return json.Marshal(map[string]MD5HashCash{"MD5HashCash": v})
	case RecoverSecret:
		return json.Marshal(map[string]RecoverSecret{"RecoverSecret": v})
	case MonstrousMaze:
		return json.Marshal(map[string]MonstrousMaze{"MonstrousMaze": v})
	default:
		return nil, fmt.Errorf("%w: unknown challenge type %T", errBadEnvelope, ct)
	}
}

func decodeChallengeType(data json.RawMessage) (ChallengeType, error) {
	tag, payload, isUnit, err := splitTag(data)
	if err != nil {
		return nil, err
	}
	if isUnit {
		return nil, fmt.Errorf("%w: challenge type %q has no payload", errBadEnvelope, tag)
	}
	switch tag {
	case "MD5HashCash":
		var v MD5HashCash
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		return v, nil
	case "RecoverSecret":
		var v RecoverSecret
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		return v, nil
	case "MonstrousMaze":
		var v MonstrousMaze
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown challenge type tag %q", errBadEnvelope, tag)
	}
}

func encodeResultEntry(r ResultEntry) (json.RawMessage, error) {
	switch v := r.(type) {
	case OkResult:
		return json.Marshal(map[string]OkResult{"Ok": v})
	case BadResultEntry:
		return json.Marshal(map[string]BadResultEntry{"BadResult": v})
	case TimeoutResult:
		return json.Marshal("Timeout")
	case UnreachableResult:
		return json.Marshal("Unreachable")
	default:
		return nil, fmt.Errorf("%w: unknown result entry %T", errBadEnvelope, r)
	}
}

func decodeResultEntry(data json.RawMessage) (ResultEntry, error) {
	tag, payload, isUnit, err := splitTag(data)
	if err != nil {
		return nil, err
	}
	if isUnit {
		switch tag {
		case "Timeout":
			return TimeoutResult{}, nil
		case "Unreachable":
			return UnreachableResult{}, nil
		default:
			return nil, fmt.Errorf("%w: unknown result entry tag %q", errBadEnvelope, tag)
		}
	}
	switch tag {
	case "Ok":
		var v OkResult
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		return v, nil
	case "BadResult":
		var v BadResultEntry
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadEnvelope, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown result entry tag %q", errBadEnvelope, tag)
	}
}

func encodeChain(chain []ResultEntry) (json.RawMessage, error) {
	raws := make([]json.RawMessage, len(chain))
	for i, r := range chain {
		raw, err := encodeResultEntry(r)
		if err != nil {
			return nil, err
		}
		raws[i] = raw
	}
	return json.Marshal(raws)
}

func decodeChain(data json.RawMessage) ([]ResultEntry, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadEnvelope, err)
	}
	chain := make([]ResultEntry, len(raws))
	for i, raw := range raws {
		entry, err := decodeResultEntry(raw)
		if err != nil {
			return nil, err
		}
		chain[i] = entry
	}
	return chain, nil
}
