package protocol_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crab.casa/puzzle-tournament/internal/protocol"
)

func roundTrip(t *testing.T, m protocol.Message) protocol.Message {
	t.Helper()
	body, err := protocol.Encode(m)
	require.NoError(t, err)
	got, err := protocol.Decode(body)
	require.NoError(t, err)
	return got
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []protocol.Message{
		protocol.Hello{},
		protocol.StartGame{},
		protocol.EndOfCommunication{},
		protocol.Welcome{Version: 1},
		protocol.Subscribe{Name: "alice"},
		protocol.SubscribeResult{Outcome: protocol.SubscribeOk{}},
		protocol.SubscribeResult{Outcome: protocol.SubscribeErr{Kind: protocol.SubscribeErrAlreadyRegistered}},
		protocol.PublicLeaderBoard{
			{Name: "alice", StreamID: "s1", Score: 3, Steps: 2, IsActive: true, TotalUsedTime: 100},
			{Name: "bob", StreamID: "s2", Score: -1, Steps: 0, IsActive: false, TotalUsedTime: 0},
		},
		protocol.Challenge{Type: protocol.MD5HashCash{Complexity: 5, Message: "hello world"}},
		protocol.Challenge{Type: protocol.RecoverSecret{WordCount: 1, Letters: "abc", TupleSizes: []int{3}}},
		protocol.Challenge{Type: protocol.MonstrousMaze{Grid: "#I#\n#X#", Endurance: 2}},
		protocol.ChallengeResult{Answer: "42", NextTarget: "bob"},
		protocol.RoundSummary{
			Challenge: protocol.MD5HashCash{Complexity: 5, Message: "hello world"},
			Chain: []protocol.ResultEntry{
				protocol.OkResult{UsedTimeMicros: 10, NextTarget: "bob"},
				protocol.BadResultEntry{UsedTimeMicros: 20, NextTarget: "alice"},
				protocol.TimeoutResult{},
				protocol.UnreachableResult{},
			},
		},
		protocol.EndOfGame{LeaderBoard: []protocol.Player{{Name: "alice", StreamID: "s1"}}},
	}

	for _, m := range cases {
		got := roundTrip(t, m)
		assert.Equal(t, m, got)
	}
}

func TestDecodeTwiceIsIdempotent(t *testing.T) {
	body, err := protocol.Encode(protocol.Welcome{Version: 1})
	require.NoError(t, err)

	first, err1 := protocol.Decode(body)
	second, err2 := protocol.Decode(body)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}

func TestDecodeUnparsableBodyYieldsEndOfCommunication(t *testing.T) {
	m, err := protocol.Decode([]byte(`{"not":"a","known":"tag","too":"many"}`))
	require.Error(t, err)
	assert.Equal(t, protocol.EndOfCommunication{}, m)
}

func TestFrameRoundTripOverStream(t *testing.T) {
	var buf bytes.Buffer
	msgs := []protocol.Message{
		protocol.Hello{},
		protocol.Welcome{Version: 1},
		protocol.Subscribe{Name: "alice"},
	}
	for _, m := range msgs {
		require.NoError(t, protocol.WriteMessage(&buf, m))
	}

	for _, want := range msgs {
		got, err := protocol.ReadMessage(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestKeepaliveFrameIsIgnored(t *testing.T) {
	var buf bytes.Buffer
	// A zero-length frame (keepalive) followed by a real message.
	buf.Write([]byte{0, 0, 0, 0})
	require.NoError(t, protocol.WriteMessage(&buf, protocol.Hello{}))

	got, err := protocol.ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, protocol.Hello{}, got)
}

func TestShortReadCollapsesConnection(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 10}) // claims 10 bytes, provides none
	_, err := protocol.ReadMessage(&buf)
	require.Error(t, err)
}
