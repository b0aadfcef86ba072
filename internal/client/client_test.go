package client_test

import (
	"context"
	"io"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crab.casa/puzzle-tournament/internal/client"
	"crab.casa/puzzle-tournament/internal/logging"
	"crab.casa/puzzle-tournament/internal/protocol"
	"crab.casa/puzzle-tournament/internal/strategy"
)

// fakeServer is a minimal, hand-driven stand-in for internal/server used to
// exercise the client's message loop in isolation.
func fakeServer(t *testing.T) (addr string, accept func() net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	connCh := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			connCh <- c
		}
	}()

	return ln.Addr().String(), func() (conn net.Conn) {
		select {
		case c := <-connCh:
			return c
		case <-time.After(2 * time.Second):
			t.Fatal("server never accepted a connection")
			return nil
		}
	}
}

func TestRunCompletesHandshakeAndExitsOnEndOfGame(t *testing.T) {
	addr, accept := fakeServer(t)

	cfg := client.Config{
		Username:        "alice",
		Addr:            addr,
		ThreadCount:     2,
		ThreadSeedSlice: 200,
		Strategy:        strategy.Random{Rand: rand.New(rand.NewSource(1))},
		Log:             logging.New("error", io.Discard),
	}
	c, err := client.Dial(cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	serverSide := accept()
	defer serverSide.Close()

	hello, err := protocol.ReadMessage(serverSide)
	require.NoError(t, err)
	_, ok := hello.(protocol.Hello)
	require.True(t, ok)
	require.NoError(t, protocol.WriteMessage(serverSide, protocol.Welcome{Version: 1}))

	sub, err := protocol.ReadMessage(serverSide)
	require.NoError(t, err)
	sv, ok := sub.(protocol.Subscribe)
	require.True(t, ok)
	assert.Equal(t, "alice", sv.Name)
	require.NoError(t, protocol.WriteMessage(serverSide, protocol.SubscribeResult{Outcome: protocol.SubscribeOk{}}))

	require.NoError(t, protocol.WriteMessage(serverSide, protocol.EndOfGame{}))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client.Run did not return after EndOfGame")
	}
}

func TestRunSolvesAndRespondsToChallenge(t *testing.T) {
	addr, accept := fakeServer(t)

	cfg := client.Config{
		Username:        "alice",
		Addr:            addr,
		ThreadCount:     2,
		ThreadSeedSlice: 200,
		Strategy:        strategy.Random{Rand: rand.New(rand.NewSource(1))},
		Log:             logging.New("error", io.Discard),
	}
	c, err := client.Dial(cfg)
	require.NoError(t, err)

	go func() { _ = c.Run(context.Background()) }()

	serverSide := accept()
	defer serverSide.Close()

	_, _ = protocol.ReadMessage(serverSide)
	require.NoError(t, protocol.WriteMessage(serverSide, protocol.Welcome{Version: 1}))
	_, _ = protocol.ReadMessage(serverSide)
	require.NoError(t, protocol.WriteMessage(serverSide, protocol.SubscribeResult{Outcome: protocol.SubscribeOk{}}))

	require.NoError(t, protocol.WriteMessage(serverSide, protocol.PublicLeaderBoard{
		{Name: "alice", IsActive: true},
		{Name: "bob", IsActive: true},
	}))
	require.NoError(t, protocol.WriteMessage(serverSide, protocol.Challenge{
		Type: protocol.MD5HashCash{Complexity: 0, Message: "race"},
	}))

	serverSide.SetReadDeadline(time.Now().Add(3 * time.Second))
	msg, err := protocol.ReadMessage(serverSide)
	require.NoError(t, err)
	cr, ok := msg.(protocol.ChallengeResult)
	require.True(t, ok)
	assert.NotEmpty(t, cr.Answer)
	assert.NotEmpty(t, cr.NextTarget)
}
