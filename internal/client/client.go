// Package client implements the tournament client side of spec.md §4.8: a
// single connection that dials the server, subscribes under a name, then
// loops solving whatever Challenge it receives and nominating the next
// target via a strategy.Strategy, until EndOfGame.
package client

import (
	"context"
	"fmt"
	"math/rand"
	"net"

	"github.com/sirupsen/logrus"

	"crab.casa/puzzle-tournament/internal/challenge"
	"crab.casa/puzzle-tournament/internal/protocol"
	"crab.casa/puzzle-tournament/internal/ptserr"
	"crab.casa/puzzle-tournament/internal/registry"
	"crab.casa/puzzle-tournament/internal/strategy"
)

// Config maps directly onto spec.md §6's client CLI flags.
type Config struct {
	Username       string
	Addr           string
	ThreadCount    int
	ThreadSeedSlice int
	Dictionary     challenge.Dictionary // nil when --load-dictionary is false or the asset failed to load
	Cheat          bool                 // submit a deliberately wrong answer, exercising the BadResult path
	Strategy       strategy.Strategy
	Log            *logrus.Logger
}

// Client drives one connection's lifetime.
type Client struct {
	cfg  Config
	conn net.Conn
}

// Dial connects to cfg.Addr and returns a Client ready for Run.
func Dial(cfg Config) (*Client, error) {
	conn, err := net.Dial("tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, conn: conn}, nil
}

// Run executes the Hello/Subscribe handshake and then the challenge loop
// until the server sends EndOfGame, the connection collapses, or ctx is
// canceled. It returns nil only on a clean EndOfGame.
func (c *Client) Run(ctx context.Context) error {
	defer c.conn.Close()

	if err := protocol.WriteMessage(c.conn, protocol.Hello{}); err != nil {
		return err
	}
	welcome, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return err
	}
	if _, ok := welcome.(protocol.Welcome); !ok {
		return ptserr.ErrUnexpectedMessage
	}

	if err := protocol.WriteMessage(c.conn, protocol.Subscribe{Name: c.cfg.Username}); err != nil {
		return err
	}
	result, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return err
	}
	sr, ok := result.(protocol.SubscribeResult)
	if !ok {
		return ptserr.ErrUnexpectedMessage
	}
	if se, isErr := sr.Outcome.(protocol.SubscribeErr); isErr {
		return fmt.Errorf("subscribe rejected: %s", se.Kind)
	}

	var board []registry.Player

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := protocol.ReadMessage(c.conn)
		if err != nil {
			return err
		}

		switch v := msg.(type) {
		case protocol.PublicLeaderBoard:
			board = fromWire(v)
		case protocol.Challenge:
			if err := c.respondToChallenge(ctx, v, board); err != nil {
				c.cfg.Log.WithError(err).Warn("client: failed to answer challenge")
			}
		case protocol.RoundSummary:
			c.cfg.Log.WithField("chain_length", len(v.Chain)).Debug("round summary received")
		case protocol.StartGame:
			c.cfg.Log.Info("game starting")
		case protocol.EndOfGame:
			c.cfg.Log.WithField("final_board", v.LeaderBoard).Info("end of game")
			return nil
		case protocol.EndOfCommunication:
			return ptserr.ErrConnClosed
		}
	}
}

func fromWire(board protocol.PublicLeaderBoard) []registry.Player {
	out := make([]registry.Player, len(board))
	for i, p := range board {
		out[i] = registry.Player{
			Name:          p.Name,
			ConnID:        p.StreamID,
			Score:         p.Score,
			Steps:         p.Steps,
			IsActive:      p.IsActive,
			TotalUsedTime: p.TotalUsedTime,
		}
	}
	return out
}

func (c *Client) respondToChallenge(ctx context.Context, ch protocol.Challenge, board []registry.Player) error {
	var answer string
	if c.cfg.Cheat {
		answer = "cheating is not a valid answer"
	} else {
		solved, err := challenge.Solve(ctx, ch.Type, c.cfg.ThreadCount, c.cfg.ThreadSeedSlice, c.cfg.Dictionary)
		if err != nil {
			c.cfg.Log.WithError(err).Warn("client: solver found no answer, reporting it anyway")
		}
		answer = solved
	}

	target, err := c.cfg.Strategy.NextTarget(board, c.cfg.Username)
	if err != nil {
		target = c.cfg.Username // no eligible peer; hand back to self rather than fail the round entirely
	}

	return protocol.WriteMessage(c.conn, protocol.ChallengeResult{Answer: answer, NextTarget: target})
}

// DefaultUsername generates spec.md §6's "user<u8>" fallback when
// --username is left empty.
func DefaultUsername(rng *rand.Rand) string {
	return fmt.Sprintf("user%d", rng.Intn(256))
}
