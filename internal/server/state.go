package server

import (
	"crab.casa/puzzle-tournament/internal/protocol"
	"crab.casa/puzzle-tournament/internal/ptserr"
)

// connState is the per-connection protocol state from spec.md §4.8: New →
// Greeted → Subscribed → Closed. "Playing" from the spec's state name is
// folded into Subscribed — the only further distinction spec.md draws
// (whether this connection currently holds the active challenge) is a
// runtime fact checked against the game, not a separate state.
type connState int

const (
	stateNew connState = iota
	stateGreeted
	stateSubscribed
	stateClosed
)

// handle advances a connection's state machine by one incoming message,
// updating c.state in place. Protocol violations return an error; the
// caller closes the connection on any non-nil error, per spec.md §7's
// "fatal to the connection, not to the round".
func (c *conn) handle(msg protocol.Message) error {
	switch c.state {
	case stateNew:
		return c.handleNew(msg)
	case stateGreeted:
		return c.handleGreeted(msg)
	case stateSubscribed:
		return c.handleSubscribed(msg)
	default:
		return ptserr.ErrUnexpectedMessage
	}
}

func (c *conn) handleNew(msg protocol.Message) error {
	switch msg.(type) {
	case protocol.Hello:
		c.srv.router.Unicast(c.id, protocol.Welcome{Version: protocolVersion})
		c.state = stateGreeted
		return nil
	case protocol.EndOfCommunication:
		c.state = stateClosed
		return ptserr.ErrConnClosed
	default:
		return ptserr.ErrUnexpectedMessage
	}
}

func (c *conn) handleGreeted(msg protocol.Message) error {
	sub, ok := msg.(protocol.Subscribe)
	if !ok {
		if _, isEOC := msg.(protocol.EndOfCommunication); isEOC {
			c.state = stateClosed
			return ptserr.ErrConnClosed
		}
		return ptserr.ErrUnexpectedMessage
	}

	if !isValidName(sub.Name) {
		c.srv.router.Unicast(c.id, protocol.SubscribeResult{
			Outcome: protocol.SubscribeErr{Kind: protocol.SubscribeErrInvalidName},
		})
		return nil
	}

	if c.srv.registry.IsNameTaken(sub.Name) {
		c.srv.router.Unicast(c.id, protocol.SubscribeResult{
			Outcome: protocol.SubscribeErr{Kind: protocol.SubscribeErrAlreadyRegistered},
		})
		return nil
	}

	c.srv.registry.Activate(c.id, sub.Name)
	c.name = sub.Name
	c.state = stateSubscribed

	c.srv.router.Unicast(c.id, protocol.SubscribeResult{Outcome: protocol.SubscribeOk{}})
	c.srv.broadcastLeaderBoard()
	c.srv.onPlayerJoined()
	return nil
}

func (c *conn) handleSubscribed(msg protocol.Message) error {
	switch v := msg.(type) {
	case protocol.ChallengeResult:
		return c.srv.acceptChallengeResult(c, v)
	case protocol.EndOfCommunication:
		c.state = stateClosed
		return ptserr.ErrConnClosed
	default:
		return ptserr.ErrUnexpectedMessage
	}
}

func isValidName(name string) bool {
	return len(name) > 0 && len(name) <= 64
}
