// Package server implements the TCP accept loop, the per-connection
// protocol state machine (spec.md §4.8), and the single-writer
// broadcast/unicast router (spec.md §4.9) that the teacher's plugin
// architecture has no direct analog for — built on the idiom of one owner
// goroutine draining channels in a select loop while every other goroutine
// only ever sends.
package server

import (
	"net"

	"github.com/sirupsen/logrus"

	"crab.casa/puzzle-tournament/internal/protocol"
)

// Target selects who receives a routed message: every connected stream, or
// one named connection.
type Target struct {
	Broadcast bool
	ConnID    string // used when Broadcast is false
}

// BroadcastTo is the Target constructor for "every connected stream".
func BroadcastTo() Target { return Target{Broadcast: true} }

// UnicastTo is the Target constructor for one connection.
func UnicastTo(connID string) Target { return Target{ConnID: connID} }

type delivery struct {
	msg    protocol.Message
	target Target
}

// Router is the single dedicated writer spec.md §4.9 describes: the only
// goroutine that ever calls protocol.WriteMessage on a connection's
// stream, so concurrent unicast/broadcast sends can never interleave
// their frames.
type Router struct {
	log     *logrus.Logger
	queue   chan delivery
	streams map[string]net.Conn
	reg     chan registration
	dereg   chan string
}

type registration struct {
	connID string
	conn   net.Conn
}

// NewRouter builds a Router with the given outbound queue depth.
func NewRouter(log *logrus.Logger, queueDepth int) *Router {
	return &Router{
		log:     log,
		queue:   make(chan delivery, queueDepth),
		streams: make(map[string]net.Conn),
		reg:     make(chan registration),
		dereg:   make(chan string),
	}
}

// Register attaches a connection's stream to the router, so future
// broadcasts and unicasts by connID can reach it.
func (r *Router) Register(connID string, conn net.Conn) {
	r.reg <- registration{connID: connID, conn: conn}
}

// Deregister detaches a connection's stream, e.g. after it closes.
func (r *Router) Deregister(connID string) {
	r.dereg <- connID
}

// Broadcast enqueues msg for delivery to every registered stream.
func (r *Router) Broadcast(msg protocol.Message) {
	r.queue <- delivery{msg: msg, target: BroadcastTo()}
}

// Unicast enqueues msg for delivery to one connection.
func (r *Router) Unicast(connID string, msg protocol.Message) {
	r.queue <- delivery{msg: msg, target: UnicastTo(connID)}
}

// Run drains the router's queue until stop is closed. It owns every write
// to every registered stream; callers never write directly.
func (r *Router) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case reg := <-r.reg:
			r.streams[reg.connID] = reg.conn
		case connID := <-r.dereg:
			delete(r.streams, connID)
		case d := <-r.queue:
			r.deliver(d)
		}
	}
}

func (r *Router) deliver(d delivery) {
	if d.target.Broadcast {
		for connID, conn := range r.streams {
			r.write(connID, conn, d.msg)
		}
		return
	}
	conn, ok := r.streams[d.target.ConnID]
	if !ok {
		return
	}
	r.write(d.target.ConnID, conn, d.msg)
}

func (r *Router) write(connID string, conn net.Conn, msg protocol.Message) {
	if err := protocol.WriteMessage(conn, msg); err != nil {
		r.log.WithField("conn", connID).WithError(err).Warn("router: write failed, dropping stream")
		delete(r.streams, connID)
	}
}
