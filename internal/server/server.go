package server

import (
	"math/rand"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"crab.casa/puzzle-tournament/internal/assets"
	"crab.casa/puzzle-tournament/internal/challenge"
	"crab.casa/puzzle-tournament/internal/logging"
	"crab.casa/puzzle-tournament/internal/protocol"
	"crab.casa/puzzle-tournament/internal/registry"
	"crab.casa/puzzle-tournament/internal/round"
)

const protocolVersion = 1

// Config configures a Server, mapping directly onto spec.md §6's server CLI
// flags.
type Config struct {
	Addr            string
	GameType        string // "MD5HashCash" | "RecoverSecret" | "MonstrousMaze"
	RoundDuration   time.Duration
	MazeCatalogPath string // optional; empty disables catalog sampling for MonstrousMaze rounds
	Log             *logrus.Logger
}

// Server owns the listener, the shared registry, the single Game, and the
// outbound router.
type Server struct {
	cfg      Config
	log      *logrus.Logger
	registry *registry.Registry
	game     *round.Game
	router   *Router
}

// New builds a Server ready to Run. A MonstrousMaze game type whose
// MazeCatalogPath fails to load falls back to procedural generation, the
// same optional-asset behavior described in spec.md §6.
func New(cfg Config, rng *rand.Rand) *Server {
	reg := registry.New()

	var mazes challenge.MazeCatalog
	if cfg.MazeCatalogPath != "" {
		catalog, err := assets.LoadMazeCatalog(cfg.MazeCatalogPath)
		if err != nil {
			cfg.Log.WithError(err).Warn("server: maze catalog unavailable, falling back to generated mazes")
		} else {
			mazes = catalog
		}
	}

	return &Server{
		cfg:      cfg,
		log:      cfg.Log,
		registry: reg,
		game:     round.New(cfg.GameType, cfg.RoundDuration, reg, rng, mazes),
		router:   NewRouter(cfg.Log, 256),
	}
}

// conn is the per-connection runtime state the accept loop hands to the
// protocol state machine.
type conn struct {
	srv   *Server
	id    string
	name  string
	state connState
	net   net.Conn
}

// Run binds cfg.Addr and serves connections until stop is closed. It
// returns a bind error immediately (the caller maps that to exit code 1
// per spec.md §6).
func (s *Server) Run(stop <-chan struct{}) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	return s.Serve(ln, stop)
}

// Serve accepts connections on an already-bound listener until stop is
// closed, split out from Run so callers (tests, or a supervisor that wants
// the OS-assigned port from a ":0" bind) can inspect ln.Addr() first.
func (s *Server) Serve(ln net.Listener, stop <-chan struct{}) error {
	routerStop := make(chan struct{})
	go s.router.Run(routerStop)
	defer close(routerStop)

	go func() {
		<-stop
		ln.Close()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
				s.log.WithError(err).Warn("accept failed")
				return err
			}
		}
		go s.serve(c)
	}
}

func (s *Server) serve(netConn net.Conn) {
	connID := registry.NewConnID()
	s.registry.Insert(connID)
	s.router.Register(connID, netConn)
	entry := logging.WithConn(s.log, connID)
	entry.Info("connection accepted")

	c := &conn{srv: s, id: connID, state: stateNew, net: netConn}
	defer s.teardown(c)

	for {
		msg, err := protocol.ReadMessage(netConn)
		if err != nil {
			entry.WithError(err).Debug("connection reader: collapsing")
			return
		}
		if err := c.handle(msg); err != nil {
			entry.WithError(err).Debug("connection reader: closing on protocol event")
			return
		}
	}
}

func (s *Server) teardown(c *conn) {
	s.router.Deregister(c.id)
	s.registry.MarkInactive(c.id)
	_ = c.net.Close()
	s.broadcastLeaderBoard()
}

func (s *Server) broadcastLeaderBoard() {
	s.router.Broadcast(protocol.PublicLeaderBoard(s.registry.PublicLeaderBoard()))
}

// onPlayerJoined starts the first round the instant the leaderboard
// broadcast fires for the first subscriber, per spec.md §4.8.
func (s *Server) onPlayerJoined() {
	if s.game.Current() != nil {
		return
	}
	s.dispatchNewRound()
}

func (s *Server) dispatchNewRound() {
	r, err := s.game.StartRound()
	if err != nil {
		s.log.WithError(err).Debug("round: no active player to start against yet")
		return
	}
	s.unicastChallenge(r)
}

func (s *Server) unicastChallenge(r *round.Round) {
	player, ok := s.registry.ByName(r.Active)
	if !ok {
		s.game.RecordUnreachable(r.Active)
		s.dispatchNewRound()
		return
	}
	s.router.Unicast(player.ConnID, protocol.Challenge{Type: r.Challenge})
}

// acceptChallengeResult implements spec.md §4.7+§4.8: only the connection
// currently holding the active challenge may report a result.
func (s *Server) acceptChallengeResult(c *conn, result protocol.ChallengeResult) error {
	current := s.game.Current()
	if current == nil || current.Active != c.name {
		return nil // stale/duplicate report from a player who is no longer active; ignore rather than kill the connection
	}

	retiredChallenge := current.Challenge
	outcome, err := s.game.AcceptResult(c.id, c.name, result)
	if err != nil {
		return nil
	}

	s.router.Broadcast(round.Summary(&round.Round{Challenge: retiredChallenge}, s.game.Chain()))

	if outcome.RoundExpired {
		s.unicastChallenge(outcome.NewRound)
		return nil
	}

	player, ok := s.registry.ByName(result.NextTarget)
	if !ok || !player.IsActive {
		s.game.RecordUnreachable(result.NextTarget)
		s.dispatchNewRound()
		return nil
	}
	s.router.Unicast(player.ConnID, protocol.Challenge{Type: current.Challenge})
	return nil
}
