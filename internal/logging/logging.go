// Package logging wraps logrus with the field conventions the rest of the
// tournament core expects: every line touching a connection or a player
// carries that identity as a structured field instead of being interpolated
// into the message string.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger at the given level, writing to w (os.Stderr when w is
// nil). Unknown level strings fall back to info, matching the teacher's
// LogWithUser default-to-info behavior (items/logging.go) rather than
// failing startup over a typo'd --log-level.
func New(level string, w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// WithConn scopes a logger entry to a connection, the way the teacher scopes
// every line to the request's user ID.
func WithConn(log *logrus.Logger, connID string) *logrus.Entry {
	return log.WithField("conn", connID)
}

// WithPlayer scopes a logger entry to a named player.
func WithPlayer(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("player", name)
}

// WithErr attaches an error to a logger entry, generalizing the teacher's
// items.LogError helper.
func WithErr(entry *logrus.Entry, err error) *logrus.Entry {
	if err == nil {
		return entry
	}
	return entry.WithField("error", err.Error())
}
