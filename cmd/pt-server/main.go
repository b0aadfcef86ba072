// Command pt-server runs the tournament server described by spec.md §6's
// CLI flags, wired with github.com/spf13/cobra the way the teacher's
// sibling examples in the pack use cobra+pflag for their own entrypoints
// rather than hand-rolled flag parsing.
package main

import (
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crab.casa/puzzle-tournament/internal/logging"
	"crab.casa/puzzle-tournament/internal/server"
)

var gameTypeFlagToInternal = map[string]string{
	"hash-cash":       "MD5HashCash",
	"recover-secret":  "RecoverSecret",
	"monstrous-maze":  "MonstrousMaze",
}

func main() {
	var (
		ip              string
		port            uint16
		logLevel        string
		gameType        string
		roundDuration   int
		mazeCatalogPath string
	)

	cmd := &cobra.Command{
		Use:   "pt-server",
		Short: "Run the puzzle tournament server",
		RunE: func(cmd *cobra.Command, args []string) error {
			internalType, ok := gameTypeFlagToInternal[gameType]
			if !ok {
				return fmt.Errorf("unknown --game-type %q", gameType)
			}

			log := logging.New(logLevel, nil)
			cfg := server.Config{
				Addr:            net.JoinHostPort(ip, fmt.Sprintf("%d", port)),
				GameType:        internalType,
				RoundDuration:   time.Duration(roundDuration) * time.Second,
				MazeCatalogPath: mazeCatalogPath,
				Log:             log,
			}

			srv := server.New(cfg, rand.New(rand.NewSource(time.Now().UnixNano())))

			stop := make(chan struct{})
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sig
				log.Info("shutting down")
				close(stop)
			}()

			log.WithField("addr", cfg.Addr).Info("listening")
			if err := srv.Run(stop); err != nil {
				log.WithError(err).Error("server exited with error")
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&ip, "ip", "127.0.0.1", "address to bind")
	flags.Uint16Var(&port, "port", 7878, "port to bind")
	flags.StringVar(&logLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")
	flags.StringVar(&gameType, "game-type", "hash-cash", "challenge type for this tournament (hash-cash|recover-secret|monstrous-maze)")
	flags.IntVar(&roundDuration, "round-duration", 3, "round duration in seconds")
	flags.StringVar(&mazeCatalogPath, "maze-catalog-path", "", "path to a newline-separated maze catalog (optional; falls back to generated mazes)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
