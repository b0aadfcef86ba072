// Command pt-client runs one tournament player described by spec.md §6's
// client CLI flags.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"crab.casa/puzzle-tournament/internal/assets"
	"crab.casa/puzzle-tournament/internal/client"
	"crab.casa/puzzle-tournament/internal/logging"
	"crab.casa/puzzle-tournament/internal/strategy"
)

func main() {
	var (
		username        string
		ip              string
		port            uint16
		threadCount     int
		threadSeedSlice int
		loadDictionary  bool
		dictionaryPath  string
		cheat           bool
		displayGUI      bool
		strategyName    string
	)

	cmd := &cobra.Command{
		Use:   "pt-client",
		Short: "Connect to a puzzle tournament server and play",
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			if username == "" {
				username = client.DefaultUsername(rng)
			}
			if displayGUI {
				fmt.Fprintln(os.Stderr, "pt-client: --display-gui is accepted for CLI compatibility; terminal UI rendering is not part of this build")
			}

			log := logging.New("info", nil)

			cfg := client.Config{
				Username:        username,
				Addr:            net.JoinHostPort(ip, fmt.Sprintf("%d", port)),
				ThreadCount:     threadCount,
				ThreadSeedSlice: threadSeedSlice,
				Cheat:           cheat,
				Strategy:        strategy.Parse(strategyName, rng),
				Log:             log,
			}
			if loadDictionary {
				d, err := assets.LoadDictionary(dictionaryPath)
				if err != nil {
					log.WithError(err).Warn("client: dictionary unavailable, falling back to sequence mode")
				} else {
					cfg.Dictionary = d
				}
			}

			c, err := client.Dial(cfg)
			if err != nil {
				return err
			}
			return c.Run(context.Background())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&username, "username", "", "player name (default: generated)")
	flags.StringVar(&ip, "ip", "127.0.0.1", "server address")
	flags.Uint16Var(&port, "port", 7878, "server port")
	flags.IntVar(&threadCount, "thread-count", 0, "hashcash worker count (default: hardware parallelism)")
	flags.IntVar(&threadSeedSlice, "thread-seed-slice", 1000, "hashcash counter slice size")
	flags.BoolVar(&loadDictionary, "load-dictionary", false, "enable RecoverSecret sentence mode")
	flags.StringVar(&dictionaryPath, "dictionary-path", "dictionary.txt", "path to the newline-separated dictionary file")
	flags.BoolVar(&cheat, "cheat", false, "submit a deliberately wrong answer (exercises BadResult)")
	flags.BoolVar(&displayGUI, "display-gui", false, "accepted for compatibility; no terminal UI is rendered")
	flags.StringVar(&strategyName, "strategy", "random", "target-selection strategy (top|bottom|random)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
