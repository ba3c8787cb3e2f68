package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/doublespending/mev-boost-aa-account-sdk/bootstrap"
	"github.com/doublespending/mev-boost-aa-account-sdk/config"
)

var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the SDK daemon with the settlement tracker and metrics server",
	RunE: func(command *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(command.Context())
		defer cancel()

		cfg, err := parseConfig()
		if err != nil {
			return fmt.Errorf("failed to parse flags: %w", err)
		}
		if cfg.WalletKey == nil {
			return fmt.Errorf("wallet-key is required to run the daemon")
		}

		done := make(chan struct{})
		ready := make(chan struct{})
		once := sync.Once{}
		closeReady := func() {
			once.Do(func() {
				close(ready)
			})
		}
		go func() {
			defer close(done)
			// In case an error happens before ready is closed we need to
			// close the ready channel
			defer closeReady()

			err := bootstrap.Run(ctx, cfg, closeReady)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Err(err).Msg("daemon runtime error")
			}
		}()

		<-ready

		osSig := make(chan os.Signal, 1)
		signal.Notify(osSig, syscall.SIGINT, syscall.SIGTERM)

		// wait for the daemon to exit or for a shutdown signal
		select {
		case <-osSig:
			log.Info().Msg("OS Signal to shutdown received, shutting down")
			cancel()
		case <-done:
			log.Info().Msg("done, shutting down")
		}

		// wait for the daemon to completely stop
		<-done

		return nil
	},
}

var parseConfig func() (*config.Config, error)

func init() {
	parseConfig = config.FromFlags(Cmd)
}
