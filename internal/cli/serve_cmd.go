package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/earnclock/internal/httpapi"
	"github.com/alexanderramin/earnclock/internal/service"
	"github.com/alexanderramin/earnclock/internal/systemd"
)

func newServeCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API, event stream and metrics",
		Long: "Serve the HTTP API until interrupted. Identity comes from the X-User-ID\n" +
			"header set by the gateway in front. Under systemd the API socket may be\n" +
			"socket-activated and readiness is reported with sd_notify.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("listen", "", "Listen address (default 127.0.0.1:8420)")
	return cmd
}

// serve runs the API, reconciler and sweeper until ctx is done.
func (a *App) serve(ctx context.Context) error {
	logger := a.Logger.With().Str("component", "serve").Logger()

	rec := a.Reconciler

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := rec.Run(runCtx); err != nil {
			logger.Error().Err(err).Msg("Reconciler stopped")
		}
	}()

	if interval := a.Config.Sessions.SweepInterval; interval > 0 {
		sweeper := service.NewSweeper(a.Sessions, a.Clock, interval, a.Logger)
		sweeper.Start(runCtx)
		defer sweeper.Stop()
	}

	ln, err := systemd.APIListener()
	if err != nil {
		return err
	}
	if ln != nil {
		logger.Info().Str("addr", ln.Addr().String()).Msg("Using socket-activated listener")
	}

	srv := httpapi.NewServer(httpapi.Config{ListenAddr: a.Config.Server.ListenAddr}, a.Sessions, rec, a.Clock, a.Logger)
	if err := srv.Start(ln); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}

	if sent, err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify systemd of readiness")
	} else if sent {
		logger.Info().Msg("Notified systemd of readiness")
	}
	logger.Info().Str("user", a.UserID).Msg("earnclock serving")

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	if _, err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify systemd of shutdown")
	}

	stopErr := srv.Stop()
	cancel()
	wg.Wait()
	return stopErr
}
