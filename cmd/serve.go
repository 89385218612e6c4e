package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the admin console HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cfg, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cancelHook := a.Session.OnLogout(func() {
			a.Log.Info().Msg("console signed out")
		})
		defer cancelHook()

		e := a.Router(nil)
		errCh := make(chan error, 1)
		go func() {
			a.Log.Info().Str("addr", cfg.Addr).Str("backend", cfg.Backend).Str("session_tier", cfg.Session.Tier).Msg("console listening")
			if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Log.Info().Msg("shutting down")
		return e.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
