package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apphttp "github.com/enginrect/ovs-bridge-agent/internal/app/http"
	"github.com/enginrect/ovs-bridge-agent/internal/app/runtime"
	"github.com/enginrect/ovs-bridge-agent/internal/infra/logging"
)

func newServeCmd() *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if bind != "" {
				cfg.Bind = bind
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
				srv := apphttp.NewServer(rt)
				errCh := make(chan error, 1)
				go func() { errCh <- srv.Start(cfg.Bind) }()

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
				}
				logging.Logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "bind address, e.g. 0.0.0.0:9406 (overrides config)")
	return cmd
}
