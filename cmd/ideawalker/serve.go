package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"ideawalker-core/internal/server"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, release, err := boot(ctx)
			if err != nil {
				return err
			}
			defer release()

			if watch {
				w, err := startWatcher(ctx, c)
				if err != nil {
					return err
				}
				defer w.Stop()
			}

			srv := server.New(c.Config, c)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Run() }()

			color.Green("Control API on http://%s:%s", c.Config.App.Host, c.Config.App.Port)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "also watch the inbox folders")
	return cmd
}
