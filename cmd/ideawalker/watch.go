package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"ideawalker-core/internal/bootstrap"
	"ideawalker-core/internal/task"
	"ideawalker-core/internal/watcher"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Process inbox files as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, release, err := boot(ctx)
			if err != nil {
				return err
			}
			defer release()

			w, err := startWatcher(ctx, c)
			if err != nil {
				return err
			}
			defer w.Stop()

			color.Cyan("watching %s and %s (ctrl-c to stop)", c.Config.Paths.Inbox, c.Config.Paths.ScientificInbox)
			<-ctx.Done()
			return nil
		},
	}
}

// startWatcher submits one background task per settled inbox file.
func startWatcher(ctx context.Context, c *bootstrap.Container) (*watcher.InboxWatcher, error) {
	paths := c.Config.Paths
	scientificDir := filepath.Clean(paths.ScientificInbox)

	w, err := watcher.NewInboxWatcher(
		[]string{paths.Inbox, paths.ScientificInbox},
		func(ctx context.Context, dir, path string) {
			name := filepath.Base(path)
			if filepath.Clean(dir) == scientificDir {
				c.Tasks.Submit(task.CategoryAIProcessing, "Scientific ingestion: "+name, func(tctx context.Context, p *task.Progress) error {
					_, err := c.ScientificService.IngestPending(tctx, false, p.Step)
					return err
				})
				return
			}
			c.Tasks.Submit(task.CategoryAIProcessing, "Organizing "+name, func(tctx context.Context, p *task.Progress) error {
				_, err := c.OrganizerService.ProcessItem(tctx, name, false, false)
				if err == nil {
					color.Green("organized %s", name)
				}
				return err
			})
		},
		c.Logger,
	)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}
