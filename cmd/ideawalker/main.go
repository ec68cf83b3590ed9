package main

import (
	"context"
	"os"

	"ideawalker-core/internal/bootstrap"
	"ideawalker-core/internal/config"
	"ideawalker-core/internal/tracer"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var projectRoot string

func main() {
	rootCmd := &cobra.Command{
		Use:           "ideawalker",
		Short:         "Local cognitive pipeline: inbox, notes, scientific bundles and writing trajectories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", "", "project root (overrides PROJECT_ROOT)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(processInboxCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(observeCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(relatedCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(trajectoryCmd())

	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg := config.Load()
	if projectRoot != "" {
		catalog := cfg.Paths.PromptCatalogPath
		cfg.Paths = config.NewPaths(projectRoot)
		cfg.Paths.PromptCatalogPath = catalog
	}
	return cfg
}

// boot wires the container, starts tracing and the activity consumer.
// The returned func releases all of it.
func boot(ctx context.Context) (*bootstrap.Container, func(), error) {
	cfg := loadConfig()
	shutdownTracer := tracer.InitTracer(cfg.Telemetry)

	c, err := bootstrap.NewContainer(ctx, cfg)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return nil, nil, err
	}
	if err := c.ConsumerService.Consume(ctx); err != nil {
		_ = c.Close()
		_ = shutdownTracer(context.Background())
		return nil, nil, err
	}
	return c, func() {
		if err := c.Close(); err != nil {
			color.Yellow("shutdown: %v", err)
		}
		_ = shutdownTracer(context.Background())
	}, nil
}

// progressPrinter rewrites one status line per step.
func progressPrinter(label string) func(done, total int) {
	return func(done, total int) {
		color.New(color.FgCyan).Fprintf(os.Stderr, "\r%s %d/%d", label, done, total)
		if done == total {
			os.Stderr.WriteString("\n")
		}
	}
}
