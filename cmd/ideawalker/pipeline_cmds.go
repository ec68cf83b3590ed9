package main

import (
	"fmt"

	"ideawalker-core/pkg/scientific"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func processInboxCmd() *cobra.Command {
	var fast, force bool

	cmd := &cobra.Command{
		Use:   "process-inbox [filename]",
		Short: "Organize inbox items into notes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, release, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if len(args) == 1 {
				res, err := c.OrganizerService.ProcessItem(cmd.Context(), args[0], fast, force)
				if err != nil {
					return err
				}
				printBatch(res.Processed, res.Skipped, res.Failed, res.Errors)
				return nil
			}

			res, err := c.OrganizerService.ProcessInbox(cmd.Context(), fast, force, progressPrinter("organizing"))
			if err != nil {
				return err
			}
			printBatch(res.Processed, res.Skipped, res.Failed, res.Errors)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fast, "fast", false, "single persona pass")
	cmd.Flags().BoolVar(&force, "force", false, "reprocess items whose note is up to date")
	return cmd
}

func ingestCmd() *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract scientific bundles from the scientific inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, release, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			res, err := c.ScientificService.IngestPending(cmd.Context(), purge, progressPrinter("ingesting"))
			if err != nil {
				return err
			}
			for _, p := range res.Purged {
				color.Yellow("purged %s", p)
			}
			for _, o := range res.Outcomes {
				fmt.Printf("%s  %s  exported=%v\n", o.ArtifactID, statusColor(o.Report.Status), o.Exported)
			}
			for _, e := range res.Errors {
				color.Red("  %s", e)
			}
			fmt.Printf("%d artifacts, %d bundles\n", res.ArtifactsDetected, res.BundlesGenerated)
			return nil
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "remove previous scientific outputs first")
	return cmd
}

func observeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "observe",
		Short: "Write observation records for inbox artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, release, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			res, err := c.ObservationService.IngestPending(cmd.Context(), progressPrinter("observing"))
			if err != nil {
				return err
			}
			for _, e := range res.Errors {
				color.Red("  %s", e)
			}
			color.Green("%d of %d artifacts observed", res.ObservationsGenerated, res.ArtifactsDetected)
			return nil
		},
	}
}

func printBatch(processed, skipped, failed int, errs []string) {
	for _, e := range errs {
		color.Red("  %s", e)
	}
	summary := fmt.Sprintf("processed=%d skipped=%d failed=%d", processed, skipped, failed)
	if failed > 0 {
		color.Yellow("%s", summary)
		return
	}
	color.Green("%s", summary)
}

func statusColor(status scientific.ReportStatus) string {
	switch status {
	case scientific.StatusPass:
		return color.GreenString(string(status))
	case scientific.StatusPassWithWarnings:
		return color.YellowString(string(status))
	}
	return color.RedString(string(status))
}
