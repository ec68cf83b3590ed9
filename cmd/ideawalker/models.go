package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func modelsCmd() *cobra.Command {
	var selectModel string
	var auto bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List installed models or switch the active one",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, release, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			switch {
			case selectModel != "":
				if err := c.ModelService.Select(cmd.Context(), selectModel); err != nil {
					return err
				}
			case auto:
				c.ModelService.AutoSelect(cmd.Context())
			}

			current := c.ModelService.Current()
			available := c.ModelService.List(cmd.Context())
			if len(available) == 0 {
				color.Yellow("no models reported by %s", c.Config.Ai.OllamaBaseURL)
			}
			for _, m := range available {
				if m == current {
					color.Green("* %s", m)
					continue
				}
				fmt.Printf("  %s\n", m)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&selectModel, "select", "", "switch to this model and remember it")
	cmd.Flags().BoolVar(&auto, "auto", false, "pick the best installed model")
	return cmd
}
