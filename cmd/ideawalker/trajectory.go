package main

import (
	"encoding/json"
	"fmt"
	"os"

	"ideawalker-core/internal/dto"
	"ideawalker-core/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func trajectoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "trajectory",
		Aliases: []string{"tj"},
		Short:   "Inspect and drive writing trajectories",
	}
	cmd.AddCommand(trajectoryListCmd())
	cmd.AddCommand(trajectoryShowCmd())
	cmd.AddCommand(trajectoryCreateCmd())
	cmd.AddCommand(trajectoryAdvanceCmd())
	cmd.AddCommand(trajectoryReviewCmd())
	return cmd
}

// withWriting boots the container and hands its writing service to fn.
func withWriting(cmd *cobra.Command, fn func(svc service.IWritingService) error) error {
	c, release, err := boot(cmd.Context())
	if err != nil {
		return err
	}
	defer release()
	return fn(c.WritingService)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func trajectoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trajectories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriting(cmd, func(svc service.IWritingService) error {
				list, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, t := range list {
					fmt.Printf("%-38s %-10s v%-4d %d segments  %s\n", t.Id, t.Stage, t.Version, t.SegmentCount, t.CoreClaim)
				}
				return nil
			})
		},
	}
}

func trajectoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the replayed state of a trajectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriting(cmd, func(svc service.IWritingService) error {
				state, err := svc.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(state)
			})
		},
	}
}

func trajectoryCreateCmd() *cobra.Command {
	var req dto.CreateTrajectoryRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a trajectory at the Intent stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriting(cmd, func(svc service.IWritingService) error {
				state, err := svc.Create(cmd.Context(), &req)
				if err != nil {
					return err
				}
				color.Green("created %s", state.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Id, "id", "", "trajectory id (generated when empty)")
	cmd.Flags().StringVar(&req.Purpose, "purpose", "", "what the text is for")
	cmd.Flags().StringVar(&req.Audience, "audience", "", "who reads it")
	cmd.Flags().StringVar(&req.CoreClaim, "claim", "", "the central thesis")
	cmd.Flags().StringVar(&req.Constraints, "constraints", "", "length, venue, style")
	_ = cmd.MarkFlagRequired("purpose")
	_ = cmd.MarkFlagRequired("audience")
	return cmd
}

func trajectoryAdvanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id> <stage>",
		Short: "Move a trajectory to its next stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriting(cmd, func(svc service.IWritingService) error {
				state, err := svc.AdvanceStage(cmd.Context(), args[0], &dto.AdvanceStageRequest{Stage: args[1]})
				if err != nil {
					return err
				}
				color.Green("%s is now at %s", state.ID, state.Stage)
				return nil
			})
		},
	}
}

func trajectoryReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <id>",
		Short: "Run the coherence lens and propose defense cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriting(cmd, func(svc service.IWritingService) error {
				issues, err := svc.Coherence(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(issues) == 0 {
					color.Green("coherence: no issues")
				}
				for _, i := range issues {
					color.Yellow("[%s/%s] %s", i.Type, i.Severity, i.Description)
				}
				cards, err := svc.SuggestDefenseCards(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, c := range cards {
					fmt.Printf("card %s (%s): %s\n", c.CardID, c.SegmentID, c.Prompt)
				}
				return nil
			})
		},
	}
}
