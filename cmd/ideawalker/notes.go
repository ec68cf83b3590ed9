package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Embed notes that changed since the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, release, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			n, err := c.SuggestionService.IndexProject(cmd.Context())
			if err != nil {
				return err
			}
			color.Green("%d notes embedded", n)
			return nil
		},
	}
}

func relatedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "related <note>",
		Short: "Show notes semantically close to one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, release, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			content, err := c.Thoughts.GetNoteContent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			suggestions, err := c.SuggestionService.Suggest(cmd.Context(), args[0], content)
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				color.Yellow("nothing related yet; run `ideawalker index` first")
			}
			for _, s := range suggestions {
				fmt.Printf("%.2f  %s\n", s.Score, s.TargetID)
			}
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <note>",
		Short: "Talk with the model about one note; an empty line ends the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, release, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := c.ConversationService.StartSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			prompt := color.New(color.FgCyan, color.Bold)
			in := bufio.NewScanner(os.Stdin)
			for {
				prompt.Print("> ")
				if !in.Scan() {
					return in.Err()
				}
				line := strings.TrimSpace(in.Text())
				if line == "" {
					return nil
				}
				reply, err := c.ConversationService.SendMessage(cmd.Context(), line)
				if err != nil {
					return err
				}
				fmt.Println(reply)
			}
		},
	}
}
