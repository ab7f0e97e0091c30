package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zen-systems/wallbounce/pkg/session"
)

var historyPrune bool

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "Show the exchanges recorded in a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			store, err := session.NewStore(cfg.SessionDir, cfg.WallBounce.SessionTTL())
			if err != nil {
				return fmt.Errorf("failed to open session store: %w", err)
			}

			if historyPrune {
				n, err := store.Prune()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d expired sessions\n", n)
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("session id is required")
			}

			entries, err := store.History(args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no history for session %s\n", args[0])
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTASK\tMODE\tCONFIDENCE\tCOST\tPROMPT")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t$%s\t%s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04"), e.TaskType, e.Mode,
					e.Confidence, e.Cost.StringFixed(4), firstPromptLine(e.Prompt))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&historyPrune, "prune", false, "remove expired sessions")
	return cmd
}

func firstPromptLine(prompt string) string {
	const limit = 60
	line := prompt
	for i, r := range prompt {
		if r == '\n' {
			line = prompt[:i]
			break
		}
	}
	runes := []rune(line)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return line
}
