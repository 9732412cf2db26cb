package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"Jarvis/internal/config"
	"Jarvis/internal/history"
	"Jarvis/internal/pricing"
)

// newHistoryCmd lists past sessions from the summary index.
func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past sessions with their token usage and cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			index, err := history.Open(cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer index.Close()

			entries, err := index.List(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No sessions recorded yet.")
				return nil
			}

			for _, entry := range entries {
				fmt.Printf("%s  %-35s %6d tokens  %10s  %2d request(s)  %s\n",
					entry.StartTime.Format("2006-01-02 15:04"),
					entry.Model,
					entry.PromptTokens+entry.CompletionTokens,
					pricing.FormatUSD(entry.CostUSD),
					entry.Requests,
					entry.TranscriptPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sessions to list")
	return cmd
}
