package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"Jarvis/internal/config"
	"Jarvis/internal/pricing"
	"Jarvis/internal/provider"
)

// newModelsCmd prints the known price table, USD per million tokens.
func newModelsCmd(configPath *string) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List known models and their prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			table := pricing.DefaultTable()
			if !offline && cfg.FetchPricing {
				client := provider.NewClient(cfg.BaseURL, cfg.APIKey)
				fetched, err := client.FetchPricing(context.Background())
				if err != nil {
					fmt.Println("Warning: could not fetch pricing data; showing built-in prices.")
				} else {
					table.Merge(fetched)
				}
			}

			million := decimal.NewFromInt(1_000_000)
			fmt.Printf("%-45s %s\n", "MODEL", "PROMPT / COMPLETION (USD per 1M tokens)")
			for _, model := range table.Models() {
				price := table[model]
				fmt.Printf("%-45s %s / %s\n", model,
					price.Prompt.Mul(million).StringFixed(2),
					price.Completion.Mul(million).StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the live pricing fetch")
	return cmd
}
