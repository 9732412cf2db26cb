// Package cli defines the jarvis command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

// NewRootCmd builds the command tree. The root command runs the chat
// session; models and history are small inspection helpers.
func NewRootCmd() *cobra.Command {
	var configPath string
	var model string

	root := &cobra.Command{
		Use:   "jarvis",
		Short: "Personal assistant chat with local context",
		Long:  "Jarvis assembles a system prompt from local context files, streams replies from OpenRouter, and logs each conversation with its token usage and cost.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(configPath, model)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML config file")
	root.Flags().StringVar(&model, "model", "", "Override the configured model")

	root.AddCommand(
		newModelsCmd(&configPath),
		newHistoryCmd(&configPath),
	)

	root.Version = Version
	root.SetVersionTemplate(fmt.Sprintf("jarvis %s\n", Version))

	return root
}

// Execute runs the CLI. Startup failures exit non-zero; a normal session
// exits zero.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
