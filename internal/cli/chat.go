package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"Jarvis/internal/chat"
	"Jarvis/internal/config"
	"Jarvis/internal/history"
	"Jarvis/internal/pricing"
	"Jarvis/internal/prompt"
	"Jarvis/internal/provider"
	"Jarvis/internal/telemetry"
	"Jarvis/internal/transcript"
)

// runChat wires the components together and drives one session. Everything
// before the loop starts is fatal; everything after it is not.
func runChat(configPath, modelOverride string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	if modelOverride != "" {
		cfg.Model = modelOverride
	}

	logger, err := telemetry.InitLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := telemetry.InitTelemetry(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	client := provider.NewClient(cfg.BaseURL, cfg.APIKey)

	table := pricing.DefaultTable()
	if cfg.FetchPricing {
		fetched, err := client.FetchPricing(ctx)
		if err != nil {
			fmt.Println("Warning: could not fetch pricing data; using built-in prices.")
			logger.Warn("pricing fetch failed", "error", err)
		} else {
			table.Merge(fetched)
		}
	}

	docs := prompt.Documents(cfg.ContextDir, cfg.Context.Profile, cfg.Context.Preferences, cfg.Context.CurrentFocus)
	systemPrompt := prompt.Build(cfg.Preamble, docs)

	store, err := transcript.NewStore(cfg.Transcripts)
	if err != nil {
		return err
	}
	start := time.Now()
	log, err := store.Open(start, cfg.Model, systemPrompt)
	if err != nil {
		return err
	}

	logger.Info("session started", "model", cfg.Model, "transcript", log.Path())

	fmt.Println("Personal Assistant")
	fmt.Printf("Model: %s\n", cfg.Model)
	fmt.Println("Type 'quit' or 'exit' to end. Ctrl+C also works.")
	fmt.Println()

	loop := chat.New(cfg.Model, systemPrompt, client, pricing.NewTracker(table), log, logger, os.Stdin, os.Stdout)
	runErr := loop.Run(ctx)

	if err := loop.Close(); err != nil {
		fmt.Println("Warning: could not write final transcript.")
		logger.Error("transcript close failed", "error", err)
	} else {
		fmt.Printf("\nConversation saved to %s\n", log.Path())
	}

	totals := loop.Totals()
	printSummary(totals)
	recordHistory(cfg, start, totals, log.Path(), logger)

	fmt.Println("Goodbye!")
	return runErr
}

// printSummary reports session token usage and cost, matching the totals
// written to the transcript.
func printSummary(totals pricing.Totals) {
	if totals.Requests == 0 {
		return
	}
	fmt.Printf("Session: %d tokens (%d prompt + %d completion) | Cost: %s | %d request(s)\n",
		totals.TotalTokens(), totals.PromptTokens, totals.CompletionTokens,
		pricing.FormatUSD(totals.Cost), totals.Requests)
}

// recordHistory adds a summary row to the session index. Failure is a
// warning; the transcript on disk is the source of truth.
func recordHistory(cfg config.Config, start time.Time, totals pricing.Totals, path string, logger *slog.Logger) {
	index, err := history.Open(cfg.HistoryDB)
	if err != nil {
		logger.Warn("history index unavailable", "error", err)
		return
	}
	defer index.Close()

	entry := history.Entry{
		ID:               start.Format("2006-01-02_15-04-05"),
		StartTime:        start,
		EndTime:          time.Now(),
		Model:            cfg.Model,
		PromptTokens:     totals.PromptTokens,
		CompletionTokens: totals.CompletionTokens,
		CostUSD:          totals.Cost,
		Requests:         totals.Requests,
		TranscriptPath:   path,
	}
	if err := index.Record(entry); err != nil {
		logger.Warn("failed to record session in history", "error", err)
	}
}
