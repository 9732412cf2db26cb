// Package chat drives a single conversation session: it reads user input,
// streams the assistant response, tracks usage and cost, and appends each
// completed turn to the session transcript.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"time"

	"Jarvis/internal/pricing"
	"Jarvis/internal/provider"
	"Jarvis/internal/transcript"
)

// exitWords end the session when typed as the whole input, case-insensitive.
var exitWords = map[string]bool{"quit": true, "exit": true}

// Streamer is the provider dependency of the loop: one streaming completion
// request per user turn.
type Streamer interface {
	StreamCompletion(ctx context.Context, model, systemPrompt string, history []provider.Message, userMessage string) (iter.Seq2[provider.Event, error], error)
}

// Loop owns one session end to end. It is the only writer of its transcript
// and the only consumer of its provider streams; no locking anywhere.
type Loop struct {
	model        string
	systemPrompt string
	streamer     Streamer
	tracker      *pricing.Tracker
	log          *transcript.SessionLog
	logger       *slog.Logger

	in  io.Reader
	out io.Writer

	// history holds every prior message, replayed to the provider on each
	// request. It grows unboundedly within a session; no windowing.
	history []provider.Message
}

// New assembles a session loop. The transcript log must already be open.
func New(model, systemPrompt string, streamer Streamer, tracker *pricing.Tracker, log *transcript.SessionLog, logger *slog.Logger, in io.Reader, out io.Writer) *Loop {
	return &Loop{
		model:        model,
		systemPrompt: systemPrompt,
		streamer:     streamer,
		tracker:      tracker,
		log:          log,
		logger:       logger,
		in:           in,
		out:          out,
	}
}

// Run blocks until the user quits or input ends. Provider, pricing, and
// storage failures are reported and the loop keeps going; once a session is
// running nothing short of input exhaustion terminates it.
func (l *Loop) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(l.in)

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(l.out, "You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if exitWords[strings.ToLower(input)] {
			break
		}

		l.runTurn(ctx, input)
	}

	return scanner.Err()
}

// runTurn performs one exchange: stream the response, render it, record
// usage and cost, and append the turn to the transcript.
func (l *Loop) runTurn(ctx context.Context, userMessage string) {
	turn := transcript.Turn{
		Timestamp: time.Now(),
		User:      userMessage,
	}

	stream, err := l.streamer.StreamCompletion(ctx, l.model, l.systemPrompt, l.history, userMessage)
	if err != nil {
		// Request never started; nothing to record.
		fmt.Fprintf(l.out, "Error: %v\n\n", err)
		l.logger.Error("request failed", "error", err)
		return
	}

	fmt.Fprint(l.out, "\nAssistant: ")

	var assistant strings.Builder
	var usage *provider.Usage
	var streamErr error

	for event, err := range stream {
		if err != nil {
			streamErr = err
			break
		}
		if event.Usage != nil {
			usage = event.Usage
			continue
		}
		fmt.Fprint(l.out, event.Text)
		assistant.WriteString(event.Text)
	}
	fmt.Fprint(l.out, "\n\n")

	turn.Assistant = assistant.String()

	if streamErr != nil {
		// Keep the partial text; token counts stay at zero because the
		// usage record only ever arrives as the terminal element.
		turn.Interrupted = true
		fmt.Fprintf(l.out, "Error: response interrupted: %v\n\n", streamErr)
		l.logger.Error("stream interrupted", "error", streamErr)
	} else if usage != nil {
		turn.PromptTokens = usage.PromptTokens
		turn.CompletionTokens = usage.CompletionTokens
	}

	delta, err := l.tracker.RecordUsage(l.model, turn.PromptTokens, turn.CompletionTokens)
	turn.CostUSD = delta.Cost
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownModel) {
			turn.CostUnknown = true
			l.logger.Warn("no pricing for model, cost recorded as unknown", "model", l.model)
		} else {
			l.logger.Warn("cost tracking failed", "error", err)
		}
	}

	l.history = append(l.history, provider.Message{Role: "user", Content: userMessage})
	if turn.Assistant != "" {
		l.history = append(l.history, provider.Message{Role: "assistant", Content: turn.Assistant})
	}

	if err := l.log.AppendTurn(turn, toTranscriptTotals(l.tracker.SessionTotals())); err != nil {
		// The turn is retained in the in-memory document; the next successful
		// flush rewrites the whole file, so nothing already completed is lost.
		fmt.Fprintln(l.out, "Warning: could not save transcript; will retry.")
		l.logger.Error("transcript write failed", "error", err)
	}
}

// Close writes the final transcript document with the session totals.
func (l *Loop) Close() error {
	return l.log.Close(toTranscriptTotals(l.tracker.SessionTotals()))
}

// Totals returns the session aggregates accumulated so far.
func (l *Loop) Totals() pricing.Totals {
	return l.tracker.SessionTotals()
}

func toTranscriptTotals(t pricing.Totals) transcript.Totals {
	return transcript.Totals{
		PromptTokens:     t.PromptTokens,
		CompletionTokens: t.CompletionTokens,
		TotalTokens:      t.TotalTokens(),
		CostUSD:          t.Cost,
		Requests:         t.Requests,
	}
}
