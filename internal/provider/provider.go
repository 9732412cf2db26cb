// Package provider implements the OpenRouter chat-completions client. One
// streaming POST per user turn; the response is consumed as a lazy pull
// sequence of text chunks terminated by a usage record.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Error wraps any transport, HTTP, or stream-framing failure from the
// provider. Status carries the HTTP status code when one was received.
type Error struct {
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider: status %d: %v", e.Status, e.Err)
	}
	return "provider: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Message is one provider-formatted conversation message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage is the token accounting for a single request, reported as the
// terminal element of the stream.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Event is one element of the streamed response: a text fragment, or the
// usage record as the terminal element.
type Event struct {
	Text  string
	Usage *Usage
}

// Client issues streaming completion requests against a single
// chat-completions endpoint. One request in flight at a time; the caller
// consumes each stream to completion (or abandons it) before the next call.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tracer     trace.Tracer
	meter      metric.Meter
}

// NewClient creates a provider client. No request timeout is set on
// streaming calls: a stream stays open as long as tokens keep arriving, and
// cancellation is caller-driven via context.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 0},
		tracer:     otel.Tracer("jarvis"),
		meter:      otel.Meter("jarvis"),
	}
}

// recordRequestMetrics feeds the request duration histogram and the token
// usage counters after a stream delivers its usage record.
func (c *Client) recordRequestMetrics(ctx context.Context, start time.Time, usage *Usage) {
	histogram, err := c.meter.Float64Histogram(
		"llm.request.duration",
		metric.WithDescription("Completion request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(time.Since(start).Milliseconds()))
	}

	if usage == nil {
		return
	}
	promptCounter, err := c.meter.Int64Counter(
		"llm.usage.prompt_tokens",
		metric.WithDescription("Prompt tokens consumed"),
	)
	if err == nil {
		promptCounter.Add(ctx, usage.PromptTokens)
	}
	completionCounter, err := c.meter.Int64Counter(
		"llm.usage.completion_tokens",
		metric.WithDescription("Completion tokens consumed"),
	)
	if err == nil {
		completionCounter.Add(ctx, usage.CompletionTokens)
	}
}
