package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// chatRequest is the wire request body. stream_options.include_usage asks
// the endpoint to append a final usage chunk before [DONE].
type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	Stream        bool           `json:"stream"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// streamChunk is one decoded SSE payload. The usage chunk typically arrives
// with empty choices.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

// StreamCompletion issues one streaming request and returns a lazy,
// single-pass sequence of events: text fragments as they arrive, then the
// usage record as the terminal element. The HTTP call happens before this
// function returns, so credential and status failures surface immediately.
//
// The caller must consume the sequence, either completely or by breaking out
// of the range loop; both close the underlying connection. Only one request
// may be in flight at a time.
func (c *Client) StreamCompletion(ctx context.Context, model, systemPrompt string, history []Message, userMessage string) (iter.Seq2[Event, error], error) {
	if model == "" {
		return nil, fmt.Errorf("no model configured")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("no API key configured")
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	body, err := json.Marshal(chatRequest{
		Model:         model,
		Messages:      messages,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "chat_completion",
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.Int("llm.request.messages", len(messages)),
		),
	)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		span.End()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.End()
		return nil, &Error{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		span.End()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{Status: resp.StatusCode, Err: fmt.Errorf("%s", string(errBody))}
	}

	scanner := newSSEScanner(resp.Body)

	seq := func(yield func(Event, error) bool) {
		// The body closes whether the stream is drained or abandoned, so
		// an interrupted consumer never leaks the connection.
		defer resp.Body.Close()
		defer span.End()

		var usage *Usage
		for {
			if ctx.Err() != nil {
				yield(Event{}, &Error{Err: ctx.Err()})
				return
			}

			payload, err := scanner.Next()
			if err == io.EOF {
				if usage == nil {
					yield(Event{}, &Error{Err: fmt.Errorf("stream ended without usage record")})
					return
				}
				c.recordRequestMetrics(ctx, start, usage)
				yield(Event{Usage: usage}, nil)
				return
			}
			if err != nil {
				yield(Event{}, &Error{Err: err})
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				yield(Event{}, &Error{Err: fmt.Errorf("malformed stream chunk: %w", err)})
				return
			}

			if chunk.Usage != nil {
				usage = &Usage{
					PromptTokens:     chunk.Usage.PromptTokens,
					CompletionTokens: chunk.Usage.CompletionTokens,
				}
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !yield(Event{Text: choice.Delta.Content}, nil) {
					return
				}
			}
		}
	}

	return seq, nil
}
