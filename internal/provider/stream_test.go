package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseChunk(content string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`+"\n\n", content)
}

func sseUsage(prompt, completion int64) string {
	return fmt.Sprintf(`data: {"choices":[],"usage":{"prompt_tokens":%d,"completion_tokens":%d}}`+"\n\n", prompt, completion)
}

// collect drains a stream into its fragments, terminal usage, and first error.
func collect(t *testing.T, c *Client, ctx context.Context) ([]string, *Usage, error) {
	t.Helper()
	stream, err := c.StreamCompletion(ctx, "test/model", "sys", nil, "hi")
	if err != nil {
		return nil, nil, err
	}

	var texts []string
	var usage *Usage
	for event, err := range stream {
		if err != nil {
			return texts, usage, err
		}
		if event.Usage != nil {
			usage = event.Usage
			continue
		}
		texts = append(texts, event.Text)
	}
	return texts, usage, nil
}

func TestStreamCompletionHappyPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("Hello"))
		fmt.Fprint(w, sseChunk(", "))
		fmt.Fprint(w, sseChunk("world!"))
		fmt.Fprint(w, sseUsage(42, 7))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	texts, usage, err := collect(t, client, context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Hello, world!", strings.Join(texts, ""))
	require.NotNil(t, usage)
	assert.Equal(t, int64(42), usage.PromptTokens)
	assert.Equal(t, int64(7), usage.CompletionTokens)
}

func TestStreamCompletionSendsFullConversation(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		fmt.Fprint(w, sseUsage(1, 1))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	history := []Message{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
	}
	stream, err := client.StreamCompletion(context.Background(), "test/model", "the system prompt", history, "second question")
	require.NoError(t, err)
	for range stream {
	}

	assert.Contains(t, gotBody, `"the system prompt"`)
	assert.Contains(t, gotBody, `"first question"`)
	assert.Contains(t, gotBody, `"first answer"`)
	assert.Contains(t, gotBody, `"second question"`)
	assert.Contains(t, gotBody, `"stream":true`)
	// system first, user turn last
	assert.Less(t, strings.Index(gotBody, "system prompt"), strings.Index(gotBody, "first question"))
	assert.Less(t, strings.Index(gotBody, "first answer"), strings.Index(gotBody, "second question"))
}

func TestStreamCompletionHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.StreamCompletion(context.Background(), "test/model", "sys", nil, "hi")
	require.Error(t, err)

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusNotFound, provErr.Status)
}

func TestStreamCompletionMalformedChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseChunk("ok so far"))
		fmt.Fprint(w, "data: {not json\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	texts, _, err := collect(t, client, context.Background())

	assert.Equal(t, []string{"ok so far"}, texts)
	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Contains(t, provErr.Error(), "malformed")
}

func TestStreamCutBeforeUsageRecord(t *testing.T) {
	// Connection drops after 2 of the expected fragments: the consumer gets
	// both fragments, then an error, and never a usage record.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseChunk("one "))
		fmt.Fprint(w, sseChunk("two"))
		// no usage, no [DONE]
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	texts, usage, err := collect(t, client, context.Background())

	assert.Equal(t, []string{"one ", "two"}, texts)
	assert.Nil(t, usage)
	var provErr *Error
	require.True(t, errors.As(err, &provErr))
}

func TestStreamAbandonedMidwayClosesCleanly(t *testing.T) {
	served := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(served)
		for i := 0; i < 5; i++ {
			fmt.Fprint(w, sseChunk("chunk"))
		}
		fmt.Fprint(w, sseUsage(5, 5))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	stream, err := client.StreamCompletion(context.Background(), "test/model", "sys", nil, "hi")
	require.NoError(t, err)

	count := 0
	for event, err := range stream {
		require.NoError(t, err)
		require.NotEmpty(t, event.Text)
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
	<-served
}

func TestStreamCompletionRequiresModelAndKey(t *testing.T) {
	client := NewClient("http://localhost:0", "")
	_, err := client.StreamCompletion(context.Background(), "m", "sys", nil, "hi")
	assert.Error(t, err)

	client = NewClient("http://localhost:0", "key")
	_, err = client.StreamCompletion(context.Background(), "", "sys", nil, "hi")
	assert.Error(t, err)
}
