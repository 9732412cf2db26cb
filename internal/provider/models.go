package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"Jarvis/internal/pricing"
)

// modelsResponse is the wire shape of the models listing. Prices arrive as
// decimal strings in USD per token.
type modelsResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Pricing struct {
			Prompt     string `json:"prompt"`
			Completion string `json:"completion"`
		} `json:"pricing"`
	} `json:"data"`
}

// FetchPricing retrieves the provider's live price sheet. Called once at
// startup; the caller merges the result over the built-in table and treats
// failure as a warning, not an error worth aborting for.
func (c *Client) FetchPricing(ctx context.Context) (pricing.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Status: resp.StatusCode, Err: fmt.Errorf("models listing failed")}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Err: err}
	}

	var listing modelsResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &Error{Err: fmt.Errorf("malformed models listing: %w", err)}
	}

	table := pricing.Table{}
	for _, model := range listing.Data {
		prompt, err := decimal.NewFromString(model.Pricing.Prompt)
		if err != nil {
			continue
		}
		completion, err := decimal.NewFromString(model.Pricing.Completion)
		if err != nil {
			continue
		}
		table[model.ID] = pricing.Price{Prompt: prompt, Completion: completion}
	}
	return table, nil
}
