// Package pricing maps model identifiers to per-token prices and tracks
// token usage and cost across a session. All arithmetic uses decimals so
// totals stay exact over any number of accumulated requests.
package pricing

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrUnknownModel is returned when no price entry exists for a model. The
// session continues; the caller records the turn with cost flagged unknown.
var ErrUnknownModel = errors.New("no pricing for model")

var million = decimal.NewFromInt(1_000_000)

// Price holds USD-per-token prices for one model.
type Price struct {
	Prompt     decimal.Decimal // per prompt token
	Completion decimal.Decimal // per completion token
}

// PerMillion builds a Price from USD-per-million-token figures, the unit
// provider price sheets quote in.
func PerMillion(prompt, completion string) Price {
	return Price{
		Prompt:     decimal.RequireFromString(prompt).Div(million),
		Completion: decimal.RequireFromString(completion).Div(million),
	}
}

// Cost is the exact cost of a request at this price.
func (p Price) Cost(promptTokens, completionTokens int64) decimal.Decimal {
	prompt := decimal.NewFromInt(promptTokens).Mul(p.Prompt)
	completion := decimal.NewFromInt(completionTokens).Mul(p.Completion)
	return prompt.Add(completion)
}

// Table maps model identifiers to prices. Read-only during a session.
type Table map[string]Price

// DefaultTable returns the built-in price sheet for commonly used models,
// quoted in USD per million tokens. Merge fetched prices over it with Merge.
func DefaultTable() Table {
	return Table{
		"anthropic/claude-sonnet-4":   PerMillion("3.00", "15.00"),
		"anthropic/claude-opus-4":     PerMillion("15.00", "75.00"),
		"anthropic/claude-3.5-haiku":  PerMillion("0.80", "4.00"),
		"openai/gpt-4o":               PerMillion("2.50", "10.00"),
		"openai/gpt-4o-mini":          PerMillion("0.15", "0.60"),
		"google/gemini-2.5-pro":       PerMillion("1.25", "10.00"),
		"meta-llama/llama-3.1-70b":    PerMillion("0.30", "0.30"),
		"mistralai/mistral-large":     PerMillion("2.00", "6.00"),
		"deepseek/deepseek-chat":      PerMillion("0.27", "1.10"),
		"qwen/qwen-2.5-72b-instruct":  PerMillion("0.35", "0.40"),
	}
}

// Lookup returns the price entry for a model.
func (t Table) Lookup(model string) (Price, error) {
	price, ok := t[model]
	if !ok {
		return Price{}, ErrUnknownModel
	}
	return price, nil
}

// Merge overlays other onto the table, replacing existing entries.
func (t Table) Merge(other Table) {
	for model, price := range other {
		t[model] = price
	}
}

// Models returns the known model identifiers in sorted order.
func (t Table) Models() []string {
	models := make([]string, 0, len(t))
	for model := range t {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// FormatUSD renders a cost for display, with more precision for small
// amounts so sub-cent requests don't show as $0.00.
func FormatUSD(cost decimal.Decimal) string {
	cent := decimal.New(1, -2)
	tenthOfCent := decimal.New(1, -4)
	switch {
	case cost.LessThan(tenthOfCent):
		return "$" + cost.StringFixed(6)
	case cost.LessThan(cent):
		return "$" + cost.StringFixed(4)
	default:
		return "$" + cost.StringFixed(2)
	}
}
