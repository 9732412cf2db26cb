package pricing

import "github.com/shopspring/decimal"

// Delta is the cost attributed to a single request. Known is false when the
// model had no price entry; the cost is then zero, not an estimate.
type Delta struct {
	Cost  decimal.Decimal
	Known bool
}

// Totals are the running session aggregates. Cost covers priced requests
// only; token counts cover every request, priced or not.
type Totals struct {
	PromptTokens     int64
	CompletionTokens int64
	Cost             decimal.Decimal
	Requests         int
}

// TotalTokens is the combined prompt and completion count.
func (t Totals) TotalTokens() int64 {
	return t.PromptTokens + t.CompletionTokens
}

// Tracker accumulates usage and cost for one session. Pure accumulation,
// no I/O. Not safe for concurrent use; the session loop owns it exclusively.
type Tracker struct {
	table  Table
	totals Totals
}

// NewTracker creates a tracker over the given price table.
func NewTracker(table Table) *Tracker {
	return &Tracker{table: table, totals: Totals{Cost: decimal.Zero}}
}

// RecordUsage folds one request's token counts into the session totals and
// returns its cost delta. An unknown model contributes zero cost and returns
// ErrUnknownModel; token counts and the request count still accumulate, so
// later requests with a priced model compute normally.
func (tr *Tracker) RecordUsage(model string, promptTokens, completionTokens int64) (Delta, error) {
	tr.totals.PromptTokens += promptTokens
	tr.totals.CompletionTokens += completionTokens
	tr.totals.Requests++

	price, err := tr.table.Lookup(model)
	if err != nil {
		return Delta{Cost: decimal.Zero}, err
	}

	cost := price.Cost(promptTokens, completionTokens)
	tr.totals.Cost = tr.totals.Cost.Add(cost)
	return Delta{Cost: cost, Known: true}, nil
}

// SessionTotals returns the aggregates accumulated so far.
func (tr *Tracker) SessionTotals() Totals {
	return tr.totals
}
