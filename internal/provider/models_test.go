package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPricing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		fmt.Fprint(w, `{"data":[
			{"id":"a/one","pricing":{"prompt":"0.000003","completion":"0.000015"}},
			{"id":"b/two","pricing":{"prompt":"0.0000025","completion":"0.00001"}},
			{"id":"c/broken","pricing":{"prompt":"free","completion":"0"}}
		]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	table, err := client.FetchPricing(context.Background())
	require.NoError(t, err)

	price, err := table.Lookup("a/one")
	require.NoError(t, err)
	// 1200 prompt + 200 completion at $3/$15 per million
	assert.True(t, price.Cost(1200, 200).Equal(decimal.RequireFromString("0.0066")))

	_, err = table.Lookup("b/two")
	assert.NoError(t, err)

	// entries with unparseable prices are skipped, not fatal
	_, err = table.Lookup("c/broken")
	assert.Error(t, err)
}

func TestFetchPricingServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.FetchPricing(context.Background())
	assert.Error(t, err)
}
