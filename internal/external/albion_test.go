package external_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/external"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/httputil"
)

const pricesBody = `[
  {"item_id":"T4_BAG","city":"Martlock","quality":1,"sell_price_min":4200,"sell_price_min_date":"2024-03-05T10:05:00","sell_price_max":5000,"buy_price_min":0,"buy_price_max":3900},
  {"item_id":"T4_BAG","city":"Lymhurst","quality":1,"sell_price_min":0,"sell_price_min_date":"0001-01-01T00:00:00","sell_price_max":0,"buy_price_min":0,"buy_price_max":0}
]`

func TestMarketClientPrices(t *testing.T) {
	var gotPath, gotLocations string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLocations = r.URL.Query().Get("locations")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, pricesBody)
	}))
	defer srv.Close()

	client := external.NewMarketClient(srv.URL+"/", zerolog.Nop())
	stats, err := client.Prices(context.Background(), []string{"T4_BAG"}, []string{"Martlock", "Lymhurst"})
	require.NoError(t, err)

	assert.Equal(t, "/api/v2/stats/prices/T4_BAG.json", gotPath)
	assert.Equal(t, "Martlock,Lymhurst", gotLocations)
	require.Len(t, stats, 2)
	assert.Equal(t, int64(4200), stats[0].SellPriceMin)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 5, 0, 0, time.UTC), stats[0].SellPriceMinDate.Time)

	recorded := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	o := stats[1].Observation(recorded)
	assert.Equal(t, "T4_BAG", o.UniqueID)
	assert.Equal(t, "Lymhurst", o.Location.String)
	assert.Equal(t, 0.0, o.Price)
	assert.Equal(t, recorded, o.RecordedTime)
}

func TestMarketClientPrices_ChunksItems(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("T4_ITEM_%d", i)
	}

	client := external.NewMarketClient(srv.URL, zerolog.Nop())
	_, err := client.Prices(context.Background(), ids, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), requests.Load())
}

func TestMarketClientPrices_NoItems(t *testing.T) {
	client := external.NewMarketClient("http://127.0.0.1:1", zerolog.Nop())
	stats, err := client.Prices(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestMarketClientPrices_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := external.NewMarketClient(srv.URL, zerolog.Nop()).WithRetry(httputil.RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    20 * time.Millisecond,
	})
	_, err := client.Prices(context.Background(), []string{"T4_BAG"}, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "market prices fetch"))
}

func TestMarketClientPrices_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := external.NewMarketClient(srv.URL, zerolog.Nop())
	_, err := client.Prices(context.Background(), []string{"T4_BAG"}, nil)
	assert.ErrorContains(t, err, "status 404")
}
