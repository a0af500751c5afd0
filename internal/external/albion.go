package external

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/httputil"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

const DefaultMarketURL = "https://west.albion-online-data.com"

// The market API caps the request URL length, so item IDs are requested in
// chunks.
const maxItemsPerRequest = 100

// apiTimeLayout is the zone-less UTC timestamp the market API returns.
const apiTimeLayout = "2006-01-02T15:04:05"

type apiTime struct{ time.Time }

func (t *apiTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(apiTimeLayout, strings.TrimSuffix(s, "Z"), time.UTC)
	if err != nil {
		return fmt.Errorf("parse market time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

type PriceStat struct {
	ItemID           string  `json:"item_id"`
	City             string  `json:"city"`
	Quality          int     `json:"quality"`
	SellPriceMin     int64   `json:"sell_price_min"`
	SellPriceMinDate apiTime `json:"sell_price_min_date"`
	SellPriceMax     int64   `json:"sell_price_max"`
	BuyPriceMin      int64   `json:"buy_price_min"`
	BuyPriceMax      int64   `json:"buy_price_max"`
}

// Observation converts the stat into a stored price sample recorded at
// recordedAt. A city without sell orders yields price 0.
func (p PriceStat) Observation(recordedAt time.Time) models.Observation {
	return models.Observation{
		UniqueID:     p.ItemID,
		Location:     null.NewString(p.City, p.City != ""),
		RecordedTime: recordedAt.UTC(),
		Price:        float64(p.SellPriceMin),
		Count:        1,
		Quality:      p.Quality,
	}
}

type MarketClient struct {
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewMarketClient(baseURL string, log zerolog.Logger) *MarketClient {
	if baseURL == "" {
		baseURL = DefaultMarketURL
	}
	return &MarketClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
			Log:         log,
		},
	}
}

// WithRetry overrides the retry policy. Used by tests to shorten backoff.
func (c *MarketClient) WithRetry(cfg httputil.RetryConfig) *MarketClient {
	c.retry = cfg
	return c
}

// Prices fetches current price stats for the given items, optionally
// restricted to locations. Empty itemIDs returns nil without a request.
func (c *MarketClient) Prices(ctx context.Context, itemIDs, locations []string) ([]PriceStat, error) {
	var out []PriceStat
	for start := 0; start < len(itemIDs); start += maxItemsPerRequest {
		end := min(start+maxItemsPerRequest, len(itemIDs))
		stats, err := c.fetchPrices(ctx, itemIDs[start:end], locations)
		if err != nil {
			return nil, err
		}
		out = append(out, stats...)
	}
	return out, nil
}

func (c *MarketClient) fetchPrices(ctx context.Context, itemIDs, locations []string) ([]PriceStat, error) {
	escaped := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		escaped[i] = url.PathEscape(id)
	}
	endpoint := fmt.Sprintf("%s/api/v2/stats/prices/%s.json", c.baseURL, strings.Join(escaped, ","))
	if len(locations) > 0 {
		q := url.Values{}
		q.Set("locations", strings.Join(locations, ","))
		endpoint += "?" + q.Encode()
	}

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("market prices fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market prices returned status %d", resp.StatusCode)
	}

	var stats []PriceStat
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return stats, nil
}
