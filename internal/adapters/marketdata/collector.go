package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

// Collector fetches market and social metrics for a trading symbol and
// assembles them into a feed snapshot.
type Collector struct {
	baseURL       string
	socialBaseURL string
	httpClient    *resty.Client
}

// NewCollector creates a collector with configuration options.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		baseURL:    "https://api.binance.com",
		httpClient: newClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithBaseURL overrides the market data API base URL.
func WithBaseURL(url string) CollectorOption {
	return func(c *Collector) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithSocialBaseURL sets the social mentions API base URL.
// Social metrics are skipped when empty.
func WithSocialBaseURL(url string) CollectorOption {
	return func(c *Collector) {
		c.socialBaseURL = url
	}
}

// WithHTTPClient overrides the REST client, mainly for tests.
func WithHTTPClient(client *resty.Client) CollectorOption {
	return func(c *Collector) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Name identifies the upstream data source.
func (c *Collector) Name() string {
	return "binance"
}

// CollectSnapshot fetches the 24hr ticker for symbol and, when a social API
// is configured, the current mention count, and returns them as a feed
// snapshot for projectID.
//
// Holder growth is not available from the ticker API and is reported as
// zero; manual ingestion via the HTTP API can supply it.
func (c *Collector) CollectSnapshot(ctx context.Context, projectID, symbol string) (model.FeedSnapshot, error) {
	ticker, err := c.fetchTicker(ctx, symbol)
	if err != nil {
		return model.FeedSnapshot{}, err
	}

	mentions := 0
	if c.socialBaseURL != "" {
		if m, err := c.fetchMentions(ctx, symbol); err == nil {
			mentions = m
		}
	}

	return model.FeedSnapshot{
		ProjectID: projectID,
		// Quote volume doubles as a liquidity proxy: the ticker API does
		// not expose pool depth.
		Liquidity:       ticker.quoteVolume,
		Volume24h:       ticker.quoteVolume,
		HolderGrowth:    0,
		PriceVolatility: math.Abs(ticker.priceChangePercent),
		SocialMentions:  mentions,
		Price:           ticker.lastPrice,
		PriceChange:     ticker.priceChangePercent,
		Timestamp:       time.Now(),
	}, nil
}

type tickerStats struct {
	lastPrice          float64
	quoteVolume        float64
	priceChangePercent float64
}

func (c *Collector) fetchTicker(ctx context.Context, symbol string) (tickerStats, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", c.baseURL, symbol)

	resp, err := c.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return tickerStats{}, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusBadRequest {
		return tickerStats{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if resp.StatusCode() != http.StatusOK {
		return tickerStats{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	var ticker struct {
		LastPrice          string `json:"lastPrice"`
		QuoteVolume        string `json:"quoteVolume"`
		PriceChangePercent string `json:"priceChangePercent"`
	}

	if err := json.Unmarshal(resp.Body(), &ticker); err != nil {
		return tickerStats{}, fmt.Errorf("failed to decode response: %w", err)
	}

	price, err := strconv.ParseFloat(ticker.LastPrice, 64)
	if err != nil {
		return tickerStats{}, fmt.Errorf("failed to parse price: %w", err)
	}

	volume, err := strconv.ParseFloat(ticker.QuoteVolume, 64)
	if err != nil {
		return tickerStats{}, fmt.Errorf("failed to parse volume: %w", err)
	}

	priceChange, err := strconv.ParseFloat(ticker.PriceChangePercent, 64)
	if err != nil {
		return tickerStats{}, fmt.Errorf("failed to parse price change: %w", err)
	}

	return tickerStats{
		lastPrice:          price,
		quoteVolume:        volume,
		priceChangePercent: priceChange,
	}, nil
}

func (c *Collector) fetchMentions(ctx context.Context, symbol string) (int, error) {
	url := fmt.Sprintf("%s/v1/mentions?symbol=%s", c.socialBaseURL, symbol)

	resp, err := c.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	var result struct {
		Mentions int `json:"mentions"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Mentions, nil
}
