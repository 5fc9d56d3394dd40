// Package alphavantage adapts the Alpha Vantage HTTP API into the small,
// stable shapes the rest of the service consumes. Each operation is a single
// GET with function-specific query parameters and an explicit validation of
// the provider's nested response keys.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/itsneelabh/stockbrief/internal/logging"
	"github.com/itsneelabh/stockbrief/internal/telemetry"
)

// Client issues Alpha Vantage queries. Safe for concurrent use; all state is
// read-only after construction.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates an Alpha Vantage client. The API key is injected here
// once at startup and never read from the environment in call paths.
func NewClient(apiKey, baseURL string, httpClient *http.Client, logger logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// query performs one GET against the provider and decodes the JSON body into out.
func (c *Client) query(ctx context.Context, params url.Values, out interface{}) error {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// LookupTicker finds the US-listed ticker for a company name. Candidates are
// filtered to region "United States" and the first match in provider order
// wins; there is no re-ranking by score.
func (c *Client) LookupTicker(ctx context.Context, companyName string) (*TickerMatch, error) {
	if companyName == "" {
		return nil, fmt.Errorf("company name is required: %w", ErrInvalidArgument)
	}

	ctx, span := telemetry.StartSpan(ctx, "alphavantage.lookup_ticker")
	defer span.End()
	span.SetAttributes(attribute.String("company_name", companyName))

	params := url.Values{}
	params.Set("function", "SYMBOL_SEARCH")
	params.Set("keywords", companyName)

	var result symbolSearchResponse
	if err := c.query(ctx, params, &result); err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, match := range result.BestMatches {
		if match[fieldRegion] != regionUS {
			continue
		}
		score, err := strconv.ParseFloat(match[fieldMatchScore], 64)
		if err != nil {
			err = fmt.Errorf("malformed match score %q: %w", match[fieldMatchScore], err)
			span.RecordError(err)
			return nil, err
		}
		c.logger.InfoWithContext(ctx, "Ticker resolved", map[string]interface{}{
			"company_name": companyName,
			"ticker":       match[fieldSymbol],
			"match_score":  score,
		})
		return &TickerMatch{
			Ticker:     match[fieldSymbol],
			Name:       match[fieldName],
			MatchScore: score,
		}, nil
	}

	c.logger.WarnWithContext(ctx, "No US ticker match", map[string]interface{}{
		"company_name": companyName,
		"candidates":   len(result.BestMatches),
	})
	return nil, fmt.Errorf("no US match for %q: %w", companyName, ErrTickerNotFound)
}

// FetchNews returns at most the first 3 news items for a ticker, in provider
// relevance order. A missing or empty feed yields an empty slice, not an error.
func (c *Client) FetchNews(ctx context.Context, ticker string) ([]NewsItem, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required: %w", ErrInvalidArgument)
	}

	ctx, span := telemetry.StartSpan(ctx, "alphavantage.fetch_news")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("tickers", ticker)

	var result newsResponse
	if err := c.query(ctx, params, &result); err != nil {
		span.RecordError(err)
		return nil, err
	}

	items := make([]NewsItem, 0, 3)
	for _, entry := range result.Feed {
		if len(items) == 3 {
			break
		}
		items = append(items, NewsItem{
			Title:     entry.Title,
			URL:       entry.URL,
			Sentiment: entry.SentimentScore,
		})
	}
	return items, nil
}

// CurrentPrice returns the close of the most recent 5-minute interval.
// The timestamp is the fetch time, and the currency is always USD.
func (c *Client) CurrentPrice(ctx context.Context, ticker string) (*PriceQuote, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required: %w", ErrInvalidArgument)
	}

	ctx, span := telemetry.StartSpan(ctx, "alphavantage.current_price")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	params := url.Values{}
	params.Set("function", "TIME_SERIES_INTRADAY")
	params.Set("symbol", ticker)
	params.Set("interval", "5min")

	var result timeSeriesResponse
	if err := c.query(ctx, params, &result); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(result.Intraday) == 0 {
		err := fmt.Errorf("no intraday series for %s (API limit or invalid ticker): %w", ticker, ErrPriceUnavailable)
		span.RecordError(err)
		return nil, err
	}

	latest := ""
	for ts := range result.Intraday {
		if ts > latest {
			latest = ts
		}
	}

	closeStr, ok := result.Intraday[latest][fieldClose]
	if !ok {
		return nil, fmt.Errorf("intraday entry missing close field: %w", ErrPriceUnavailable)
	}
	price, err := strconv.ParseFloat(closeStr, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed close %q: %w", closeStr, ErrPriceUnavailable)
	}

	return &PriceQuote{
		Price:     price,
		Currency:  "USD",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// DailyClose is one (date, close) observation from the daily series.
type DailyClose struct {
	Date  string
	Close float64
}

// PriceChange compares the latest daily close against the close `days`
// trading days back. The offset counts returned trading days, not calendar
// days: with weekends omitted by the provider, days=7 compares against the
// 7th most recent trading day.
func (c *Client) PriceChange(ctx context.Context, ticker string, days int) (*PriceChange, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required: %w", ErrInvalidArgument)
	}
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive: %w", ErrInvalidArgument)
	}

	ctx, span := telemetry.StartSpan(ctx, "alphavantage.price_change")
	defer span.End()
	span.SetAttributes(
		attribute.String("ticker", ticker),
		attribute.Int("days", days),
	)

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", ticker)

	var result timeSeriesResponse
	if err := c.query(ctx, params, &result); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if result.Daily == nil {
		err := fmt.Errorf("no daily series for %s: %w", ticker, ErrSeriesUnavailable)
		span.RecordError(err)
		return nil, err
	}

	closes, err := sortedDailyCloses(result.Daily)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(closes) < days+1 {
		err := fmt.Errorf("need %d closes, have %d: %w", days+1, len(closes), ErrInsufficientHistory)
		span.RecordError(err)
		return nil, err
	}

	latest := closes[0].Close
	prev := closes[days].Close
	changePct := roundTo2(((latest - prev) / prev) * 100)

	c.logger.InfoWithContext(ctx, "Price change computed", map[string]interface{}{
		"ticker":       ticker,
		"days":         days,
		"latest_close": latest,
		"prev_close":   prev,
		"change_pct":   changePct,
	})

	return &PriceChange{
		ChangePct:   changePct,
		LatestClose: latest,
		PrevClose:   prev,
	}, nil
}

// sortedDailyCloses extracts closes sorted by date descending (newest first).
func sortedDailyCloses(series map[string]map[string]string) ([]DailyClose, error) {
	closes := make([]DailyClose, 0, len(series))
	for date, fields := range series {
		closeStr, ok := fields[fieldClose]
		if !ok {
			return nil, fmt.Errorf("daily entry %s missing close field: %w", date, ErrSeriesUnavailable)
		}
		value, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed close %q for %s: %w", closeStr, date, ErrSeriesUnavailable)
		}
		closes = append(closes, DailyClose{Date: date, Close: value})
	}
	sort.Slice(closes, func(i, j int) bool { return closes[i].Date > closes[j].Date })
	return closes, nil
}

// roundTo2 rounds half away from zero to 2 decimal places.
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
