// Package analysis implements the composite analyze operation: resolve a
// company to a ticker, fetch its price change and news, and have an LLM
// summarize the movement.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/itsneelabh/stockbrief/internal/alphavantage"
	"github.com/itsneelabh/stockbrief/internal/logging"
	"github.com/itsneelabh/stockbrief/internal/telemetry"
)

// DefaultDays is the lookback applied when the caller does not specify one.
const DefaultDays = 7

// ErrLookupFailed means the company could not be resolved to a ticker. It is
// the only fatal failure: price and news failures degrade into the report.
var ErrLookupFailed = errors.New("ticker lookup failed")

// TickerResolver resolves company names to tickers.
type TickerResolver interface {
	LookupTicker(ctx context.Context, companyName string) (*alphavantage.TickerMatch, error)
}

// PriceReader computes price changes over trading-day windows.
type PriceReader interface {
	PriceChange(ctx context.Context, ticker string, days int) (*alphavantage.PriceChange, error)
}

// NewsReader fetches recent news for a ticker.
type NewsReader interface {
	FetchNews(ctx context.Context, ticker string) ([]alphavantage.NewsItem, error)
}

// Summarizer generates a natural-language summary from a prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// PriceChangeResult is a result-or-error union. When the price fetch failed,
// the error message is carried instead of the figures, so callers still see
// why that part of the report degraded.
type PriceChangeResult struct {
	Change *alphavantage.PriceChange
	Err    string
}

// MarshalJSON emits either the price change object or {"error": message}.
func (r PriceChangeResult) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(map[string]string{"error": r.Err})
	}
	return json.Marshal(r.Change)
}

// String renders the result for prompt embedding.
func (r PriceChangeResult) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(data)
}

// Report is the composite analysis output: the narrative plus the structured
// data it was built from, so callers see both even when one source degraded.
type Report struct {
	Summary     string                  `json:"summary"`
	PriceChange PriceChangeResult       `json:"price_change"`
	RecentNews  []alphavantage.NewsItem `json:"recent_news"`
}

// Analyzer sequences the lookup, price, news, and summarization calls.
type Analyzer struct {
	tickers    TickerResolver
	prices     PriceReader
	news       NewsReader
	summarizer Summarizer
	logger     logging.Logger
}

// NewAnalyzer wires the analyzer's collaborators.
func NewAnalyzer(tickers TickerResolver, prices PriceReader, news NewsReader, summarizer Summarizer, logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Analyzer{
		tickers:    tickers,
		prices:     prices,
		news:       news,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Analyze runs the composite operation. Only ticker-lookup failure is fatal;
// price and news failures degrade gracefully into the prompt and the report.
// days defaults to DefaultDays when non-positive.
func (a *Analyzer) Analyze(ctx context.Context, companyName string, days int) (*Report, error) {
	if companyName == "" {
		return nil, fmt.Errorf("company name is required: %w", alphavantage.ErrInvalidArgument)
	}
	if days <= 0 {
		days = DefaultDays
	}

	ctx, span := telemetry.StartSpan(ctx, "analysis.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("company_name", companyName),
		attribute.Int("days", days),
	)

	match, err := a.tickers.LookupTicker(ctx, companyName)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w for %q: %v", ErrLookupFailed, companyName, err)
	}
	ticker := match.Ticker

	priceResult := PriceChangeResult{}
	if change, err := a.prices.PriceChange(ctx, ticker, days); err != nil {
		a.logger.WarnWithContext(ctx, "Price change unavailable, degrading report", map[string]interface{}{
			"ticker": ticker,
			"days":   days,
			"error":  err,
		})
		priceResult.Err = err.Error()
	} else {
		priceResult.Change = change
	}

	news, err := a.news.FetchNews(ctx, ticker)
	if err != nil {
		a.logger.WarnWithContext(ctx, "News unavailable, degrading report", map[string]interface{}{
			"ticker": ticker,
			"error":  err,
		})
		news = []alphavantage.NewsItem{}
	}

	prompt := buildPrompt(companyName, ticker, days, priceResult, news)

	summary, err := a.summarizer.Summarize(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &Report{
		Summary:     summary,
		PriceChange: priceResult,
		RecentNews:  news,
	}, nil
}

// buildPrompt embeds the structured results, including any price-change error
// payload, into the summarization prompt.
func buildPrompt(companyName, ticker string, days int, price PriceChangeResult, news []alphavantage.NewsItem) string {
	newsJSON, err := json.Marshal(news)
	if err != nil {
		newsJSON = []byte("[]")
	}
	return fmt.Sprintf(
		"Analyze the stock %s (%s) for the last %d days.\n"+
			"Price change: %s\n"+
			"Recent news: %s\n"+
			"Summarize the main reasons for the price movement.",
		companyName, ticker, days, price.String(), string(newsJSON),
	)
}
