package stocktool

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/itsneelabh/stockbrief/internal/alphavantage"
	"github.com/itsneelabh/stockbrief/internal/analysis"
	"github.com/itsneelabh/stockbrief/internal/openrouter"
	"github.com/itsneelabh/stockbrief/internal/telemetry"
	"github.com/itsneelabh/stockbrief/internal/tool"
)

type identifyRequest struct {
	CompanyName string `json:"company_name"`
}

type tickerRequest struct {
	Ticker string `json:"ticker"`
}

type priceChangeRequest struct {
	Ticker string `json:"ticker"`
	Days   int    `json:"days"`
}

type analyzeRequest struct {
	CompanyName string `json:"company_name"`
	Days        int    `json:"days"`
}

// newsResponse keeps the news list under a stable key even when empty.
type newsResponse struct {
	News []alphavantage.NewsItem `json:"news"`
}

func (s *StockTool) decode(w http.ResponseWriter, r *http.Request, capability string, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.Logger.ErrorWithContext(r.Context(), "Failed to decode request", map[string]interface{}{
			"capability": capability,
			"error":      err.Error(),
		})
		tool.WriteError(w, &tool.Error{
			Code:     "INVALID_REQUEST",
			Message:  "Invalid request format",
			Category: tool.CategoryInputError,
		})
		telemetry.CountInvocation(r.Context(), capability, false)
		return false
	}
	return true
}

func (s *StockTool) respond(w http.ResponseWriter, r *http.Request, capability string, data interface{}, err error) {
	ctx := r.Context()
	if err != nil {
		toolErr := classifyError(err)
		s.Logger.WarnWithContext(ctx, "Capability failed", map[string]interface{}{
			"capability": capability,
			"code":       toolErr.Code,
			"error":      err.Error(),
		})
		telemetry.RecordSpanError(ctx, err)
		telemetry.CountInvocation(ctx, capability, false)
		tool.WriteError(w, toolErr)
		return
	}
	telemetry.CountInvocation(ctx, capability, true)
	tool.WriteSuccess(w, data)
}

func (s *StockTool) handleIdentifyTicker(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if !s.decode(w, r, "identify_stock_ticker", &req) {
		return
	}
	telemetry.AddSpanEvent(r.Context(), "identifying_ticker",
		attribute.String("company_name", req.CompanyName),
	)
	match, err := s.data.LookupTicker(r.Context(), req.CompanyName)
	s.respond(w, r, "identify_stock_ticker", match, err)
}

func (s *StockTool) handleStockNews(w http.ResponseWriter, r *http.Request) {
	var req tickerRequest
	if !s.decode(w, r, "get_stock_news", &req) {
		return
	}
	news, err := s.data.FetchNews(r.Context(), req.Ticker)
	if err != nil {
		s.respond(w, r, "get_stock_news", nil, err)
		return
	}
	s.respond(w, r, "get_stock_news", newsResponse{News: news}, nil)
}

func (s *StockTool) handleCurrentPrice(w http.ResponseWriter, r *http.Request) {
	var req tickerRequest
	if !s.decode(w, r, "get_current_price", &req) {
		return
	}
	quote, err := s.data.CurrentPrice(r.Context(), req.Ticker)
	s.respond(w, r, "get_current_price", quote, err)
}

func (s *StockTool) handlePriceChange(w http.ResponseWriter, r *http.Request) {
	var req priceChangeRequest
	if !s.decode(w, r, "get_price_change", &req) {
		return
	}
	change, err := s.data.PriceChange(r.Context(), req.Ticker, req.Days)
	s.respond(w, r, "get_price_change", change, err)
}

func (s *StockTool) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decode(w, r, "analyze_ticker", &req) {
		return
	}
	telemetry.AddSpanEvent(r.Context(), "analyzing_company",
		attribute.String("company_name", req.CompanyName),
		attribute.Int("days", req.Days),
	)
	report, err := s.analyzer.Analyze(r.Context(), req.CompanyName, req.Days)
	s.respond(w, r, "analyze_ticker", report, err)
}

// classifyError maps adapter errors onto the structured error vocabulary the
// hosting agent uses for its retry decisions.
func classifyError(err error) *tool.Error {
	switch {
	case errors.Is(err, alphavantage.ErrInvalidArgument):
		return &tool.Error{
			Code:     "INVALID_ARGUMENT",
			Message:  err.Error(),
			Category: tool.CategoryInputError,
		}
	case errors.Is(err, analysis.ErrLookupFailed):
		return &tool.Error{
			Code:      "LOOKUP_FAILED",
			Message:   "Could not identify ticker.",
			Category:  tool.CategoryNotFound,
			Retryable: true,
			Details:   map[string]string{"hint": "Check the company name spelling or try the full legal name"},
		}
	case errors.Is(err, alphavantage.ErrTickerNotFound):
		return &tool.Error{
			Code:      "TICKER_NOT_FOUND",
			Message:   "Ticker not found",
			Category:  tool.CategoryNotFound,
			Retryable: true,
			Details:   map[string]string{"hint": "Only US-listed companies are matched"},
		}
	case errors.Is(err, alphavantage.ErrPriceUnavailable):
		return &tool.Error{
			Code:      "PRICE_UNAVAILABLE",
			Message:   "Could not fetch price (API limit or invalid ticker).",
			Category:  tool.CategoryServiceError,
			Retryable: true,
		}
	case errors.Is(err, alphavantage.ErrSeriesUnavailable):
		return &tool.Error{
			Code:      "SERIES_UNAVAILABLE",
			Message:   "Could not fetch price history.",
			Category:  tool.CategoryServiceError,
			Retryable: true,
		}
	case errors.Is(err, alphavantage.ErrInsufficientHistory):
		return &tool.Error{
			Code:      "INSUFFICIENT_HISTORY",
			Message:   "Not enough data.",
			Category:  tool.CategoryNotFound,
			Retryable: true,
			Details:   map[string]string{"hint": "Reduce the days parameter"},
		}
	case errors.Is(err, openrouter.ErrUnauthorized):
		return &tool.Error{
			Code:     "PROVIDER_AUTH_FAILED",
			Message:  "LLM provider rejected credentials",
			Category: tool.CategoryAuthError,
		}
	case errors.Is(err, openrouter.ErrRateLimited):
		return &tool.Error{
			Code:      "PROVIDER_RATE_LIMITED",
			Message:   "LLM provider rate limit exceeded",
			Category:  tool.CategoryRateLimit,
			Retryable: true,
		}
	case errors.Is(err, openrouter.ErrNoCompletion):
		return &tool.Error{
			Code:     "SUMMARY_FAILED",
			Message:  "LLM provider returned no completion",
			Category: tool.CategoryServiceError,
		}
	default:
		return &tool.Error{
			Code:      "UPSTREAM_ERROR",
			Message:   err.Error(),
			Category:  tool.CategoryServiceError,
			Retryable: true,
		}
	}
}
