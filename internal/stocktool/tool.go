// Package stocktool assembles the stock-analysis tool service: five
// capabilities over the financial data adapter and the composite analyzer,
// exposed to hosting agent frameworks with name/description metadata and
// input schemas.
package stocktool

import (
	"context"

	"github.com/itsneelabh/stockbrief/internal/alphavantage"
	"github.com/itsneelabh/stockbrief/internal/analysis"
	"github.com/itsneelabh/stockbrief/internal/logging"
	"github.com/itsneelabh/stockbrief/internal/tool"
)

// FinancialData is the market data surface the tool invokes.
type FinancialData interface {
	LookupTicker(ctx context.Context, companyName string) (*alphavantage.TickerMatch, error)
	FetchNews(ctx context.Context, ticker string) ([]alphavantage.NewsItem, error)
	CurrentPrice(ctx context.Context, ticker string) (*alphavantage.PriceQuote, error)
	PriceChange(ctx context.Context, ticker string, days int) (*alphavantage.PriceChange, error)
}

// AnalyzeRunner runs the composite analysis operation.
type AnalyzeRunner interface {
	Analyze(ctx context.Context, companyName string, days int) (*analysis.Report, error)
}

// StockTool is the tool service.
type StockTool struct {
	*tool.Base

	data     FinancialData
	analyzer AnalyzeRunner
}

// ServiceDescription is the registry description agents read.
const ServiceDescription = "Stock analysis tool: ticker lookup, news, prices, and LLM-powered movement summaries."

// New creates the tool and registers its five capabilities.
func New(data FinancialData, analyzer AnalyzeRunner, logger logging.Logger) (*StockTool, error) {
	s := &StockTool{
		Base:     tool.NewBase("stockbrief", logger),
		data:     data,
		analyzer: analyzer,
	}
	if err := s.registerCapabilities(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *StockTool) registerCapabilities() error {
	capabilities := []tool.Capability{
		{
			Name:        "identify_stock_ticker",
			Description: "Finds the US-listed stock ticker for a given company name. Required: company_name.",
			InputTypes:  []string{"json"},
			OutputTypes: []string{"json"},
			Handler:     s.handleIdentifyTicker,
			InputSummary: &tool.SchemaSummary{
				RequiredFields: []tool.FieldHint{
					{Name: "company_name", Type: "string", Example: "Apple", Description: "Company name to resolve"},
				},
			},
		},
		{
			Name:        "get_stock_news",
			Description: "Fetches up to 3 recent news items with sentiment scores for a ticker. Required: ticker.",
			InputTypes:  []string{"json"},
			OutputTypes: []string{"json"},
			Handler:     s.handleStockNews,
			InputSummary: &tool.SchemaSummary{
				RequiredFields: []tool.FieldHint{
					{Name: "ticker", Type: "string", Example: "AAPL", Description: "Exchange-listed stock symbol"},
				},
			},
		},
		{
			Name:        "get_current_price",
			Description: "Gets the latest intraday price (5-minute interval close) for a ticker in USD. Required: ticker.",
			InputTypes:  []string{"json"},
			OutputTypes: []string{"json"},
			Handler:     s.handleCurrentPrice,
			InputSummary: &tool.SchemaSummary{
				RequiredFields: []tool.FieldHint{
					{Name: "ticker", Type: "string", Example: "AAPL", Description: "Exchange-listed stock symbol"},
				},
			},
		},
		{
			Name:        "get_price_change",
			Description: "Computes the percentage price change over a number of trading days. Required: ticker, days.",
			InputTypes:  []string{"json"},
			OutputTypes: []string{"json"},
			Handler:     s.handlePriceChange,
			InputSummary: &tool.SchemaSummary{
				RequiredFields: []tool.FieldHint{
					{Name: "ticker", Type: "string", Example: "AAPL", Description: "Exchange-listed stock symbol"},
					{Name: "days", Type: "number", Example: "7", Description: "Trading-day lookback, must be positive"},
				},
			},
		},
		{
			Name:        "analyze_ticker",
			Description: "AI-powered summary of price movement and news for a company. Required: company_name. Optional: days (default 7).",
			InputTypes:  []string{"json"},
			OutputTypes: []string{"json"},
			Handler:     s.handleAnalyze,
			InputSummary: &tool.SchemaSummary{
				RequiredFields: []tool.FieldHint{
					{Name: "company_name", Type: "string", Example: "Apple", Description: "Company name to analyze"},
				},
				OptionalFields: []tool.FieldHint{
					{Name: "days", Type: "number", Example: "7", Description: "Trading-day lookback (default 7)"},
				},
			},
		},
	}

	for _, cap := range capabilities {
		if err := s.RegisterCapability(cap); err != nil {
			return err
		}
	}
	return nil
}
