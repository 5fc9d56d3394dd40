package alphavantage

import "errors"

// Sentinel errors for comparison with errors.Is. Callers at the tool boundary
// translate these into structured error payloads.
var (
	// ErrTickerNotFound means no US-region match exists for the company name.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrPriceUnavailable means the intraday series was absent or malformed.
	// Alpha Vantage reports both unknown tickers and exhausted rate limits as
	// a 200 response without the series key, so the two are not distinguished.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrSeriesUnavailable means the daily series key was absent.
	ErrSeriesUnavailable = errors.New("daily series unavailable")

	// ErrInsufficientHistory means fewer than days+1 daily closes were returned.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrInvalidArgument means a required input was empty or out of range.
	ErrInvalidArgument = errors.New("invalid argument")
)
