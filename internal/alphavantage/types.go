package alphavantage

// TickerMatch is the normalized result of a symbol search.
type TickerMatch struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	MatchScore float64 `json:"match_score"`
}

// NewsItem is one normalized news article with its provider sentiment score.
type NewsItem struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Sentiment float64 `json:"sentiment"`
}

// PriceQuote is the latest intraday price. Timestamp is the fetch time, not
// the exchange time of the interval.
type PriceQuote struct {
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Timestamp string  `json:"timestamp"`
}

// PriceChange compares the latest daily close against the close `days`
// trading days earlier.
type PriceChange struct {
	ChangePct   float64 `json:"change_pct"`
	LatestClose float64 `json:"latest_close"`
	PrevClose   float64 `json:"prev_close"`
}

// Alpha Vantage responses use numbered field labels that must be matched
// literally.
const (
	fieldSymbol     = "1. symbol"
	fieldName       = "2. name"
	fieldRegion     = "4. region"
	fieldMatchScore = "9. matchScore"
	fieldClose      = "4. close"

	regionUS = "United States"
)

type symbolSearchResponse struct {
	BestMatches []map[string]string `json:"bestMatches"`
}

type newsFeedItem struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	SentimentScore float64 `json:"overall_sentiment_score"`
}

type newsResponse struct {
	Feed []newsFeedItem `json:"feed"`
}

// timeSeriesResponse covers both intraday and daily payloads; only the series
// under the relevant key is read.
type timeSeriesResponse struct {
	Intraday map[string]map[string]string `json:"Time Series (5min)"`
	Daily    map[string]map[string]string `json:"Time Series (Daily)"`
}
