package market

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as plain JSON numbers, same as the upstream payloads.
	decimal.MarshalJSONWithoutQuotes = true
}

// Quote is a point-in-time price snapshot for one ticker. A quote is uniquely
// identified by (Ticker, ObservedAt); re-ingesting the same pair is a no-op.
type Quote struct {
	Ticker     string              `json:"-"`
	Price      decimal.Decimal     `json:"current_price"`
	High       decimal.NullDecimal `json:"high_price_of_the_day"`
	Low        decimal.NullDecimal `json:"low_price_of_the_day"`
	Open       decimal.NullDecimal `json:"open_price_of_the_day"`
	PrevClose  decimal.NullDecimal `json:"previous_close_price"`
	Volume     *int64              `json:"-"`
	ObservedAt time.Time           `json:"-"`
}

// Source is the publisher of an article.
type Source struct {
	Name string `json:"name"`
}

// Article is a news item tied to a ticker or a headline category.
// The URL is the natural key; a previously seen URL is never stored twice.
type Article struct {
	TickerOrCategory string     `json:"-"`
	Title            string     `json:"title"`
	Author           *string    `json:"author,omitempty"`
	Source           Source     `json:"source"`
	URL              string     `json:"url"`
	Description      *string    `json:"-"`
	PublishedAt      *time.Time `json:"-"`
}

// CompanyProfile is slowly-changing descriptive data for a symbol.
// Re-ingestion overwrites every non-key field (last-write-wins).
type CompanyProfile struct {
	Symbol   string
	Country  string
	Currency string
	Exchange string
	Industry string
	IPODate  string
	Name     string
}

// AnalysisResult is the unit returned by the analyze endpoint and the unit of
// work handed to persistence. It is never stored as its own row.
type AnalysisResult struct {
	Ticker   string    `json:"ticker"`
	Quote    Quote     `json:"quote"`
	Articles []Article `json:"articles"`
}
