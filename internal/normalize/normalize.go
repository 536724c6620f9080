// Package normalize validates raw provider payloads and reshapes them into
// the internal schema. It fails loudly: a required field that is missing or
// wrong-typed is a ValidationError naming the field, never a silently absent
// value. Unknown fields are ignored.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"marketgateway/internal/market"
)

// ValidationError reports a raw payload that failed schema normalization.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s payload: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("invalid %s payload: field %q: %s", e.Entity, e.Field, e.Reason)
}

// rawQuote carries the provider's short codes undecoded so that a wrong-typed
// field is reported by name instead of failing the whole unmarshal.
type rawQuote struct {
	Current   json.RawMessage `json:"c"`
	High      json.RawMessage `json:"h"`
	Low       json.RawMessage `json:"l"`
	Open      json.RawMessage `json:"o"`
	PrevClose json.RawMessage `json:"pc"`
	Volume    json.RawMessage `json:"v"`
	Timestamp json.RawMessage `json:"t"`
}

// Quote maps the provider's short codes (c, h, l, o, pc) onto the internal
// quote. The current price is required; the other prices normalize to null
// when absent. The t field (epoch seconds) becomes ObservedAt, defaulting to
// ingestion time when the provider gives none. Prices are parsed as decimals,
// not floats, so repeated ingestions of the same value stay byte-identical.
func Quote(ticker string, raw json.RawMessage) (market.Quote, error) {
	var rq rawQuote
	if err := json.Unmarshal(raw, &rq); err != nil {
		return market.Quote{}, &ValidationError{Entity: "quote", Reason: "not a JSON object"}
	}

	price, err := requiredDecimal("quote", "c", rq.Current)
	if err != nil {
		return market.Quote{}, err
	}

	q := market.Quote{
		Ticker:     ticker,
		Price:      price,
		ObservedAt: time.Now().UTC(),
	}
	if q.High, err = optionalDecimal("quote", "h", rq.High); err != nil {
		return market.Quote{}, err
	}
	if q.Low, err = optionalDecimal("quote", "l", rq.Low); err != nil {
		return market.Quote{}, err
	}
	if q.Open, err = optionalDecimal("quote", "o", rq.Open); err != nil {
		return market.Quote{}, err
	}
	if q.PrevClose, err = optionalDecimal("quote", "pc", rq.PrevClose); err != nil {
		return market.Quote{}, err
	}

	if present(rq.Volume) {
		var v int64
		if err := json.Unmarshal(rq.Volume, &v); err != nil {
			return market.Quote{}, &ValidationError{Entity: "quote", Field: "v", Reason: "not an integer"}
		}
		q.Volume = &v
	}
	if present(rq.Timestamp) {
		var ts int64
		if err := json.Unmarshal(rq.Timestamp, &ts); err != nil {
			return market.Quote{}, &ValidationError{Entity: "quote", Field: "t", Reason: "not an epoch timestamp"}
		}
		if ts > 0 {
			q.ObservedAt = time.Unix(ts, 0).UTC()
		}
	}
	return q, nil
}

type rawArticle struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	PublishedAt *string `json:"publishedAt"`
	Source      struct {
		Name *string `json:"name"`
	} `json:"source"`
}

// Article validates one raw news item. Title, url and source.name are
// required; the url must be an absolute http(s) URL. The nested source object
// collapses to a flat source name.
func Article(tickerOrCategory string, raw json.RawMessage) (market.Article, error) {
	var ra rawArticle
	if err := json.Unmarshal(raw, &ra); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			return market.Article{}, &ValidationError{Entity: "article", Field: ute.Field, Reason: "wrong type"}
		}
		return market.Article{}, &ValidationError{Entity: "article", Reason: "not a JSON object"}
	}

	if ra.Title == nil || *ra.Title == "" {
		return market.Article{}, &ValidationError{Entity: "article", Field: "title", Reason: "required"}
	}
	if ra.URL == nil || *ra.URL == "" {
		return market.Article{}, &ValidationError{Entity: "article", Field: "url", Reason: "required"}
	}
	u, err := url.Parse(*ra.URL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return market.Article{}, &ValidationError{Entity: "article", Field: "url", Reason: "not an absolute http(s) URL"}
	}
	if ra.Source.Name == nil || *ra.Source.Name == "" {
		return market.Article{}, &ValidationError{Entity: "article", Field: "source.name", Reason: "required"}
	}

	a := market.Article{
		TickerOrCategory: tickerOrCategory,
		Title:            *ra.Title,
		Author:           ra.Author,
		Source:           market.Source{Name: *ra.Source.Name},
		URL:              *ra.URL,
		Description:      ra.Description,
	}
	if ra.PublishedAt != nil && *ra.PublishedAt != "" {
		ts, err := time.Parse(time.RFC3339, *ra.PublishedAt)
		if err != nil {
			return market.Article{}, &ValidationError{Entity: "article", Field: "publishedAt", Reason: "not an RFC3339 timestamp"}
		}
		ts = ts.UTC()
		a.PublishedAt = &ts
	}
	return a, nil
}

// Articles normalizes a batch; the first invalid article fails the batch.
func Articles(tickerOrCategory string, raws []json.RawMessage) ([]market.Article, error) {
	out := make([]market.Article, 0, len(raws))
	for _, raw := range raws {
		a, err := Article(tickerOrCategory, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

type rawProfile struct {
	Country  *string `json:"country"`
	Currency *string `json:"currency"`
	Exchange *string `json:"exchange"`
	Industry *string `json:"finnhubIndustry"`
	IPO      *string `json:"ipo"`
	Name     *string `json:"name"`
}

// Profile reshapes the provider's company profile. All descriptive fields are
// optional; the provider returns an empty object for unknown symbols and that
// still upserts an (empty) row for the symbol.
func Profile(symbol string, raw json.RawMessage) (market.CompanyProfile, error) {
	var rp rawProfile
	if err := json.Unmarshal(raw, &rp); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			return market.CompanyProfile{}, &ValidationError{Entity: "profile", Field: ute.Field, Reason: "wrong type"}
		}
		return market.CompanyProfile{}, &ValidationError{Entity: "profile", Reason: "not a JSON object"}
	}
	return market.CompanyProfile{
		Symbol:   symbol,
		Country:  deref(rp.Country),
		Currency: deref(rp.Currency),
		Exchange: deref(rp.Exchange),
		Industry: deref(rp.Industry),
		IPODate:  deref(rp.IPO),
		Name:     deref(rp.Name),
	}, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func requiredDecimal(entity, field string, raw json.RawMessage) (decimal.Decimal, error) {
	if !present(raw) {
		return decimal.Decimal{}, &ValidationError{Entity: entity, Field: field, Reason: "required"}
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Decimal{}, &ValidationError{Entity: entity, Field: field, Reason: "not a number"}
	}
	return d, nil
}

func optionalDecimal(entity, field string, raw json.RawMessage) (decimal.NullDecimal, error) {
	if !present(raw) {
		return decimal.NullDecimal{}, nil
	}
	d, err := requiredDecimal(entity, field, raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
