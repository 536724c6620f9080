package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// Error is the normalized failure of a single provider call. Status carries
// the upstream HTTP status when the provider responded with a non-2xx; it is
// zero when no response was received at all (DNS, connect, timeout).
type Error struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *Error) Error() string {
	if e.Transport() {
		return fmt.Sprintf("%s: network error: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Provider, e.Status, e.Body)
}

func (e *Error) Unwrap() error { return e.Err }

// Transport reports whether the failure happened before any upstream
// response was received.
func (e *Error) Transport() bool { return e.Status == 0 }

// QuoteProvider fetches raw market data for a symbol. Implementations issue
// exactly one outbound request per call and return the provider payload
// uninterpreted; schema validation happens in the normalize package.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (json.RawMessage, error)
	CompanyProfile(ctx context.Context, symbol string) (json.RawMessage, error)
}

// NewsProvider fetches raw news articles, either by free-text query or by
// headline category.
type NewsProvider interface {
	Everything(ctx context.Context, query string) ([]json.RawMessage, error)
	TopHeadlines(ctx context.Context, category string) ([]json.RawMessage, error)
}
