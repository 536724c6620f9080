// Package gateway orchestrates one analyze request: fan out to the quote and
// news providers, normalize each result independently, persist, and return
// the combined AnalysisResult.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketgateway/internal/market"
	"marketgateway/internal/normalize"
	"marketgateway/internal/provider"
)

// Error wraps the mandatory-dependency (quote) failure of one analyze call.
// The HTTP layer maps the wrapped cause to a status; nothing else does.
type Error struct {
	Ticker string
	Err    error
}

func (e *Error) Error() string { return fmt.Sprintf("analyze %s: %v", e.Ticker, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Store is the slice of persistence the orchestrator needs.
type Store interface {
	CommitQuote(ctx context.Context, q market.Quote) error
	CommitArticles(ctx context.Context, tickerOrCategory string, articles []market.Article) error
}

type Service struct {
	quotes  provider.QuoteProvider
	news    provider.NewsProvider
	store   Store
	log     *zap.Logger
	timeout time.Duration
}

func NewService(quotes provider.QuoteProvider, news provider.NewsProvider, store Store, log *zap.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{quotes: quotes, news: news, store: store, log: log, timeout: timeout}
}

// Analyze fetches quote and news for the ticker concurrently. The quote is
// mandatory: any fetch or validation failure fails the call. News is
// best-effort: on failure an empty article list is substituted. The result is
// persisted before returning, but a persistence failure only logs; the
// caller still gets the freshly fetched data.
func (s *Service) Analyze(ctx context.Context, ticker string) (*market.AnalysisResult, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, &Error{Ticker: ticker, Err: errors.New("empty ticker")}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type quoteResult struct {
		quote market.Quote
		err   error
	}
	type newsResult struct {
		articles []market.Article
		err      error
	}
	quoteCh := make(chan quoteResult, 1)
	newsCh := make(chan newsResult, 1)

	go func() {
		raw, err := s.quotes.Quote(ctx, ticker)
		if err != nil {
			quoteCh <- quoteResult{err: err}
			return
		}
		q, err := normalize.Quote(ticker, raw)
		quoteCh <- quoteResult{quote: q, err: err}
	}()
	go func() {
		raws, err := s.news.Everything(ctx, ticker)
		if err != nil {
			newsCh <- newsResult{err: err}
			return
		}
		articles, err := normalize.Articles(ticker, raws)
		newsCh <- newsResult{articles: articles, err: err}
	}()

	qr := <-quoteCh
	nr := <-newsCh

	if qr.err != nil {
		return nil, &Error{Ticker: ticker, Err: qr.err}
	}

	articles := nr.articles
	if nr.err != nil {
		s.log.Warn("news unavailable, substituting empty list",
			zap.String("ticker", ticker), zap.Error(nr.err))
		articles = nil
	}
	if articles == nil {
		articles = []market.Article{}
	}

	result := &market.AnalysisResult{Ticker: ticker, Quote: qr.quote, Articles: articles}

	if s.store != nil {
		if err := s.store.CommitQuote(ctx, qr.quote); err != nil {
			s.log.Error("persist quote failed", zap.String("ticker", ticker), zap.Error(err))
		}
		if len(articles) > 0 {
			if err := s.store.CommitArticles(ctx, ticker, articles); err != nil {
				s.log.Error("persist articles failed", zap.String("ticker", ticker), zap.Error(err))
			}
		}
	}
	return result, nil
}
