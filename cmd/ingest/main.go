// Command ingest runs one batch ingestion pass: company profiles and quote
// snapshots for the configured symbol list, then top headlines for each
// configured category. Scheduling (cron or similar) is external; this binary
// does a single pass and exits.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketgateway/internal/config"
	"marketgateway/internal/httpx"
	"marketgateway/internal/logging"
	"marketgateway/internal/market"
	"marketgateway/internal/normalize"
	"marketgateway/internal/provider"
	"marketgateway/internal/provider/finnhub"
	"marketgateway/internal/provider/newsapi"
	"marketgateway/internal/store"
)

func main() {
	var symbolsCSV string
	var categoriesCSV string
	var timeoutSec int
	var configPath string

	flag.StringVar(&symbolsCSV, "symbols", "", "comma-separated symbols (overrides config company_list)")
	flag.StringVar(&categoriesCSV, "categories", "", "comma-separated news categories (overrides config news_categories)")
	flag.IntVar(&timeoutSec, "timeout", 0, "per-call timeout seconds (overrides config)")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if symbolsCSV != "" {
		cfg.Ingest.Symbols = splitCSV(symbolsCSV)
	}
	if categoriesCSV != "" {
		cfg.Ingest.Categories = splitCSV(categoriesCSV)
	}
	if timeoutSec > 0 {
		cfg.Server.RequestTimeoutSec = timeoutSec
	}

	logger := logging.New(cfg.Log)
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(cfg.DB)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	httpClient := httpx.New(timeout)
	quotes := finnhub.New(cfg.Finnhub.APIKey,
		finnhub.WithBaseURL(cfg.Finnhub.BaseURL),
		finnhub.WithHTTPClient(httpClient),
	)
	news := newsapi.New(newsapi.Config{
		BaseURL:  cfg.NewsAPI.BaseURL,
		APIKey:   cfg.NewsAPI.APIKey,
		PageSize: cfg.NewsAPI.PageSize,
		SortBy:   cfg.NewsAPI.SortBy,
		Sources:  cfg.NewsAPI.Sources,
	}, httpClient)

	ctx := context.Background()
	ingestSymbols(ctx, logger, st, quotes, cfg.Ingest.Symbols, timeout)
	ingestHeadlines(ctx, logger, st, news, cfg.Ingest.Categories, timeout)
}

// ingestStore is the slice of persistence the ingest pass needs.
type ingestStore interface {
	UpsertProfile(ctx context.Context, p market.CompanyProfile) error
	CommitQuote(ctx context.Context, q market.Quote) error
	CommitArticles(ctx context.Context, tickerOrCategory string, articles []market.Article) error
}

// ingestSymbols upserts the profile and appends one quote snapshot per
// symbol. A failing symbol is logged and skipped; the pass continues.
// Every call for a symbol, store writes included, runs under one deadline.
func ingestSymbols(parent context.Context, logger *zap.Logger, st ingestStore, quotes provider.QuoteProvider, symbols []string, timeout time.Duration) {
	for _, symbol := range symbols {
		ctx, cancel := context.WithTimeout(parent, timeout)
		ingestSymbol(ctx, logger, st, quotes, symbol)
		cancel()
	}
}

func ingestSymbol(ctx context.Context, logger *zap.Logger, st ingestStore, quotes provider.QuoteProvider, symbol string) {
	if raw, err := quotes.CompanyProfile(ctx, symbol); err != nil {
		logger.Error("fetch profile", zap.String("symbol", symbol), zap.Error(err))
	} else if profile, err := normalize.Profile(symbol, raw); err != nil {
		logger.Error("normalize profile", zap.String("symbol", symbol), zap.Error(err))
	} else if err := st.UpsertProfile(ctx, profile); err != nil {
		logger.Error("upsert profile", zap.String("symbol", symbol), zap.Error(err))
	}

	raw, err := quotes.Quote(ctx, symbol)
	if err != nil {
		logger.Error("fetch quote", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	quote, err := normalize.Quote(symbol, raw)
	if err != nil {
		logger.Error("normalize quote", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	if err := st.CommitQuote(ctx, quote); err != nil {
		logger.Error("commit quote", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	logger.Info("quote ingested", zap.String("symbol", symbol))
}

// ingestHeadlines commits top headlines per category. Unlike the analyze
// path, an invalid article only skips that article. Each category, store
// write included, runs under one deadline.
func ingestHeadlines(parent context.Context, logger *zap.Logger, st ingestStore, news provider.NewsProvider, categories []string, timeout time.Duration) {
	for _, category := range categories {
		ctx, cancel := context.WithTimeout(parent, timeout)
		ingestCategory(ctx, logger, st, news, category)
		cancel()
	}
}

func ingestCategory(ctx context.Context, logger *zap.Logger, st ingestStore, news provider.NewsProvider, category string) {
	raws, err := news.TopHeadlines(ctx, category)
	if err != nil {
		logger.Error("fetch headlines", zap.String("category", category), zap.Error(err))
		return
	}
	articles := make([]market.Article, 0, len(raws))
	for _, raw := range raws {
		a, err := normalize.Article(category, raw)
		if err != nil {
			logger.Warn("skipping invalid article", zap.String("category", category), zap.Error(err))
			continue
		}
		articles = append(articles, a)
	}
	if err := st.CommitArticles(ctx, category, articles); err != nil {
		logger.Error("commit articles", zap.String("category", category), zap.Error(err))
		return
	}
	logger.Info("headlines ingested", zap.String("category", category), zap.Int("count", len(articles)))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
