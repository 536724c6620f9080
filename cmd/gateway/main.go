package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"marketgateway/internal/config"
	"marketgateway/internal/gateway"
	"marketgateway/internal/httpx"
	"marketgateway/internal/logging"
	"marketgateway/internal/metrics"
	"marketgateway/internal/provider/finnhub"
	"marketgateway/internal/provider/newsapi"
	"marketgateway/internal/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log)
	defer func() { _ = logger.Sync() }()

	if cfg.Finnhub.APIKey == "" {
		logger.Warn("STOCK_API_KEY not set; quote fetches will fail upstream")
	}
	if cfg.NewsAPI.APIKey == "" {
		logger.Warn("NEWS_API_KEY not set; news will degrade to empty results")
	}

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

	svc := gateway.NewService(quotes, news, st, logger, timeout)
	router := gateway.NewRouter(svc, metrics.New("gateway"), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("gateway listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
