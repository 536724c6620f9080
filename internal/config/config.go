package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Finnhub struct {
	APIKey  string `json:"-"`
	BaseURL string `json:"base_url"`
}

type NewsAPI struct {
	APIKey   string   `json:"-"`
	BaseURL  string   `json:"base_url"`
	PageSize int      `json:"news_page_size"`
	SortBy   string   `json:"news_sort_by"`
	Sources  []string `json:"preferred_news_sources"`
}

type DB struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"-"`
	Name         string `json:"name"`
	SSLMode      string `json:"sslmode"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

type Ingest struct {
	Symbols    []string `json:"company_list"`
	Categories []string `json:"news_categories"`
}

type Config struct {
	Server  Server  `json:"server"`
	Finnhub Finnhub `json:"finnhub"`
	NewsAPI NewsAPI `json:"newsapi"`
	DB      DB      `json:"db"`
	Log     Log     `json:"log"`
	Ingest  Ingest  `json:"ingest"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8000", RequestTimeoutSec: 10},
		Finnhub: Finnhub{
			BaseURL: "https://finnhub.io/api/v1",
		},
		NewsAPI: NewsAPI{
			BaseURL:  "https://newsapi.org/v2",
			PageSize: 5,
			SortBy:   "popularity",
		},
		DB: DB{
			Host:         "localhost",
			Port:         5432,
			User:         "postgres",
			Name:         "marketdata",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Log: Log{Level: "info", Format: "console"},
		Ingest: Ingest{
			Symbols:    []string{"AAPL", "MSFT", "GOOGL"},
			Categories: []string{"business", "technology"},
		},
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Secrets (API keys, DB password) come only from
// environment variables; the env also overrides select non-secret fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		if x := atoi(v); x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}

	if v := os.Getenv("STOCK_API_KEY"); v != "" {
		cfg.Finnhub.APIKey = v
	}
	if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
		cfg.Finnhub.BaseURL = v
	}

	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.NewsAPI.APIKey = v
	}
	if v := os.Getenv("NEWSAPI_BASE_URL"); v != "" {
		cfg.NewsAPI.BaseURL = v
	}
	if v := os.Getenv("NEWS_PAGE_SIZE"); v != "" {
		if x := atoi(v); x > 0 {
			cfg.NewsAPI.PageSize = x
		}
	}
	if v := os.Getenv("NEWS_SORT_BY"); v != "" {
		cfg.NewsAPI.SortBy = v
	}
	if v := os.Getenv("PREFERRED_NEWS_SOURCES"); v != "" {
		cfg.NewsAPI.Sources = splitCSV(v)
	}

	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.DB.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if x := atoi(v); x > 0 {
			cfg.DB.Port = x
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.DB.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.DB.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DB.Name = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.DB.SSLMode = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	if v := os.Getenv("COMPANY_LIST"); v != "" {
		cfg.Ingest.Symbols = splitCSV(v)
	}
	if v := os.Getenv("NEWS_CATEGORIES"); v != "" {
		cfg.Ingest.Categories = splitCSV(v)
	}
}

func atoi(s string) int {
	x, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return x
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
