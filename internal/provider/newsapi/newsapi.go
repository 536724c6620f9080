package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"marketgateway/internal/provider"
)

// Name identifies this provider in errors and logs.
const Name = "newsapi"

const maxErrBody = 2 << 10

type Config struct {
	BaseURL string
	APIKey  string
	// PageSize, SortBy and Sources tune the /everything query; they come
	// from application settings, not from callers.
	PageSize int
	SortBy   string
	Sources  []string
}

// Client is a client for NewsAPI (https://newsapi.org). Each call issues
// exactly one outbound request and returns the article objects raw.
type Client struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config, hc *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://newsapi.org/v2"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}
	if cfg.SortBy == "" {
		cfg.SortBy = "popularity"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{cfg: cfg, client: hc}
}

// Everything searches articles matching a free-text query.
func (c *Client) Everything(ctx context.Context, query string) ([]json.RawMessage, error) {
	if query == "" {
		return nil, fmt.Errorf("newsapi: empty query")
	}
	params := url.Values{
		"q":        {query},
		"pageSize": {strconv.Itoa(c.cfg.PageSize)},
		"sortBy":   {c.cfg.SortBy},
	}
	if len(c.cfg.Sources) > 0 {
		params.Set("sources", strings.Join(c.cfg.Sources, ","))
	}
	return c.get(ctx, "/everything", params)
}

// TopHeadlines fetches current English headlines for a category.
func (c *Client) TopHeadlines(ctx context.Context, category string) ([]json.RawMessage, error) {
	if category == "" {
		return nil, fmt.Errorf("newsapi: empty category")
	}
	params := url.Values{
		"category": {category},
		"language": {"en"},
	}
	return c.get(ctx, "/top-headlines", params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	params.Set("apiKey", c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, &provider.Error{Provider: Name, Err: fmt.Errorf("creating request: %w", err)}
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, &provider.Error{Provider: Name, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrBody))
		return nil, &provider.Error{Provider: Name, Status: res.StatusCode, Body: string(b)}
	}

	// NewsAPI wraps results in an envelope; only the articles array moves on.
	var envelope struct {
		Articles []json.RawMessage `json:"articles"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, &provider.Error{Provider: Name, Err: fmt.Errorf("decode: %w", err)}
	}
	return envelope.Articles, nil
}
