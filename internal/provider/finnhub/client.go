package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"marketgateway/internal/provider"
)

// Name identifies this provider in errors and logs.
const Name = "finnhub"

const defaultBaseURL = "https://finnhub.io/api/v1"

// upstream error bodies are surfaced to callers; keep them bounded.
const maxErrBody = 2 << 10

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=finnhub_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Finnhub API. Each call issues exactly one
// outbound request; no retries, no state between calls.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
}

// Option is a configuration option for the Finnhub client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a Finnhub client. The token is sent as the `token` query
// parameter on every request, per https://finnhub.io/docs/api.
func New(token string, options ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Quote fetches the current price snapshot for a symbol. The payload is
// returned raw: short codes (c, h, l, o, pc, t) are the normalize package's
// concern.
func (c *Client) Quote(ctx context.Context, symbol string) (json.RawMessage, error) {
	if symbol == "" {
		return nil, fmt.Errorf("finnhub: empty symbol")
	}
	return c.get(ctx, "/quote", url.Values{"symbol": {symbol}})
}

// CompanyProfile fetches the static company profile for a symbol.
func (c *Client) CompanyProfile(ctx context.Context, symbol string) (json.RawMessage, error) {
	if symbol == "" {
		return nil, fmt.Errorf("finnhub: empty symbol")
	}
	return c.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}})
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	query.Set("token", c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, &provider.Error{Provider: Name, Err: fmt.Errorf("creating request: %w", err)}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.Error{Provider: Name, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrBody))
		return nil, &provider.Error{Provider: Name, Status: res.StatusCode, Body: string(b)}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &provider.Error{Provider: Name, Err: fmt.Errorf("reading response: %w", err)}
	}
	return json.RawMessage(body), nil
}
