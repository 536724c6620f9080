package finnhub_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marketgateway/internal/provider"
	finnhub "marketgateway/internal/provider/finnhub"
)

func TestQuote(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Contains(t, req.URL.Path, "/quote")
			require.Equal(t, "AAPL", req.URL.Query().Get("symbol"))
			require.Equal(t, "test-key", req.URL.Query().Get("token"))

			body := `{"c":150.0,"h":151.0,"l":149.0,"o":149.5,"pc":148.0}`
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(body)),
			}, nil
		}).
		Times(1)

	// Arrange: setup a client
	client := finnhub.New("test-key", finnhub.WithHTTPClient(httpClient))

	// Act: fetch a quote
	raw, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	// Assert: the payload comes back uninterpreted
	require.JSONEq(t, `{"c":150.0,"h":151.0,"l":149.0,"o":149.5,"pc":148.0}`, string(raw))
}

func TestQuote_UpstreamError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: a non-2xx response becomes a provider error carrying status and body
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader(`{"error":"Symbol not supported"}`)),
		}, nil).
		Times(1)

	client := finnhub.New("test-key", finnhub.WithHTTPClient(httpClient))

	raw, err := client.Quote(context.Background(), "NOPE")
	require.Error(t, err)
	require.Nil(t, raw)

	var pe *provider.Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, http.StatusNotFound, pe.Status)
	require.Contains(t, pe.Body, "Symbol not supported")
	require.False(t, pe.Transport())
}

func TestQuote_TransportError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: no response at all is the transport failure class
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, errors.New("dial tcp: connection refused")).
		Times(1)

	client := finnhub.New("test-key", finnhub.WithHTTPClient(httpClient))

	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)

	var pe *provider.Error
	require.ErrorAs(t, err, &pe)
	require.True(t, pe.Transport())
	require.Zero(t, pe.Status)
}

func TestQuote_EmptySymbol(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: no request goes out for an empty symbol
	httpClient.EXPECT().
		Do(gomock.Any()).
		Times(0)

	client := finnhub.New("test-key", finnhub.WithHTTPClient(httpClient))

	_, err := client.Quote(context.Background(), "")
	require.Error(t, err)
}

func TestCompanyProfile(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Contains(t, req.URL.Path, "/stock/profile2")
			require.Equal(t, "AAPL", req.URL.Query().Get("symbol"))

			body := `{"country":"US","currency":"USD","exchange":"NASDAQ","finnhubIndustry":"Technology","ipo":"1980-12-12","name":"Apple Inc"}`
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(body)),
			}, nil
		}).
		Times(1)

	client := finnhub.New("test-key", finnhub.WithHTTPClient(httpClient))

	raw, err := client.CompanyProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Contains(t, string(raw), "Apple Inc")
}
