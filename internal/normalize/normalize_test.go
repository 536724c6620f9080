package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestQuote_ShortCodeAliases(t *testing.T) {
	raw := json.RawMessage(`{"c":150.0,"h":151.0,"l":149.0,"o":149.5,"pc":148.0,"t":1700000000}`)

	q, err := Quote("AAPL", raw)
	require.NoError(t, err)

	require.Equal(t, "AAPL", q.Ticker)
	require.True(t, q.Price.Equal(decimal.RequireFromString("150")))
	require.True(t, q.High.Valid)
	require.True(t, q.High.Decimal.Equal(decimal.RequireFromString("151")))
	require.True(t, q.Low.Decimal.Equal(decimal.RequireFromString("149")))
	require.True(t, q.Open.Decimal.Equal(decimal.RequireFromString("149.5")))
	require.True(t, q.PrevClose.Decimal.Equal(decimal.RequireFromString("148")))
	require.Equal(t, time.Unix(1700000000, 0).UTC(), q.ObservedAt)
}

func TestQuote_AbsentFieldsAreNull(t *testing.T) {
	q, err := Quote("AAPL", json.RawMessage(`{"c":10}`))
	require.NoError(t, err)

	require.False(t, q.High.Valid)
	require.False(t, q.Low.Valid)
	require.False(t, q.Open.Valid)
	require.False(t, q.PrevClose.Valid)
	require.Nil(t, q.Volume)
	// no provider timestamp: observed_at defaults to ingestion time
	require.WithinDuration(t, time.Now().UTC(), q.ObservedAt, time.Minute)
}

func TestQuote_WrongTypedPrice(t *testing.T) {
	_, err := Quote("AAPL", json.RawMessage(`{"c":"not-a-number"}`))
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "c", ve.Field)
}

func TestQuote_MissingPrice(t *testing.T) {
	_, err := Quote("AAPL", json.RawMessage(`{"h":151.0}`))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "c", ve.Field)
}

func TestQuote_NotAnObject(t *testing.T) {
	_, err := Quote("AAPL", json.RawMessage(`[1,2,3]`))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestQuote_DecimalExactness(t *testing.T) {
	// the same payload must normalize to the same decimal every time
	raw := json.RawMessage(`{"c":0.1,"pc":0.3}`)
	a, err := Quote("X", raw)
	require.NoError(t, err)
	b, err := Quote("X", raw)
	require.NoError(t, err)

	require.True(t, a.Price.Equal(b.Price))
	require.True(t, a.Price.Equal(decimal.RequireFromString("0.1")))
	require.True(t, a.PrevClose.Decimal.Equal(decimal.RequireFromString("0.3")))
}

func TestArticle(t *testing.T) {
	raw := json.RawMessage(`{"title":"Apple rises","author":"J. Doe","source":{"name":"Reuters","id":"reuters"},"url":"https://x/1","description":"up again","publishedAt":"2026-01-02T03:04:05Z","extra":"ignored"}`)

	a, err := Article("AAPL", raw)
	require.NoError(t, err)

	require.Equal(t, "AAPL", a.TickerOrCategory)
	require.Equal(t, "Apple rises", a.Title)
	require.NotNil(t, a.Author)
	require.Equal(t, "J. Doe", *a.Author)
	require.Equal(t, "Reuters", a.Source.Name)
	require.Equal(t, "https://x/1", a.URL)
	require.NotNil(t, a.PublishedAt)
	require.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), *a.PublishedAt)
}

func TestArticle_RequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{"missing title", `{"source":{"name":"R"},"url":"https://x/1"}`, "title"},
		{"missing url", `{"title":"t","source":{"name":"R"}}`, "url"},
		{"missing source name", `{"title":"t","url":"https://x/1"}`, "source.name"},
		{"relative url", `{"title":"t","source":{"name":"R"},"url":"/no-host"}`, "url"},
		{"bad timestamp", `{"title":"t","source":{"name":"R"},"url":"https://x/1","publishedAt":"yesterday"}`, "publishedAt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Article("AAPL", json.RawMessage(tc.raw))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestArticles_FirstInvalidFailsBatch(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"title":"ok","source":{"name":"R"},"url":"https://x/1"}`),
		json.RawMessage(`{"source":{"name":"R"},"url":"https://x/2"}`),
	}
	_, err := Articles("AAPL", raws)
	require.Error(t, err)
}

func TestProfile(t *testing.T) {
	raw := json.RawMessage(`{"country":"US","currency":"USD","exchange":"NASDAQ","finnhubIndustry":"Technology","ipo":"1980-12-12","name":"Apple Inc","marketCapitalization":2800000}`)

	p, err := Profile("AAPL", raw)
	require.NoError(t, err)

	require.Equal(t, "AAPL", p.Symbol)
	require.Equal(t, "US", p.Country)
	require.Equal(t, "Technology", p.Industry)
	require.Equal(t, "1980-12-12", p.IPODate)
	require.Equal(t, "Apple Inc", p.Name)
}

func TestProfile_EmptyPayloadStillUpsertable(t *testing.T) {
	p, err := Profile("NEWCO", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.Equal(t, "NEWCO", p.Symbol)
	require.Empty(t, p.Name)
}
