package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolygonClient_PreviousClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/aggs/ticker/AAPL/prev", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		fmt.Fprint(w, `{"status":"OK","resultsCount":1,"results":[{"T":"AAPL","c":187.44,"o":185.1,"h":188,"l":184.9,"v":1000,"t":1736899200000}]}`)
	}))
	defer srv.Close()

	c := NewPolygonClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "test-key"})
	price, err := c.PreviousClose(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, 187.44, price)
}

func TestPolygonClient_PreviousClose_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","resultsCount":0,"results":[]}`)
	}))
	defer srv.Close()

	c := NewPolygonClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.PreviousClose(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestPolygonClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewPolygonClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.PreviousClose(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestPolygonClient_NotConfigured(t *testing.T) {
	c := NewPolygonClient(config.ProviderConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := c.PreviousClose(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPolygonClient_DailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/aggs/ticker/MSFT/range/1/day/2025-01-01/2025-01-31", r.URL.Path)
		assert.Equal(t, "asc", r.URL.Query().Get("sort"))
		fmt.Fprint(w, `{"results":[
			{"o":1,"h":2,"l":0.5,"c":1.5,"v":100,"t":1735776000000},
			{"o":1.5,"h":2.5,"l":1,"c":2,"v":200,"t":1735862400000}
		]}`)
	}))
	defer srv.Close()

	c := NewPolygonClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k"})
	bars, err := c.DailyBars(context.Background(), "msft",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 2.0, bars[1].Close)
}

func TestPolygonClient_SearchTickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/reference/tickers", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("search"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"results":[{"ticker":"AAPL","name":"Apple Inc.","market":"stocks","locale":"us","primary_exchange":"XNAS","currency_name":"usd"}]}`)
	}))
	defer srv.Close()

	c := NewPolygonClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k"})
	got, err := c.SearchTickers(context.Background(), " apple ", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.Equal(t, "XNAS", got[0].PrimaryExchange)
}

func TestGoldPriceClient_RapidAPIHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "gold.example.com", r.Header.Get("X-RapidAPI-Host"))
		fmt.Fprint(w, `{"price_gram_24k":21500,"currency":"pkr","timestamp":1736899200}`)
	}))
	defer srv.Close()

	c := NewGoldPriceClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "secret", APIHost: "gold.example.com"})
	q, err := c.GoldPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21500.0, q.PricePerGram)
	assert.Equal(t, 250771.78, q.PricePerTola)
	assert.Equal(t, "PKR", q.Currency)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), q.Date)
}

func TestGoldPriceClient_AccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-access-token"))
		assert.Empty(t, r.Header.Get("X-RapidAPI-Key"))
		fmt.Fprint(w, `{"price":622069.536}`)
	}))
	defer srv.Close()

	c := NewGoldPriceClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "secret"})
	q, err := c.GoldPrice(context.Background())
	require.NoError(t, err)
	// 每盎司价格换算为每克
	assert.Equal(t, 20000.0, q.PricePerGram)
	assert.Equal(t, "PKR", q.Currency)
}

func TestQuoteFromResponse_Empty(t *testing.T) {
	_, err := quoteFromResponse(goldPriceResponse{}, time.Now())
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

const floatRatesXML = `<?xml version="1.0" encoding="utf-8"?>
<channel>
  <title>XML Daily Foreign Exchange Rates for Pakistani Rupee (PKR)</title>
  <item>
    <title>1 PKR = 0.00357 USD</title>
    <pubDate>Wed, 15 Jan 2025 11:55:01 GMT</pubDate>
    <baseCurrency>PKR</baseCurrency>
    <targetCurrency>USD</targetCurrency>
    <exchangeRate>0.00357</exchangeRate>
    <inverseRate>280.12</inverseRate>
  </item>
  <item>
    <baseCurrency>PKR</baseCurrency>
    <targetCurrency>EUR</targetCurrency>
    <exchangeRate>0.00345</exchangeRate>
  </item>
  <item>
    <targetCurrency>XXX</targetCurrency>
    <exchangeRate>n/a</exchangeRate>
  </item>
</channel>`

func TestParseRatesXML(t *testing.T) {
	now := time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC)
	rates, err := parseRatesXML([]byte(floatRatesXML), "PKR", now)
	require.NoError(t, err)
	require.Len(t, rates, 2)

	assert.Equal(t, "PKR", rates[0].Base)
	assert.Equal(t, "USD", rates[0].Target)
	assert.Equal(t, 0.00357, rates[0].Rate)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), rates[0].Date)

	// 无 pubDate 时使用当前日期
	assert.Equal(t, "EUR", rates[1].Target)
	assert.Equal(t, time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC), rates[1].Date)

	_, err = parseRatesXML([]byte("<channel></channel>"), "PKR", now)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = parseRatesXML([]byte("not xml <"), "PKR", now)
	assert.Error(t, err)
}

func TestCurrencyClient_Rates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pkr.xml", r.URL.Path)
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, floatRatesXML)
	}))
	defer srv.Close()

	c := NewCurrencyClient(config.ProviderConfig{BaseURL: srv.URL + "/"})
	rates, err := c.Rates(context.Background(), "pkr")
	require.NoError(t, err)
	assert.Len(t, rates, 2)
}

func TestChatClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  你好  "}}]}`)
	}))
	defer srv.Close()

	c := NewChatClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4o-mini"})
	reply, err := c.Complete(context.Background(), []ChatTurn{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "你好", reply)
	assert.Equal(t, "gpt-4o-mini", c.Model())
}

func TestChatClient_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"本月\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"结余 500\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewChatClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "sk-test"})
	var deltas []string
	full, err := c.Stream(context.Background(), []ChatTurn{{Role: "user", Content: "hi"}}, func(s string) error {
		deltas = append(deltas, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"本月", "结余 500"}, deltas)
	assert.Equal(t, "本月结余 500", full)
}

func TestChatClient_NotConfigured(t *testing.T) {
	c := NewChatClient(config.ProviderConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseStreamLine(t *testing.T) {
	content, done := parseStreamLine([]byte(`data: {"choices":[{"delta":{"content":"x"}}]}`))
	assert.Equal(t, "x", content)
	assert.False(t, done)

	_, done = parseStreamLine([]byte("data: [DONE]"))
	assert.True(t, done)

	content, done = parseStreamLine([]byte("event: ping"))
	assert.Empty(t, content)
	assert.False(t, done)
}
