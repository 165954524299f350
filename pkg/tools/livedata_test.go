package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonServer(t *testing.T, payload interface{}) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGetWeatherWithoutKeyDegrades(t *testing.T) {
	ld := NewLiveData(LiveDataConfig{Logger: zerolog.Nop()})

	result, err := ld.GetWeather(context.Background(), "Oslo", "")
	require.NoError(t, err)
	assert.Equal(t, "Oslo", result["city"])
	assert.Contains(t, result["description"], "unavailable")
}

func TestGetWeather(t *testing.T) {
	server := jsonServer(t, map[string]interface{}{
		"name": "Oslo",
		"main": map[string]interface{}{"temp": 55.4, "feels_like": 52.0, "humidity": 70},
		"weather": []map[string]interface{}{
			{"main": "Clouds", "description": "overcast clouds"},
		},
		"wind": map[string]interface{}{"speed": 8.5},
	})

	ld := NewLiveData(LiveDataConfig{WeatherAPIKey: "k", Logger: zerolog.Nop()})
	ld.weatherURL = server.URL

	result, err := ld.GetWeather(context.Background(), "Oslo", "NO")
	require.NoError(t, err)
	assert.Equal(t, "Oslo", result["city"])
	assert.Equal(t, 55.4, result["temperature"])
	assert.Equal(t, "Clouds", result["conditions"])
}

func TestGetStockPrice(t *testing.T) {
	server := jsonServer(t, map[string]interface{}{
		"Global Quote": map[string]string{
			"01. symbol":             "AAPL",
			"05. price":              "150.25",
			"09. change":             "2.15",
			"10. change percent":     "1.45%",
			"06. volume":             "50000000",
			"07. latest trading day": "2026-08-28",
		},
	})

	ld := NewLiveData(LiveDataConfig{AlphaVantageKey: "k", Logger: zerolog.Nop()})
	ld.stocksURL = server.URL

	result, err := ld.GetStockPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", result["symbol"])
	assert.Equal(t, 150.25, result["price"])
	assert.Equal(t, "1.45", result["change_percent"])
	assert.Equal(t, 50000000, result["volume"])
}

func TestGetStockPriceInvalidSymbol(t *testing.T) {
	server := jsonServer(t, map[string]interface{}{})

	ld := NewLiveData(LiveDataConfig{AlphaVantageKey: "k", Logger: zerolog.Nop()})
	ld.stocksURL = server.URL

	_, err := ld.GetStockPrice(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestGetCryptoPriceMapsWellKnownSymbols(t *testing.T) {
	server := jsonServer(t, map[string]interface{}{
		"bitcoin": map[string]interface{}{
			"usd":            64000.5,
			"usd_24h_change": -1.2,
			"usd_24h_vol":    12345678.0,
		},
	})

	ld := NewLiveData(LiveDataConfig{Logger: zerolog.Nop()})
	ld.cryptoURL = server.URL

	result, err := ld.GetCryptoPrice(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "BTC", result["symbol"])
	assert.Equal(t, 64000.5, result["price"])
}

func TestGetNews(t *testing.T) {
	server := jsonServer(t, map[string]interface{}{
		"totalResults": 1,
		"articles": []map[string]interface{}{
			{
				"title":       "Go 2 announced",
				"description": "Not really",
				"url":         "https://example.com/go2",
				"publishedAt": "2026-08-29T12:00:00Z",
				"source":      map[string]string{"name": "Example"},
			},
		},
	})

	ld := NewLiveData(LiveDataConfig{NewsAPIKey: "k", Logger: zerolog.Nop()})
	ld.newsURL = server.URL

	result, err := ld.GetNews(context.Background(), "golang", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result["total_results"])

	articles := result["articles"].([]map[string]interface{})
	require.Len(t, articles, 1)
	assert.Equal(t, "Go 2 announced", articles[0]["title"])
	assert.Equal(t, "Example", articles[0]["source"])
}

func TestWebSearch(t *testing.T) {
	server := jsonServer(t, map[string]interface{}{
		"Heading":     "Golang",
		"Abstract":    "Go is a programming language.",
		"AbstractURL": "https://go.dev",
		"RelatedTopics": []map[string]interface{}{
			{"Text": "Goroutines - lightweight threads", "FirstURL": "https://go.dev/tour"},
		},
	})

	ld := NewLiveData(LiveDataConfig{Logger: zerolog.Nop()})
	ld.searchURL = server.URL

	result, err := ld.WebSearch(context.Background(), "golang", 5)
	require.NoError(t, err)

	results := result["results"].([]map[string]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, "summary", results[0]["type"])
	assert.Equal(t, "Golang", results[0]["title"])
	assert.Equal(t, "Goroutines", results[1]["title"])
}

func TestRefresherCachesBetweenFetches(t *testing.T) {
	refresher, err := NewRefresher("@every 5m", zerolog.Nop())
	require.NoError(t, err)

	calls := 0
	fetch := func(ctx context.Context) (map[string]interface{}, error) {
		calls++
		return map[string]interface{}{"n": calls}, nil
	}

	first, err := refresher.Fetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	second, err := refresher.Fetch(context.Background(), "k", fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestRefresherRefreshAll(t *testing.T) {
	refresher, err := NewRefresher("@every 5m", zerolog.Nop())
	require.NoError(t, err)

	calls := 0
	fetch := func(ctx context.Context) (map[string]interface{}, error) {
		calls++
		return map[string]interface{}{"n": calls}, nil
	}

	_, err = refresher.Fetch(context.Background(), "k", fetch)
	require.NoError(t, err)

	refresher.refreshAll()
	assert.Equal(t, 2, calls)

	cached, err := refresher.Fetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"n": 2}, cached)
}
