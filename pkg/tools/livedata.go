package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LiveData fetches weather, market, and news data from external APIs.
// Endpoints needing an API key degrade to an unavailable message when the
// key is not configured; the query still succeeds.
type LiveData struct {
	weatherKey      string
	newsKey         string
	alphaVantageKey string

	weatherURL string
	stocksURL  string
	cryptoURL  string
	newsURL    string
	searchURL  string

	httpClient *http.Client
	logger     zerolog.Logger
}

// LiveDataConfig holds live data service configuration
type LiveDataConfig struct {
	WeatherAPIKey   string
	NewsAPIKey      string
	AlphaVantageKey string
	HTTPClient      *http.Client // optional
	Logger          zerolog.Logger
}

// NewLiveData creates a live data service
func NewLiveData(cfg LiveDataConfig) *LiveData {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &LiveData{
		weatherKey:      cfg.WeatherAPIKey,
		newsKey:         cfg.NewsAPIKey,
		alphaVantageKey: cfg.AlphaVantageKey,
		weatherURL:      "https://api.openweathermap.org/data/2.5/weather",
		stocksURL:       "https://www.alphavantage.co/query",
		cryptoURL:       "https://api.coingecko.com/api/v3/simple/price",
		newsURL:         "https://newsapi.org/v2/everything",
		searchURL:       "https://api.duckduckgo.com/",
		httpClient:      client,
		logger:          cfg.Logger,
	}
}

// GetWeather returns current conditions for a city
func (ld *LiveData) GetWeather(ctx context.Context, city, countryCode string) (map[string]interface{}, error) {
	if ld.weatherKey == "" {
		ld.logger.Warn().Msg("No weather API key configured")
		return map[string]interface{}{
			"city":        city,
			"description": fmt.Sprintf("Weather for %s is currently unavailable: no API key configured", city),
		}, nil
	}

	if countryCode == "" {
		countryCode = "US"
	}

	params := url.Values{
		"q":     {city + "," + countryCode},
		"appid": {ld.weatherKey},
		"units": {"imperial"},
	}

	var data struct {
		Name string `json:"name"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if err := ld.getJSON(ctx, ld.weatherURL, params, &data); err != nil {
		return nil, fmt.Errorf("weather fetch failed: %w", err)
	}

	result := map[string]interface{}{
		"city":        data.Name,
		"temperature": data.Main.Temp,
		"feels_like":  data.Main.FeelsLike,
		"humidity":    data.Main.Humidity,
		"wind_speed":  data.Wind.Speed,
		"timestamp":   time.Now().Format(time.RFC3339),
	}
	if len(data.Weather) > 0 {
		result["conditions"] = data.Weather[0].Main
		result["description"] = data.Weather[0].Description
	}
	return result, nil
}

// GetStockPrice returns the latest quote for a ticker symbol
func (ld *LiveData) GetStockPrice(ctx context.Context, symbol string) (map[string]interface{}, error) {
	if ld.alphaVantageKey == "" {
		ld.logger.Warn().Msg("No Alpha Vantage API key configured")
		return map[string]interface{}{
			"symbol":      symbol,
			"description": fmt.Sprintf("Price for %s is currently unavailable: no API key configured", symbol),
		}, nil
	}

	params := url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
		"apikey":   {ld.alphaVantageKey},
	}

	var data struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := ld.getJSON(ctx, ld.stocksURL, params, &data); err != nil {
		return nil, fmt.Errorf("stock fetch failed: %w", err)
	}
	if len(data.GlobalQuote) == 0 {
		return nil, fmt.Errorf("invalid symbol or API limit reached")
	}

	quote := data.GlobalQuote
	price, _ := strconv.ParseFloat(quote["05. price"], 64)
	change, _ := strconv.ParseFloat(quote["09. change"], 64)
	volume, _ := strconv.Atoi(quote["06. volume"])

	return map[string]interface{}{
		"symbol":         quote["01. symbol"],
		"price":          price,
		"change":         change,
		"change_percent": strings.TrimSuffix(quote["10. change percent"], "%"),
		"volume":         volume,
		"timestamp":      quote["07. latest trading day"],
	}, nil
}

// coinIDs maps common ticker symbols to CoinGecko coin IDs
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"USDT": "tether",
	"BNB":  "binancecoin",
	"SOL":  "solana",
}

// GetCryptoPrice returns the USD price for a cryptocurrency. CoinGecko
// needs no API key.
func (ld *LiveData) GetCryptoPrice(ctx context.Context, symbol string) (map[string]interface{}, error) {
	coinID, ok := coinIDs[strings.ToUpper(symbol)]
	if !ok {
		coinID = strings.ToLower(symbol)
	}

	params := url.Values{
		"ids":                 {coinID},
		"vs_currencies":       {"usd"},
		"include_24hr_change": {"true"},
		"include_24hr_vol":    {"true"},
	}

	var data map[string]struct {
		USD          float64 `json:"usd"`
		USD24hChange float64 `json:"usd_24h_change"`
		USD24hVol    float64 `json:"usd_24h_vol"`
	}
	if err := ld.getJSON(ctx, ld.cryptoURL, params, &data); err != nil {
		return nil, fmt.Errorf("crypto fetch failed: %w", err)
	}

	coin, ok := data[coinID]
	if !ok {
		return nil, fmt.Errorf("invalid crypto symbol: %s", symbol)
	}

	return map[string]interface{}{
		"symbol":     strings.ToUpper(symbol),
		"price":      coin.USD,
		"change_24h": coin.USD24hChange,
		"volume_24h": coin.USD24hVol,
		"timestamp":  time.Now().Format(time.RFC3339),
	}, nil
}

// GetNews returns recent articles about a topic
func (ld *LiveData) GetNews(ctx context.Context, query string, limit int) (map[string]interface{}, error) {
	if ld.newsKey == "" {
		ld.logger.Warn().Msg("No news API key configured")
		return map[string]interface{}{
			"query":       query,
			"description": fmt.Sprintf("News about %q is currently unavailable: no API key configured", query),
		}, nil
	}

	if limit <= 0 {
		limit = 5
	}

	params := url.Values{
		"q":        {query},
		"apiKey":   {ld.newsKey},
		"pageSize": {strconv.Itoa(limit)},
		"sortBy":   {"publishedAt"},
		"language": {"en"},
	}

	var data struct {
		TotalResults int `json:"totalResults"`
		Articles     []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := ld.getJSON(ctx, ld.newsURL, params, &data); err != nil {
		return nil, fmt.Errorf("news fetch failed: %w", err)
	}

	articles := make([]map[string]interface{}, 0, len(data.Articles))
	for _, article := range data.Articles {
		articles = append(articles, map[string]interface{}{
			"title":       article.Title,
			"description": article.Description,
			"source":      article.Source.Name,
			"url":         article.URL,
			"published":   article.PublishedAt,
		})
	}

	return map[string]interface{}{
		"query":         query,
		"total_results": data.TotalResults,
		"articles":      articles,
	}, nil
}

// WebSearch queries the DuckDuckGo instant answer API. No key needed.
func (ld *LiveData) WebSearch(ctx context.Context, query string, limit int) (map[string]interface{}, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}

	var data struct {
		Heading       string `json:"Heading"`
		Abstract      string `json:"Abstract"`
		AbstractURL   string `json:"AbstractURL"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := ld.getJSON(ctx, ld.searchURL, params, &data); err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	var results []map[string]interface{}
	if data.Abstract != "" {
		title := data.Heading
		if title == "" {
			title = query
		}
		results = append(results, map[string]interface{}{
			"type":    "summary",
			"title":   title,
			"content": data.Abstract,
			"url":     data.AbstractURL,
		})
	}

	for _, topic := range data.RelatedTopics {
		if len(results) >= limit || topic.Text == "" {
			break
		}
		title := topic.Text
		if idx := strings.Index(title, " - "); idx > 0 {
			title = title[:idx]
		}
		results = append(results, map[string]interface{}{
			"type":    "result",
			"title":   title,
			"content": topic.Text,
			"url":     topic.FirstURL,
		})
	}

	return map[string]interface{}{
		"query":   query,
		"results": results,
	}, nil
}

func (ld *LiveData) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := ld.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
