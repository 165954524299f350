// Package tools provides the built-in capability set: vision, voice,
// knowledge search, live data, and webpage capture.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sentinelai/sentinel/pkg/knowledge"
	"github.com/sentinelai/sentinel/pkg/registry"
)

// Options configures built-in tool registration. Nil services skip
// their tools.
type Options struct {
	Vision      *Vision
	Transcriber *Transcriber
	Store       *knowledge.Store
	LiveData    *LiveData
	Refresher   *Refresher // optional, caches live data results
	Capturer    *Capturer  // optional, nil disables capture_webpage
}

// RegisterAll registers every built-in tool backed by a configured service
func RegisterAll(reg *registry.Registry, opts Options) error {
	if reg == nil {
		return errors.New("registry is required")
	}

	var defs []registry.Definition

	if opts.Vision != nil {
		defs = append(defs, analyzeImageTool(opts.Vision), extractTextTool(opts.Vision))
	}
	if opts.Transcriber != nil {
		defs = append(defs, transcribeAudioTool(opts.Transcriber))
	}
	if opts.Store != nil {
		defs = append(defs, searchKnowledgeTool(opts.Store))
	}
	if opts.LiveData != nil {
		defs = append(defs,
			weatherTool(opts.LiveData, opts.Refresher),
			stockTool(opts.LiveData, opts.Refresher),
			cryptoTool(opts.LiveData, opts.Refresher),
			newsTool(opts.LiveData),
			webSearchTool(opts.LiveData),
		)
	}
	if opts.Capturer != nil {
		defs = append(defs, captureWebpageTool(opts.Capturer))
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", def.Name, err)
		}
	}
	return nil
}

func analyzeImageTool(vision *Vision) registry.Definition {
	return registry.Definition{
		Name:        "analyze_image",
		Description: "Analyze an image and extract information, detect objects, or answer questions about visual content",
		Category:    "vision",
		Parameters: []registry.ParameterSpec{
			{Name: "image_data", Type: "string", Description: "Base64 encoded image", Required: true},
			{Name: "prompt", Type: "string", Description: "Analysis instruction", Required: false, Default: "Describe this image"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			imageData, err := stringArg(args, "image_data")
			if err != nil {
				return nil, err
			}
			prompt, _ := args["prompt"].(string)
			return vision.AnalyzeImage(ctx, imageData, prompt)
		},
	}
}

func extractTextTool(vision *Vision) registry.Definition {
	return registry.Definition{
		Name:        "extract_text",
		Description: "Extract and OCR all text visible in an image",
		Category:    "vision",
		Parameters: []registry.ParameterSpec{
			{Name: "image_data", Type: "string", Description: "Base64 encoded image", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			imageData, err := stringArg(args, "image_data")
			if err != nil {
				return nil, err
			}
			return vision.ExtractText(ctx, imageData)
		},
	}
}

func transcribeAudioTool(transcriber *Transcriber) registry.Definition {
	return registry.Definition{
		Name:        "transcribe_audio",
		Description: "Convert speech to text from audio data",
		Category:    "voice",
		Parameters: []registry.ParameterSpec{
			{Name: "audio_data", Type: "string", Description: "Base64 encoded audio", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			audioData, err := stringArg(args, "audio_data")
			if err != nil {
				return nil, err
			}
			return transcriber.Transcribe(ctx, audioData)
		},
	}
}

func searchKnowledgeTool(store *knowledge.Store) registry.Definition {
	return registry.Definition{
		Name:        "search_knowledge",
		Description: "Search internal knowledge base for documentation, procedures, or previously stored information",
		Category:    "data",
		Parameters: []registry.ParameterSpec{
			{Name: "query", Type: "string", Description: "Search query", Required: true},
			{Name: "k", Type: "integer", Description: "Number of results", Required: false, Default: 3},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			query, err := stringArg(args, "query")
			if err != nil {
				return nil, err
			}

			results, err := store.Search(ctx, query, intArg(args, "k", 3))
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return "No relevant documents found in knowledge base.", nil
			}

			var b strings.Builder
			for i, result := range results {
				if i > 0 {
					b.WriteString("\n\n")
				}
				fmt.Fprintf(&b, "[Document %d] %s", i+1, result.Content)
			}
			return b.String(), nil
		},
	}
}

func weatherTool(ld *LiveData, refresher *Refresher) registry.Definition {
	return registry.Definition{
		Name:        "get_weather",
		Description: "Get current weather conditions for a city",
		Category:    "live_data",
		Parameters: []registry.ParameterSpec{
			{Name: "city", Type: "string", Description: "City name", Required: true},
			{Name: "country_code", Type: "string", Description: "ISO country code", Required: false, Default: "US"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			city, err := stringArg(args, "city")
			if err != nil {
				return nil, err
			}
			countryCode, _ := args["country_code"].(string)

			fetch := func(ctx context.Context) (map[string]interface{}, error) {
				return ld.GetWeather(ctx, city, countryCode)
			}
			if refresher != nil {
				return refresher.Fetch(ctx, "weather:"+city+","+countryCode, fetch)
			}
			return fetch(ctx)
		},
	}
}

func stockTool(ld *LiveData, refresher *Refresher) registry.Definition {
	return registry.Definition{
		Name:        "get_stock_price",
		Description: "Get current stock price and change for a ticker symbol",
		Category:    "live_data",
		Parameters: []registry.ParameterSpec{
			{Name: "symbol", Type: "string", Description: "Stock ticker (e.g., AAPL, GOOGL)", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			symbol, err := stringArg(args, "symbol")
			if err != nil {
				return nil, err
			}

			fetch := func(ctx context.Context) (map[string]interface{}, error) {
				return ld.GetStockPrice(ctx, symbol)
			}
			if refresher != nil {
				return refresher.Fetch(ctx, "stock:"+strings.ToUpper(symbol), fetch)
			}
			return fetch(ctx)
		},
	}
}

func cryptoTool(ld *LiveData, refresher *Refresher) registry.Definition {
	return registry.Definition{
		Name:        "get_crypto_price",
		Description: "Get current cryptocurrency price",
		Category:    "live_data",
		Parameters: []registry.ParameterSpec{
			{Name: "symbol", Type: "string", Description: "Crypto symbol (e.g., BTC, ETH)", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			symbol, err := stringArg(args, "symbol")
			if err != nil {
				return nil, err
			}

			fetch := func(ctx context.Context) (map[string]interface{}, error) {
				return ld.GetCryptoPrice(ctx, symbol)
			}
			if refresher != nil {
				return refresher.Fetch(ctx, "crypto:"+strings.ToUpper(symbol), fetch)
			}
			return fetch(ctx)
		},
	}
}

func newsTool(ld *LiveData) registry.Definition {
	return registry.Definition{
		Name:        "get_news",
		Description: "Get latest news articles about a topic",
		Category:    "live_data",
		Parameters: []registry.ParameterSpec{
			{Name: "query", Type: "string", Description: "News search query", Required: true},
			{Name: "limit", Type: "integer", Description: "Number of articles", Required: false, Default: 5},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			query, err := stringArg(args, "query")
			if err != nil {
				return nil, err
			}
			return ld.GetNews(ctx, query, intArg(args, "limit", 5))
		},
	}
}

func webSearchTool(ld *LiveData) registry.Definition {
	return registry.Definition{
		Name:        "web_search",
		Description: "Search the web for information",
		Category:    "live_data",
		Parameters: []registry.ParameterSpec{
			{Name: "query", Type: "string", Description: "Search query", Required: true},
			{Name: "limit", Type: "integer", Description: "Number of results", Required: false, Default: 5},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			query, err := stringArg(args, "query")
			if err != nil {
				return nil, err
			}
			return ld.WebSearch(ctx, query, intArg(args, "limit", 5))
		},
	}
}

func captureWebpageTool(capturer *Capturer) registry.Definition {
	return registry.Definition{
		Name:        "capture_webpage",
		Description: "Load a webpage in a headless browser and capture a screenshot for visual analysis",
		Category:    "browser",
		Parameters: []registry.ParameterSpec{
			{Name: "url", Type: "string", Description: "Page URL (http or https)", Required: true},
			{Name: "full_page", Type: "boolean", Description: "Capture the full scrollable page", Required: false, Default: false},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			pageURL, err := stringArg(args, "url")
			if err != nil {
				return nil, err
			}
			fullPage, _ := args["full_page"].(bool)

			image, err := capturer.Capture(ctx, pageURL, fullPage)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"url":        pageURL,
				"image_data": image,
			}, nil
		},
	}
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	value, _ := args[name].(string)
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return value, nil
}

func intArg(args map[string]interface{}, name string, fallback int) int {
	switch v := args[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}
