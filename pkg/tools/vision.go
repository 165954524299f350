package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Vision analyzes images through the OpenAI vision-capable chat endpoint
type Vision struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewVision creates a vision analyzer. An empty model defaults to gpt-4o.
func NewVision(apiKey, model string, logger zerolog.Logger) *Vision {
	if model == "" {
		model = "gpt-4o"
	}

	return &Vision{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// AnalyzeImage answers a prompt about a base64-encoded image
func (v *Vision) AnalyzeImage(ctx context.Context, imageData, prompt string) (string, error) {
	if imageData == "" {
		return "", fmt.Errorf("image data is empty")
	}
	if prompt == "" {
		prompt = "Describe this image"
	}

	reqBody := map[string]interface{}{
		"model": v.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": prompt},
					{
						"type": "image_url",
						"image_url": map[string]interface{}{
							"url":    "data:image/jpeg;base64," + imageData,
							"detail": "high",
						},
					},
				},
			},
		},
		"max_tokens": 500,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", v.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call vision API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("vision API returned no choices")
	}

	v.logger.Debug().Int("image_chars", len(imageData)).Msg("Image analyzed")
	return result.Choices[0].Message.Content, nil
}

// ExtractText performs OCR on a base64-encoded image
func (v *Vision) ExtractText(ctx context.Context, imageData string) (string, error) {
	return v.AnalyzeImage(ctx, imageData, "Extract all text visible in this image")
}
