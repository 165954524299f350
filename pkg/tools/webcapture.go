package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// Capturer takes webpage screenshots through a headless Chrome instance.
// The browser is launched on first use and reused across captures.
type Capturer struct {
	browser *rod.Browser
	mu      sync.Mutex
	logger  zerolog.Logger
}

// NewCapturer creates a webpage capturer. Chrome is not launched until
// the first capture.
func NewCapturer(logger zerolog.Logger) *Capturer {
	return &Capturer{logger: logger}
}

// Capture navigates to a URL and returns a base64-encoded PNG screenshot
func (c *Capturer) Capture(ctx context.Context, pageURL string, fullPage bool) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("invalid URL: %s", pageURL)
	}

	browser, err := c.ensureBrowser()
	if err != nil {
		return "", err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(30 * time.Second)

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("page failed to load: %w", err)
	}

	data, err := page.Screenshot(fullPage, nil)
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	c.logger.Debug().Str("url", pageURL).Int("bytes", len(data)).Msg("Webpage captured")
	return base64.StdEncoding.EncodeToString(data), nil
}

// Close shuts down the browser if it was launched
func (c *Capturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser == nil {
		return nil
	}

	err := c.browser.Close()
	c.browser = nil
	return err
}

func (c *Capturer) ensureBrowser() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		return c.browser, nil
	}

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	c.browser = browser
	c.logger.Info().Msg("Headless browser launched")
	return browser, nil
}
