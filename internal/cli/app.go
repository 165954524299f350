package cli

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sentinelai/sentinel/internal/config"
	"github.com/sentinelai/sentinel/internal/logger"
	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/pkg/dispatch"
	"github.com/sentinelai/sentinel/pkg/knowledge"
	"github.com/sentinelai/sentinel/pkg/oracle"
	"github.com/sentinelai/sentinel/pkg/pipeline"
	"github.com/sentinelai/sentinel/pkg/registry"
	"github.com/sentinelai/sentinel/pkg/tools"
)

// app holds the wired runtime: registry, dispatcher, pipeline, and the
// services backing the built-in tools
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	metrics   *metrics.Metrics
	registry  *registry.Registry
	pipeline  *pipeline.Pipeline
	store     *knowledge.Store
	watcher   *knowledge.DocsWatcher
	refresher *tools.Refresher
	capturer  *tools.Capturer
}

// loadConfig loads configuration and applies CLI flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// buildApp wires every component from configuration. withKnowledge
// controls whether the sqlite store and docs watcher are opened; the
// lighter commands skip them.
func buildApp(cfg *config.Config, withKnowledge bool) (*app, error) {
	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	zl := log.GetZerolog()
	m := metrics.NewMetrics()
	reg := registry.New()

	a := &app{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		registry: reg,
	}

	if withKnowledge {
		store, err := knowledge.NewStore(knowledge.Config{
			DBPath:   cfg.Knowledge.DBPath,
			Embedder: knowledge.NewOpenAIEmbedder(cfg.AI.APIKey, cfg.AI.EmbeddingModel),
			Logger:   componentLogger(zl, "knowledge"),
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to open knowledge store: %w", err)
		}
		a.store = store

		watcher, err := knowledge.NewDocsWatcher(store, cfg.Knowledge.DocsDir, componentLogger(zl, "docs_watcher"))
		if err != nil {
			zl.Warn().Err(err).Msg("Docs watcher unavailable, continuing without it")
		} else {
			a.watcher = watcher
		}
	}

	refresher, err := tools.NewRefresher(cfg.Tools.RefreshSchedule, componentLogger(zl, "refresher"))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", cfg.Tools.RefreshSchedule, err)
	}
	a.refresher = refresher

	if cfg.Tools.BrowserEnabled {
		a.capturer = tools.NewCapturer(componentLogger(zl, "capturer"))
	}

	if err := tools.RegisterAll(reg, tools.Options{
		Vision:      tools.NewVision(cfg.AI.APIKey, cfg.AI.Model, componentLogger(zl, "vision")),
		Transcriber: tools.NewTranscriber(cfg.AI.APIKey, "", componentLogger(zl, "voice")),
		Store:       a.store,
		LiveData: tools.NewLiveData(tools.LiveDataConfig{
			WeatherAPIKey:   cfg.Tools.WeatherAPIKey,
			NewsAPIKey:      cfg.Tools.NewsAPIKey,
			AlphaVantageKey: cfg.Tools.AlphaVantageKey,
			Logger:          componentLogger(zl, "live_data"),
		}),
		Refresher: refresher,
		Capturer:  a.capturer,
	}); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	provider, err := oracle.NewProvider(cfg.AI.Provider, cfg.AI.APIKey)
	if err != nil {
		a.close()
		return nil, err
	}

	client, err := oracle.NewClient(oracle.ClientConfig{
		Provider:    provider,
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
		Logger:      componentLogger(zl, "oracle"),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	dispatcher, err := dispatch.New(dispatch.Config{
		Registry:         reg,
		DefaultTimeout:   cfg.DefaultToolTimeout(),
		CategoryTimeouts: cfg.CategoryTimeouts(),
		Metrics:          m,
		Logger:           componentLogger(zl, "dispatch"),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	p, err := pipeline.New(pipeline.Config{
		Reasoner:    client,
		Synthesizer: client,
		Registry:    reg,
		Dispatcher:  dispatcher,
		Metrics:     m,
		Logger:      componentLogger(zl, "pipeline"),
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.pipeline = p

	return a, nil
}

// close releases everything buildApp opened, in reverse order
func (a *app) close() {
	if a.capturer != nil {
		_ = a.capturer.Close()
	}
	if a.refresher != nil {
		a.refresher.Stop()
	}
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.log != nil {
		_ = a.log.Close()
	}
}

func componentLogger(zl zerolog.Logger, component string) zerolog.Logger {
	return zl.With().Str("component", component).Logger()
}
