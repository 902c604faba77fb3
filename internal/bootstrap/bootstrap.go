// Package bootstrap reads the environment and assembles the pipeline shared
// by the MCP server and the command-line tool.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
	"github.com/anatolykoptev/go_tubenotes/internal/engine/sources"
	"github.com/anatolykoptev/go_tubenotes/internal/logging"
	"github.com/anatolykoptev/go_tubenotes/internal/tubeserver"
)

// App is the complete process configuration.
type App struct {
	Engine engine.Config

	MCPPort         string
	DownloadAddr    string
	DownloadBaseURL string

	RedisURL string
	CacheTTL time.Duration

	// BrowserFallback retries refused watch pages with a Chrome TLS fingerprint.
	BrowserFallback bool

	Limits tubeserver.Limits

	LogLevel  string
	LogFormat string
}

// LoadEnv loads .env when present and reads every setting from the
// environment, falling back to engine.DefaultConfig.
func LoadEnv() App {
	dotenv := godotenv.Load() == nil

	d := engine.DefaultConfig()
	apiKey := env.Str("GOOGLE_API_KEY", "")
	if apiKey == "" {
		apiKey = env.Str("LLM_API_KEY", "")
	}

	c := engine.Config{
		LLMBackend:         env.Str("LLM_BACKEND", d.LLMBackend),
		LLMAPIKey:          apiKey,
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:           env.Str("LLM_MODEL", d.LLMModel),
		LLMTemperature:     env.Float("LLM_TEMPERATURE", d.LLMTemperature),
		LLMTopP:            env.Float("LLM_TOP_P", d.LLMTopP),
		LLMTopK:            env.Int("LLM_TOP_K", d.LLMTopK),
		LLMMaxTokens:       env.Int("LLM_MAX_TOKENS", d.LLMMaxTokens),
		LLMAttempts:        env.Int("LLM_ATTEMPTS", d.LLMAttempts),
		LLMRetryWait:       env.Duration("LLM_RETRY_WAIT", d.LLMRetryWait),
		LLMRequestsPerMin:  env.Int("LLM_RPM", d.LLMRequestsPerMin),

		ChunkSize:    env.Int("CHUNK_SIZE", d.ChunkSize),
		TitleTimeout: env.Duration("TITLE_TIMEOUT", d.TitleTimeout),
		FetchTimeout: env.Duration("FETCH_TIMEOUT", d.FetchTimeout),

		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", d.CacheMaxEntries),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	}
	c.HTTPClient = &http.Client{
		Timeout: c.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     60 * time.Second,
		},
	}

	app := App{
		Engine:          c,
		MCPPort:         env.Str("MCP_PORT", "8893"),
		DownloadAddr:    env.Str("DOWNLOAD_ADDR", "127.0.0.1:8894"),
		DownloadBaseURL: env.Str("DOWNLOAD_BASE_URL", ""),
		RedisURL:        env.Str("REDIS_URL", ""),
		CacheTTL:        env.Duration("CACHE_TTL", 6*time.Hour),
		BrowserFallback: env.Str("BROWSER_FALLBACK", "on") != "off",
		Limits: tubeserver.Limits{
			MaxVideos:    env.Int("MAX_VIDEOS", 3),
			MaxQuestions: env.Int("MAX_QUESTIONS", 5),
		},
		LogLevel:  env.Str("LOG_LEVEL", "info"),
		LogFormat: env.Str("LOG_FORMAT", "text"),
	}
	if app.DownloadBaseURL == "" && app.DownloadAddr != "" {
		app.DownloadBaseURL = "http://" + app.DownloadAddr
	}
	if !dotenv {
		slog.Debug(".env not found, using environment variables and defaults")
	}
	return app
}

// Pipeline is the assembled transcript and generation stack.
type Pipeline struct {
	Acquirer   *sources.Acquirer
	Generator  *engine.Generator
	Summarizer *engine.Summarizer

	closeFn func() error
}

// NewPipeline validates app, installs it as the engine configuration, sets
// up the source cache and builds the completion backend.
func NewPipeline(ctx context.Context, app App) (*Pipeline, error) {
	if err := app.Engine.Validate(); err != nil {
		return nil, err
	}
	engine.Init(app.Engine)
	engine.InitCache(app.RedisURL, app.CacheTTL, app.Engine.CacheMaxEntries, app.Engine.CacheCleanupInterval)

	completer, closeFn, err := engine.NewCompleter(ctx, app.Engine)
	if err != nil {
		return nil, fmt.Errorf("llm backend: %w", err)
	}
	slog.Info("llm backend ready",
		slog.String("backend", app.Engine.LLMBackend),
		slog.String("model", app.Engine.LLMModel),
		slog.String("key", logging.SanitizeKey(app.Engine.LLMAPIKey)))

	gen := engine.NewGenerator(completer, app.Engine)
	yt := sources.NewYouTube(engine.Cfg.HTTPClient)
	if app.BrowserFallback {
		bc, err := engine.NewBrowserClient(int(app.Engine.FetchTimeout.Seconds()))
		if err != nil {
			slog.Warn("browser client unavailable, watch page fallback disabled", slog.Any("error", err))
		} else {
			yt.Browser = bc
		}
	}
	return &Pipeline{
		Acquirer:   sources.NewAcquirer(yt, yt, app.Engine.TitleTimeout),
		Generator:  gen,
		Summarizer: engine.NewSummarizer(gen, app.Engine.ChunkSize),
		closeFn:    closeFn,
	}, nil
}

// Close releases the completion backend.
func (p *Pipeline) Close() error {
	if p.closeFn == nil {
		return nil
	}
	return p.closeFn()
}
