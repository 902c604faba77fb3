package engine

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

// Backend names accepted in Config.LLMBackend.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMBackend         string `validate:"oneof=gemini openai"`
	LLMAPIKey          string `validate:"required"`
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string  `validate:"required"`
	LLMTemperature     float64 `validate:"gte=0,lte=2"`
	// LLMTopP and LLMTopK are honored by the gemini backend only.
	LLMTopP            float64 `validate:"gte=0,lte=1"`
	LLMTopK            int     `validate:"gte=0"`
	LLMMaxTokens       int     `validate:"gte=0"`
	LLMAttempts        int     `validate:"min=1,max=10"`
	LLMRetryWait       time.Duration
	LLMRequestsPerMin  int `validate:"gte=0"`

	ChunkSize    int `validate:"min=1"`
	TitleTimeout time.Duration
	FetchTimeout time.Duration

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient *http.Client
}

// DefaultConfig mirrors the defaults documented for the environment keys.
func DefaultConfig() Config {
	return Config{
		LLMBackend:        BackendGemini,
		LLMModel:          "gemini-1.5-flash-latest",
		LLMTemperature:    0.7,
		LLMTopP:           0.8,
		LLMTopK:           40,
		LLMMaxTokens:      8192,
		LLMAttempts:       3,
		LLMRetryWait:      time.Second,
		LLMRequestsPerMin: 0,
		ChunkSize:         DefaultChunkSize,
		TitleTimeout:      5 * time.Second,
		FetchTimeout:      20 * time.Second,
		CacheMaxEntries:   200,
		HTTPClient:        &http.Client{Timeout: 15 * time.Second},
	}
}

var validate = validator.New()

// Validate checks struct constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

var cfg = DefaultConfig()

// Cfg exposes the engine configuration for sub-packages (sources).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	cfg = c
	Cfg = &cfg
}
