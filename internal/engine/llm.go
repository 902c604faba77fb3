package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-kit/strutil"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Completer is an opaque text-completion backend.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// NewOpenAICompleter builds a Completer over an OpenAI-compatible endpoint
// (Gemini's OpenAI surface works too) using the go-kit client.
// The go-kit client has no nucleus or top-k options, so LLMTopP and LLMTopK
// only apply to the gemini backend; a warning is logged when they are set.
func NewOpenAICompleter(c Config) Completer {
	if c.LLMTopP > 0 || c.LLMTopK > 0 {
		slog.Warn("llm: openai backend ignores top_p and top_k",
			slog.Float64("top_p", c.LLMTopP), slog.Int("top_k", c.LLMTopK))
	}
	client := llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	)
	return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return client.Complete(ctx, "", prompt)
	})
}

// NewCompleter picks the backend named by c.LLMBackend.
// The returned close func releases backend resources and is never nil.
func NewCompleter(ctx context.Context, c Config) (Completer, func() error, error) {
	switch c.LLMBackend {
	case BackendOpenAI:
		return NewOpenAICompleter(c), func() error { return nil }, nil
	case BackendGemini, "":
		g, err := NewGeminiCompleter(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm backend %q", c.LLMBackend)
	}
}

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetryable
	outcomeFatal
)

// outcome is the classified result of one completion attempt.
type outcome struct {
	kind   outcomeKind
	text   string
	reason string
	// marginal is set for a non-empty response without enough prose.
	marginal bool
}

var (
	// substanceRe matches a contiguous run of 50+ letters.
	substanceRe = regexp.MustCompile(`[A-Za-z]{50,}`)
	authErrRe   = regexp.MustCompile(`(?i)api key not valid|api_key_invalid|permission[ _]denied|unauthenticated|\b(?:status|code)[ :=]*40[13]\b`)
)

// HasSubstance reports whether s contains a contiguous run of at least 50 letters.
func HasSubstance(s string) bool {
	return substanceRe.MatchString(s)
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	return IsFatal(err) || authErrRe.MatchString(err.Error())
}

func classify(raw string, err error) outcome {
	if err != nil {
		if isAuthError(err) {
			return outcome{kind: outcomeFatal, reason: err.Error()}
		}
		return outcome{kind: outcomeRetryable, reason: err.Error()}
	}
	text := FormatResponse(raw)
	if strings.TrimSpace(text) == "" {
		return outcome{kind: outcomeRetryable, reason: "empty response"}
	}
	if !HasSubstance(text) {
		return outcome{kind: outcomeRetryable, text: text, reason: "low substance", marginal: true}
	}
	return outcome{kind: outcomeSuccess, text: text}
}

// Generator wraps a Completer with prompt templating, rate limiting,
// retries and response validation.
type Generator struct {
	completer Completer
	attempts  int
	wait      time.Duration
	limiter   *rate.Limiter
}

// NewGenerator builds a Generator from the engine config.
func NewGenerator(c Completer, conf Config) *Generator {
	attempts := conf.LLMAttempts
	if attempts < 1 {
		attempts = 3
	}
	wait := conf.LLMRetryWait
	if wait <= 0 {
		wait = time.Second
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if conf.LLMRequestsPerMin > 0 {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(conf.LLMRequestsPerMin)), 1)
	}
	return &Generator{completer: c, attempts: attempts, wait: wait, limiter: lim}
}

// BuildPrompt wraps template and text with the fixed directive block.
func BuildPrompt(template, text string) string {
	return fmt.Sprintf(directiveBlock, template, text)
}

// Generate runs template over text. Low-substance replies are retried and
// returned as-is on the last attempt. Authentication failures return a
// *FatalError immediately; anything else that outlives the retry budget
// returns an error wrapping ErrGeneration.
func (g *Generator) Generate(ctx context.Context, text, template string) (string, error) {
	prompt := BuildPrompt(template, text)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.wait
	bo.MaxInterval = 10 * g.wait
	bo.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(g.attempts-1)), ctx)

	var (
		attempt int
		result  string
	)
	op := func() error {
		attempt++
		if err := g.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		metrics.LLMCalls.Add(1)
		raw, err := g.completer.Complete(ctx, prompt)
		if err != nil {
			metrics.LLMErrors.Add(1)
		}
		out := classify(raw, err)
		switch out.kind {
		case outcomeSuccess:
			result = out.text
			return nil
		case outcomeFatal:
			if IsFatal(err) {
				return backoff.Permanent(err)
			}
			return backoff.Permanent(&FatalError{Reason: "completion service rejected credentials", Err: err})
		}
		if out.marginal && attempt >= g.attempts {
			result = out.text
			return nil
		}
		return errors.New(out.reason)
	}
	notify := func(err error, d time.Duration) {
		metrics.LLMRetries.Add(1)
		slog.Debug("llm: retrying",
			slog.Int("attempt", attempt),
			slog.Duration("wait", d),
			slog.String("reason", strutil.TruncateWith(err.Error(), 200, "...")))
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if IsFatal(err) {
			return "", err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		slog.Warn("llm: generation failed", slog.Int("attempts", attempt), slog.Any("error", err))
		return "", fmt.Errorf("%w after %d attempts: %w", ErrGeneration, attempt, err)
	}
	return result, nil
}
