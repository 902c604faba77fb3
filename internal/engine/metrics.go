package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	LLMCalls            atomic.Int64
	LLMErrors           atomic.Int64
	LLMRetries          atomic.Int64
	TranscriptRequests  atomic.Int64
	TranscriptFallbacks atomic.Int64
	TranscriptFailures  atomic.Int64
	TitleFailures       atomic.Int64
	ChunksAnalyzed      atomic.Int64
	ChunksDropped       atomic.Int64
	Summaries           atomic.Int64
	QARequests          atomic.Int64
	Renders             atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"llm_calls":            metrics.LLMCalls.Load(),
		"llm_errors":           metrics.LLMErrors.Load(),
		"llm_retries":          metrics.LLMRetries.Load(),
		"transcript_requests":  metrics.TranscriptRequests.Load(),
		"transcript_fallbacks": metrics.TranscriptFallbacks.Load(),
		"transcript_failures":  metrics.TranscriptFailures.Load(),
		"title_failures":       metrics.TitleFailures.Load(),
		"chunks_analyzed":      metrics.ChunksAnalyzed.Load(),
		"chunks_dropped":       metrics.ChunksDropped.Load(),
		"summaries":            metrics.Summaries.Load(),
		"qa_requests":          metrics.QARequests.Load(),
		"renders":              metrics.Renders.Load(),
		"cache_hits":           hits,
		"cache_misses":         misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"llm_calls", "llm_errors", "llm_retries",
		"transcript_requests", "transcript_fallbacks", "transcript_failures",
		"title_failures",
		"chunks_analyzed", "chunks_dropped", "summaries",
		"qa_requests", "renders",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ and render/.
func IncrTranscriptRequest()  { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptFallback() { metrics.TranscriptFallbacks.Add(1) }
func IncrTranscriptFailure()  { metrics.TranscriptFailures.Add(1) }
func IncrTitleFailure()       { metrics.TitleFailures.Add(1) }
func IncrRender()             { metrics.Renders.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 30*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
