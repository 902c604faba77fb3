package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Summarizer runs the fast and detailed (map-reduce) summary pipelines.
type Summarizer struct {
	gen       *Generator
	chunkSize int
	now       func() time.Time
}

// NewSummarizer builds a Summarizer over gen.
func NewSummarizer(gen *Generator, chunkSize int) *Summarizer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Summarizer{gen: gen, chunkSize: chunkSize, now: time.Now}
}

// Summarize dispatches on mode. onProgress may be nil and is only called in
// detailed mode.
func (s *Summarizer) Summarize(ctx context.Context, transcript string, mode Mode, onProgress func(Progress)) (Summary, error) {
	var text string
	err := TrackOperation(ctx, "summarize_"+string(mode), func(ctx context.Context) error {
		var err error
		if mode == ModeFast {
			text, err = s.Fast(ctx, transcript)
		} else {
			text, err = s.Detailed(ctx, transcript, onProgress)
		}
		return err
	})
	if err != nil {
		return Summary{}, err
	}
	metrics.Summaries.Add(1)
	return Summary{Text: text, Mode: mode, GeneratedAt: s.now()}, nil
}

// Fast produces a short executive summary in one call over the whole transcript.
func (s *Summarizer) Fast(ctx context.Context, transcript string) (string, error) {
	out, err := s.gen.Generate(ctx, transcript, FastSummaryPrompt)
	if err != nil {
		return "", fmt.Errorf("fast summary: %w", err)
	}
	return out, nil
}

// Detailed analyzes each chunk in order, drops chunks whose analysis failed,
// and reduces the rest with the synthesis prompt. The reduce call runs even
// when every chunk failed.
func (s *Summarizer) Detailed(ctx context.Context, transcript string, onProgress func(Progress)) (string, error) {
	chunks := ChunkText(transcript, s.chunkSize)
	analyses := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		slog.Info("summarize: analyzing part", slog.Int("part", i+1), slog.Int("total", len(chunks)))
		analysis, err := s.gen.Generate(ctx, chunk, ChunkPrompt)
		switch {
		case err == nil:
			metrics.ChunksAnalyzed.Add(1)
			if strings.TrimSpace(analysis) != "" {
				analyses = append(analyses, analysis)
			}
		case errors.Is(err, ErrGeneration):
			metrics.ChunksDropped.Add(1)
			slog.Warn("summarize: chunk dropped", slog.Int("part", i+1), slog.Any("error", err))
		default:
			return "", err
		}
		if onProgress != nil {
			onProgress(Progress{Done: i + 1, Total: len(chunks)})
		}
	}

	out, err := s.gen.Generate(ctx, strings.Join(analyses, "\n\n"), FinalPrompt)
	if err != nil {
		return "", fmt.Errorf("final summary: %w", err)
	}
	return out, nil
}
