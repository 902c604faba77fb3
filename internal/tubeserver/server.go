// Package tubeserver exposes the transcript pipeline as MCP tools and
// enforces the per-session usage quotas.
package tubeserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
	"github.com/anatolykoptev/go_tubenotes/internal/engine/sources"
	"github.com/anatolykoptev/go_tubenotes/internal/render"
	"github.com/anatolykoptev/go_tubenotes/internal/session"
	"github.com/anatolykoptev/go_tubenotes/internal/toolutil"
)

const approachingLimit = "Approaching usage limit!"

// Limits are the per-session quotas. Zero values fall back to 3 videos and
// 5 questions.
type Limits struct {
	MaxVideos    int
	MaxQuestions int
}

// Deps wires the server to the pipeline.
type Deps struct {
	Acquirer   *sources.Acquirer
	Summarizer *engine.Summarizer
	Generator  *engine.Generator
	Store      *session.Store
	Limits     Limits
	// DownloadBaseURL prefixes artifact links; empty disables them.
	DownloadBaseURL string
}

// Server runs one tool call at a time against the shared session store.
type Server struct {
	acq     *sources.Acquirer
	sum     *engine.Summarizer
	gen     *engine.Generator
	store   *session.Store
	limits  Limits
	baseURL string

	mu        sync.Mutex
	videos    int
	questions int
}

// New builds a Server. A nil Store gets a fresh one.
func New(d Deps) *Server {
	if d.Limits.MaxVideos <= 0 {
		d.Limits.MaxVideos = 3
	}
	if d.Limits.MaxQuestions <= 0 {
		d.Limits.MaxQuestions = 5
	}
	if d.Store == nil {
		d.Store = session.NewStore()
	}
	return &Server{
		acq:     d.Acquirer,
		sum:     d.Summarizer,
		gen:     d.Generator,
		store:   d.Store,
		limits:  d.Limits,
		baseURL: strings.TrimRight(d.DownloadBaseURL, "/"),
	}
}

// Store returns the session store shared with the download server.
func (s *Server) Store() *session.Store {
	return s.store
}

func (s *Server) usage() Usage {
	u := Usage{
		VideosAnalyzed: s.videos,
		MaxVideos:      s.limits.MaxVideos,
		QuestionsAsked: s.questions,
		MaxQuestions:   s.limits.MaxQuestions,
	}
	if s.videos >= s.limits.MaxVideos-1 || s.questions >= s.limits.MaxQuestions-1 {
		u.Warning = approachingLimit
	}
	return u
}

// Usage reports the current quota counters.
func (s *Server) Usage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage()
}

// Load resolves the link, fetches its transcript and makes it the active
// session. Nothing changes when resolution or acquisition fails.
func (s *Server) Load(ctx context.Context, in LoadInput) (LoadOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := toolutil.Validate(in); err != nil {
		return LoadOutput{}, err
	}
	return s.load(ctx, in.URL)
}

func (s *Server) load(ctx context.Context, rawURL string) (LoadOutput, error) {
	t, err := s.acq.Acquire(ctx, rawURL)
	if err != nil {
		return LoadOutput{}, toolutil.WithGuidance(err)
	}
	snap, reused := s.store.Load(t.Video, t.Text)
	slog.Info("video_load: transcript ready",
		slog.String("video", t.Video.ID),
		slog.String("strategy", t.Strategy),
		slog.Int("lines", len(t.Lines)),
		slog.Bool("reused", reused))

	return LoadOutput{
		VideoID:      snap.Video.ID,
		Title:        snap.Video.Title,
		WatchURL:     engine.WatchURL(snap.Video.ID),
		ThumbnailURL: engine.ThumbnailURL(snap.Video.ID),
		Strategy:     t.Strategy,
		Lines:        len(t.Lines),
		Chars:        len(snap.Transcript),
		Preview:      engine.Preview(snap.Transcript, 300),
		Reused:       reused,
		HasSummary:   snap.Summary != nil,
		Usage:        s.usage(),
	}, nil
}

// Summarize generates a summary for the active video, or for in.URL after
// loading it. Each call counts against the video quota. The previous summary
// and history stay in place when generation fails.
func (s *Server) Summarize(ctx context.Context, in SummarizeInput) (SummarizeOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in.Mode = strings.ToLower(strings.TrimSpace(in.Mode))
	if err := toolutil.Validate(in); err != nil {
		return SummarizeOutput{}, err
	}
	// A refused request must leave the current session untouched.
	if s.videos >= s.limits.MaxVideos {
		return SummarizeOutput{}, fmt.Errorf("%w: video analysis limit reached (%d videos per session)",
			engine.ErrQuotaExceeded, s.limits.MaxVideos)
	}
	if in.URL != "" {
		if _, err := s.load(ctx, in.URL); err != nil {
			return SummarizeOutput{}, err
		}
	}
	cur, err := s.store.Current()
	if err != nil {
		return SummarizeOutput{}, err
	}
	s.videos++

	mode := engine.ParseMode(in.Mode)
	progress := func(p engine.Progress) {
		slog.Info(fmt.Sprintf("Analyzing part %d of %d", p.Done, p.Total),
			slog.String("video", cur.Video.ID),
			slog.Float64("fraction", p.Fraction()))
	}
	sum, err := s.sum.Summarize(ctx, cur.Transcript, mode, progress)
	if err != nil {
		slog.Warn("video_summarize: generation failed",
			slog.String("video", cur.Video.ID), slog.Any("error", err))
		return SummarizeOutput{}, fmt.Errorf("summarize %s: %w", cur.Video.ID, err)
	}
	if err := s.store.SetSummary(cur.Video.ID, sum); err != nil {
		return SummarizeOutput{}, err
	}

	out := SummarizeOutput{
		VideoID:     cur.Video.ID,
		Title:       cur.Video.Title,
		Mode:        sum.Mode,
		Summary:     sum.Text,
		GeneratedAt: sum.GeneratedAt.Format(time.RFC3339),
		Usage:       s.usage(),
	}
	if rd, err := s.store.Rendered(); err == nil {
		out.Downloads = s.downloads(rd, "both")
	}
	return out, nil
}

// Ask answers a question about the active video and appends it to the
// history. Repeating the last question returns the stored answer without a
// completion call or a quota charge.
func (s *Server) Ask(ctx context.Context, in AskInput) (AskOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in.Question = strings.TrimSpace(in.Question)
	if err := toolutil.Validate(in); err != nil {
		return AskOutput{}, err
	}
	cur, err := s.store.Current()
	if err != nil {
		return AskOutput{}, err
	}
	if cur.Summary == nil {
		return AskOutput{}, fmt.Errorf("%w: generate a summary first to enable Q&A", engine.ErrNoSummary)
	}
	if n := len(cur.QA); n > 0 && cur.QA[n-1].Question == in.Question {
		return AskOutput{
			Question:  in.Question,
			Answer:    cur.QA[n-1].Answer,
			Duplicate: true,
			History:   n,
			Usage:     s.usage(),
		}, nil
	}
	if s.questions >= s.limits.MaxQuestions {
		return AskOutput{}, fmt.Errorf("%w: question limit reached (%d questions per session)",
			engine.ErrQuotaExceeded, s.limits.MaxQuestions)
	}
	s.questions++

	answer, err := engine.AnswerQuestion(ctx, s.gen, in.Question, cur.Transcript, cur.Summary.Text)
	if err != nil {
		return AskOutput{}, err
	}
	if _, err := s.store.AppendQA(cur.Video.ID, engine.QAEntry{Question: in.Question, Answer: answer}); err != nil {
		return AskOutput{}, err
	}
	return AskOutput{
		Question: in.Question,
		Answer:   answer,
		History:  len(cur.QA) + 1,
		Usage:    s.usage(),
	}, nil
}

// Export returns the rendered documents of the active session.
func (s *Server) Export(_ context.Context, in ExportInput) (ExportOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in.Format = toolutil.NormFormat(in.Format)
	if err := toolutil.Validate(in); err != nil {
		return ExportOutput{}, err
	}
	rd, err := s.store.Rendered()
	if err != nil {
		return ExportOutput{}, err
	}
	cur, err := s.store.Current()
	if err != nil {
		return ExportOutput{}, err
	}
	out := ExportOutput{VideoID: cur.Video.ID, Downloads: s.downloads(rd, in.Format)}
	if in.IncludeContent && in.Format != "docx" {
		out.Markdown = string(rd.Markdown.Data)
	}
	return out, nil
}

// Reset ends the session: the store is emptied and the quotas start over.
func (s *Server) Reset() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset()
	s.videos, s.questions = 0, 0
	slog.Info("session reset")
	return s.usage()
}

func (s *Server) downloads(rd *render.Rendered, format string) []Download {
	var arts []render.Artifact
	switch format {
	case "markdown":
		arts = []render.Artifact{rd.Markdown}
	case "docx":
		arts = []render.Artifact{rd.Docx}
	default:
		arts = []render.Artifact{rd.Markdown, rd.Docx}
	}
	out := make([]Download, 0, len(arts))
	for _, a := range arts {
		d := Download{Name: a.Name, MIMEType: a.MIMEType, Size: len(a.Data)}
		if s.baseURL != "" {
			d.URL = s.baseURL + "/files/" + a.Name
		}
		out = append(out, d)
	}
	return out
}

// IsQuotaError reports whether err is a quota refusal.
func IsQuotaError(err error) bool {
	return errors.Is(err, engine.ErrQuotaExceeded)
}
