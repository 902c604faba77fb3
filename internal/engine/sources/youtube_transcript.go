package sources

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
)

// PreferredLanguages is the priority list for the language-restricted strategy.
// "auto" matches any auto-generated track.
var PreferredLanguages = []string{"en", "en-US", "en-GB", "auto"}

// Track is one caption track offered for a video.
type Track struct {
	LanguageCode string `json:"language_code"`
	Kind         string `json:"kind,omitempty"`
	BaseURL      string `json:"-"`
}

// Generated reports whether the track is auto-generated speech recognition.
func (t Track) Generated() bool { return t.Kind == "asr" }

// CaptionSource fetches timed captions for a video.
type CaptionSource interface {
	// DefaultTrack fetches the first usable track with no language filter.
	DefaultTrack(ctx context.Context, videoID string) ([]engine.TimedLine, error)
	// LanguageTrack fetches the best track among langs, manual before generated.
	LanguageTrack(ctx context.Context, videoID string, langs []string) ([]engine.TimedLine, error)
	// ListTracks lists every track the player reports.
	ListTracks(ctx context.Context, videoID string) ([]Track, error)
	// FetchTrack downloads and parses one track.
	FetchTrack(ctx context.Context, t Track) ([]engine.TimedLine, error)
}

// YouTube implements CaptionSource and TitleSource over the public watch
// page, the ANDROID Innertube player, and timedtext XML.
type YouTube struct {
	// Client defaults to engine.Cfg.HTTPClient when nil.
	Client    *http.Client
	WatchURL  string
	PlayerURL string
	// Browser, when set, retries the watch page with a browser TLS
	// fingerprint after the plain client is refused.
	Browser engine.PageFetcher
}

// NewYouTube returns a YouTube source pointed at the production endpoints.
func NewYouTube(client *http.Client) *YouTube {
	return &YouTube{Client: client, WatchURL: ytWatchURL, PlayerURL: ytInnertubeURL}
}

func (y *YouTube) client() *http.Client {
	if y.Client != nil {
		return y.Client
	}
	return engine.Cfg.HTTPClient
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

func toTracks(raw []captionTrack) []Track {
	out := make([]Track, 0, len(raw))
	for _, t := range raw {
		out = append(out, Track{LanguageCode: t.LanguageCode, Kind: t.Kind, BaseURL: t.BaseURL})
	}
	return out
}

func usableTracks(tracks []Track) []Track {
	usable := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	return usable
}

// pickLanguageTrack walks langs twice: manual tracks first, then generated.
func pickLanguageTrack(tracks []Track, langs []string) (Track, bool) {
	for _, lang := range langs {
		for _, t := range tracks {
			if !t.Generated() && t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range tracks {
			if t.Generated() && (lang == "auto" || t.LanguageCode == lang) {
				return t, true
			}
		}
	}
	return Track{}, false
}

func isEnglish(code string) bool {
	return code == "en" || strings.HasPrefix(code, "en-")
}

// pickEnglishTrack prefers a manual English track, then an auto-generated one.
func pickEnglishTrack(tracks []Track) (Track, bool) {
	for _, t := range tracks {
		if !t.Generated() && isEnglish(t.LanguageCode) {
			return t, true
		}
	}
	for _, t := range tracks {
		if t.Generated() && isEnglish(t.LanguageCode) {
			return t, true
		}
	}
	return Track{}, false
}

func (y *YouTube) watchTracks(ctx context.Context, videoID string) ([]Track, error) {
	pr, err := y.watchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, err
	}
	raw, err := pr.tracks()
	if err != nil {
		return nil, err
	}
	usable := usableTracks(toTracks(raw))
	if len(usable) == 0 {
		return nil, errors.New("all caption tracks require PoToken")
	}
	return usable, nil
}

func (y *YouTube) DefaultTrack(ctx context.Context, videoID string) ([]engine.TimedLine, error) {
	tracks, err := y.watchTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return y.FetchTrack(ctx, tracks[0])
}

func (y *YouTube) LanguageTrack(ctx context.Context, videoID string, langs []string) ([]engine.TimedLine, error) {
	tracks, err := y.watchTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	t, ok := pickLanguageTrack(tracks, langs)
	if !ok {
		return nil, fmt.Errorf("no track in languages %v", langs)
	}
	return y.FetchTrack(ctx, t)
}

func (y *YouTube) ListTracks(ctx context.Context, videoID string) ([]Track, error) {
	pr, err := y.androidPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, err
	}
	raw, err := pr.tracks()
	if err != nil {
		return nil, err
	}
	return usableTracks(toTracks(raw)), nil
}

// FetchTrack fetches and parses a timedtext XML caption URL.
func (y *YouTube) FetchTrack(ctx context.Context, t Track) ([]engine.TimedLine, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.BaseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		return y.client().Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch timedtext: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}
	lines, err := parseTimedText(body)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New("empty caption track")
	}
	return lines, nil
}

func parseTimedText(body []byte) ([]engine.TimedLine, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	var lines []engine.TimedLine
	for _, l := range tt.Lines {
		text := cleanCaption(l.Text)
		if text == "" {
			continue
		}
		start, _ := strconv.ParseFloat(l.Start, 64)
		lines = append(lines, engine.TimedLine{Start: int(start), Text: text})
	}
	for _, p := range tt.Body.Paras {
		raw := p.Text
		for _, s := range p.Segs {
			raw += s.Text
		}
		text := cleanCaption(raw)
		if text == "" {
			continue
		}
		lines = append(lines, engine.TimedLine{Start: p.T / 1000, Text: text})
	}
	return lines, nil
}

// cleanCaption unescapes entities, turns inline caption markup into markdown
// emphasis, and collapses whitespace.
func cleanCaption(s string) string {
	s = html.UnescapeString(s)
	if strings.ContainsRune(s, '<') {
		if md, err := htmltomarkdown.ConvertString(s); err == nil {
			s = md
		} else {
			s = engine.CleanHTML(s)
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// --- Acquirer ---

// TitleSource looks up a display title. Errors are never fatal to callers.
type TitleSource interface {
	Title(ctx context.Context, videoID string) (string, error)
}

// Transcript is the result of a successful acquisition.
type Transcript struct {
	Video    engine.VideoReference
	Lines    []engine.TimedLine
	Text     string
	Strategy string
}

type strategy struct {
	name  string
	fetch func(ctx context.Context, videoID string) ([]engine.TimedLine, error)
}

// Acquirer turns a video link into a timestamped transcript by trying
// caption strategies in order.
type Acquirer struct {
	captions     CaptionSource
	titles       TitleSource
	titleTimeout time.Duration
}

// NewAcquirer builds an Acquirer. titles may be nil.
func NewAcquirer(captions CaptionSource, titles TitleSource, titleTimeout time.Duration) *Acquirer {
	if titleTimeout <= 0 {
		titleTimeout = 5 * time.Second
	}
	return &Acquirer{captions: captions, titles: titles, titleTimeout: titleTimeout}
}

func (a *Acquirer) strategies() []strategy {
	return []strategy{
		{name: "default", fetch: a.captions.DefaultTrack},
		{name: "languages", fetch: func(ctx context.Context, id string) ([]engine.TimedLine, error) {
			return a.captions.LanguageTrack(ctx, id, PreferredLanguages)
		}},
		{name: "listed-english", fetch: a.listedEnglish},
	}
}

func (a *Acquirer) listedEnglish(ctx context.Context, videoID string) ([]engine.TimedLine, error) {
	tracks, err := a.captions.ListTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	t, ok := pickEnglishTrack(tracks)
	if !ok {
		return nil, fmt.Errorf("no English track among %d listed", len(tracks))
	}
	return a.captions.FetchTrack(ctx, t)
}

// Lines returns the caption lines for videoID, trying each strategy until
// one succeeds. On exhaustion the error wraps engine.ErrNoTranscript and
// every strategy's reason.
func (a *Acquirer) Lines(ctx context.Context, videoID string) ([]engine.TimedLine, string, error) {
	engine.IncrTranscriptRequest()

	key := engine.CacheKey("transcript", videoID)
	if lines, ok := engine.CacheLoadJSON[[]engine.TimedLine](ctx, key); ok && len(lines) > 0 {
		return lines, "cache", nil
	}

	var errs []error
	strategies := a.strategies()
	for i, s := range strategies {
		lines, err := s.fetch(ctx, videoID)
		if err == nil && len(lines) > 0 {
			engine.CacheStoreJSON(ctx, key, lines)
			return lines, s.name, nil
		}
		if err == nil {
			err = errors.New("empty transcript")
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		if i < len(strategies)-1 {
			engine.IncrTranscriptFallback()
			slog.Warn("youtube: transcript strategy failed, trying next",
				slog.String("id", videoID), slog.String("strategy", s.name), slog.Any("error", err))
		}
	}

	engine.IncrTranscriptFailure()
	return nil, "", fmt.Errorf("%w for %s: %w", engine.ErrNoTranscript, videoID, errors.Join(errs...))
}

// Title looks up the video title with a short timeout. Failures are logged
// and yield "".
func (a *Acquirer) Title(ctx context.Context, videoID string) string {
	if a.titles == nil {
		return ""
	}
	key := engine.CacheKey("title", videoID)
	if t, ok := engine.CacheLoadJSON[string](ctx, key); ok && t != "" {
		return t
	}

	ctx, cancel := context.WithTimeout(ctx, a.titleTimeout)
	defer cancel()
	title, err := a.titles.Title(ctx, videoID)
	if err != nil || title == "" {
		engine.IncrTitleFailure()
		slog.Warn("youtube: could not retrieve video title, proceeding",
			slog.String("id", videoID), slog.Any("error", err))
		return ""
	}
	engine.CacheStoreJSON(ctx, key, title)
	return title
}

// Acquire resolves rawURL, looks up the title, and fetches the transcript.
// Errors wrap engine.ErrInvalidURL or engine.ErrNoTranscript.
func (a *Acquirer) Acquire(ctx context.Context, rawURL string) (*Transcript, error) {
	id, ok := ResolveVideoID(rawURL)
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrInvalidURL, strings.TrimSpace(rawURL))
	}
	title := a.Title(ctx, id)
	lines, strat, err := a.Lines(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Transcript{
		Video:    engine.VideoReference{ID: id, Title: title},
		Lines:    lines,
		Text:     engine.FormatTranscript(lines),
		Strategy: strat,
	}, nil
}
