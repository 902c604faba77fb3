package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
)

func TestResolveVideoID(t *testing.T) {
	const id = "dQw4w9WgXcQ"
	tests := []struct {
		name string
		url  string
	}{
		{"standard", "https://www.youtube.com/watch?v=" + id},
		{"standard no scheme", "youtube.com/watch?v=" + id},
		{"standard extra params", "https://www.youtube.com/watch?v=" + id + "&t=42s"},
		{"mobile", "https://m.youtube.com/watch?v=" + id},
		{"shortened", "https://youtu.be/" + id},
		{"shortened with query", "https://youtu.be/" + id + "?si=abc"},
		{"embed", "https://www.youtube.com/embed/" + id},
		{"shorts", "https://youtube.com/shorts/" + id},
		{"v not first", "https://www.youtube.com/watch?feature=share&v=" + id},
		{"surrounding whitespace", "  https://youtu.be/" + id + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveVideoID(tt.url)
			if !ok || got != id {
				t.Errorf("ResolveVideoID(%q) = %q, %v; want %q", tt.url, got, ok, id)
			}
		})
	}
}

func TestResolveVideoID_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "not a url", "https://vimeo.com/12345", "https://www.youtube.com/feed/trending", "https://youtu.be/"} {
		if got, ok := ResolveVideoID(in); ok {
			t.Errorf("ResolveVideoID(%q) = %q, want failure", in, got)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", `{"a":1};var x`, `{"a":1}`},
		{"nested", `{"a":{"b":2}} trailing`, `{"a":{"b":2}}`},
		{"brace in string", `{"a":"}{"}rest`, `{"a":"}{"}`},
		{"escaped quote", `{"a":"x\"}"}rest`, `{"a":"x\"}"}`},
		{"escaped backslash", `{"a":"x\\"}rest`, `{"a":"x\\"}`},
		{"not object", `[1,2]`, ""},
		{"unterminated", `{"a":1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(extractJSON([]byte(tt.in))); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPickLanguageTrack(t *testing.T) {
	tracks := []Track{
		{LanguageCode: "de"},
		{LanguageCode: "en", Kind: "asr"},
		{LanguageCode: "en-GB"},
	}
	got, ok := pickLanguageTrack(tracks, PreferredLanguages)
	require.True(t, ok)
	assert.Equal(t, "en-GB", got.LanguageCode, "manual track wins over generated")

	got, ok = pickLanguageTrack([]Track{{LanguageCode: "ja", Kind: "asr"}}, PreferredLanguages)
	require.True(t, ok, "auto matches any generated track")
	assert.Equal(t, "ja", got.LanguageCode)

	_, ok = pickLanguageTrack([]Track{{LanguageCode: "ja"}}, PreferredLanguages)
	assert.False(t, ok)
}

func TestPickEnglishTrack(t *testing.T) {
	got, ok := pickEnglishTrack([]Track{{LanguageCode: "en", Kind: "asr"}, {LanguageCode: "en-US"}})
	require.True(t, ok)
	assert.Equal(t, "en-US", got.LanguageCode)

	_, ok = pickEnglishTrack([]Track{{LanguageCode: "fr"}, {LanguageCode: "english"}})
	assert.False(t, ok)
}

func TestParseTimedText(t *testing.T) {
	t.Run("legacy format", func(t *testing.T) {
		xml := `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
			`<text start="1.5" dur="2">Hello &amp;amp; welcome</text>` +
			`<text start="5" dur="1">&lt;i&gt;This&lt;/i&gt; is   a test.</text>` +
			`<text start="7" dur="1">  </text>` +
			`</transcript>`
		lines, err := parseTimedText([]byte(xml))
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, engine.TimedLine{Start: 1, Text: "Hello & welcome"}, lines[0])
		assert.Equal(t, 5, lines[1].Start)
		assert.NotContains(t, lines[1].Text, "<i>")
		assert.Contains(t, lines[1].Text, "This")
		assert.Contains(t, lines[1].Text, "is a test.")
	})

	t.Run("srv3 format", func(t *testing.T) {
		xml := `<timedtext format="3"><body>` +
			`<p t="61000" d="1000">one minute</p>` +
			`<p t="62500" d="1000"><s>two</s><s> words</s></p>` +
			`</body></timedtext>`
		lines, err := parseTimedText([]byte(xml))
		require.NoError(t, err)
		assert.Equal(t, []engine.TimedLine{{Start: 61, Text: "one minute"}, {Start: 62, Text: "two words"}}, lines)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := parseTimedText([]byte("<transcript><text"))
		assert.Error(t, err)
	})
}

const testTimedText = `<transcript><text start="1" dur="2">Hello world.</text><text start="5" dur="2">This is a test.</text></transcript>`

// fakeYouTube serves a watch page, the Innertube player, and timedtext tracks.
type fakeYouTube struct {
	watchTracks  string // JSON array of captionTracks, "" → 404
	playerTracks string // JSON array, "" → no captions
	title        string
	watchHits    int
	playerHits   int
}

func (f *fakeYouTube) server(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		f.watchHits++
		if f.watchTracks == "" {
			http.NotFound(w, r)
			return
		}
		tracks := strings.ReplaceAll(f.watchTracks, "BASE", srv.URL)
		fmt.Fprintf(w, `<html><head><meta property="og:title" content="%s"></head><body>
<script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":%s}},"videoDetails":{"title":"x"}};var meta = {};</script>
</body></html>`, f.title, tracks)
	})
	mux.HandleFunc("/player", func(w http.ResponseWriter, r *http.Request) {
		f.playerHits++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "3", r.Header.Get("X-Youtube-Client-Name"))
		if f.playerTracks == "" {
			fmt.Fprint(w, `{"playabilityStatus":{"status":"ERROR","reason":"Video unavailable"}}`)
			return
		}
		tracks := strings.ReplaceAll(f.playerTracks, "BASE", srv.URL)
		fmt.Fprintf(w, `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":%s}}}`, tracks)
	})
	mux.HandleFunc("/tt/en", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testTimedText)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestYouTube(srv *httptest.Server) *YouTube {
	return &YouTube{Client: srv.Client(), WatchURL: srv.URL + "/watch?v=", PlayerURL: srv.URL + "/player"}
}

func TestAcquire_DefaultTrack(t *testing.T) {
	f := &fakeYouTube{
		watchTracks: `[{"baseUrl":"BASE/tt/en","languageCode":"en"}]`,
		title:       "Test Video",
	}
	yt := newTestYouTube(f.server(t))
	a := NewAcquirer(yt, yt, 0)

	tr, err := a.Acquire(context.Background(), "https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", tr.Video.ID)
	assert.Equal(t, "Test Video", tr.Video.Title)
	assert.Equal(t, "default", tr.Strategy)
	assert.Equal(t, "[00:00:01] Hello world. [00:00:05] This is a test.", tr.Text)
	assert.Zero(t, f.playerHits)
}

func TestAcquire_FallsBackToLanguageTrack(t *testing.T) {
	f := &fakeYouTube{
		watchTracks: `[{"baseUrl":"BASE/tt/missing","languageCode":"de"},{"baseUrl":"BASE/tt/en","languageCode":"en","kind":"asr"}]`,
	}
	yt := newTestYouTube(f.server(t))
	a := NewAcquirer(yt, nil, 0)

	tr, err := a.Acquire(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, "languages", tr.Strategy)
	assert.Len(t, tr.Lines, 2)
	assert.Empty(t, tr.Video.Title)
}

func TestAcquire_FallsBackToListedEnglish(t *testing.T) {
	f := &fakeYouTube{
		playerTracks: `[{"baseUrl":"BASE/tt/missing","languageCode":"fr"},{"baseUrl":"BASE/tt/en","languageCode":"en","kind":"asr"}]`,
	}
	yt := newTestYouTube(f.server(t))
	a := NewAcquirer(yt, yt, 0)

	tr, err := a.Acquire(context.Background(), "https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Equal(t, "listed-english", tr.Strategy)
	assert.Equal(t, 1, f.playerHits)
	assert.Empty(t, tr.Video.Title, "title failure must not abort")
}

func TestAcquire_AllStrategiesFail(t *testing.T) {
	f := &fakeYouTube{}
	yt := newTestYouTube(f.server(t))
	a := NewAcquirer(yt, yt, 0)

	_, err := a.Acquire(context.Background(), "https://youtu.be/abc123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrNoTranscript))
	for _, name := range []string{"default:", "languages:", "listed-english:", "Video unavailable"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestAcquire_InvalidURL(t *testing.T) {
	a := NewAcquirer(&YouTube{}, nil, 0)
	_, err := a.Acquire(context.Background(), "https://example.com/video")
	assert.ErrorIs(t, err, engine.ErrInvalidURL)
}

func TestAcquire_PoTokenTracksSkipped(t *testing.T) {
	f := &fakeYouTube{
		watchTracks: `[{"baseUrl":"BASE/tt/en?x=1&exp=xpe","languageCode":"en"}]`,
	}
	yt := newTestYouTube(f.server(t))
	_, err := yt.DefaultTrack(context.Background(), "abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PoToken")
}

func TestTitle(t *testing.T) {
	f := &fakeYouTube{watchTracks: `[]`, title: "  Some &amp; Title "}
	yt := newTestYouTube(f.server(t))

	got, err := yt.Title(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Some & Title", got)

	f.title = ""
	a := NewAcquirer(yt, yt, 0)
	assert.Empty(t, a.Title(context.Background(), "other"))
}

type fakeBrowser struct {
	body   string
	status int
	urls   []string
}

func (b *fakeBrowser) Do(method, url string, headers map[string]string, _ io.Reader) ([]byte, int, error) {
	b.urls = append(b.urls, method+" "+url)
	if headers["user-agent"] == "" {
		return nil, 0, errors.New("missing user-agent")
	}
	return []byte(b.body), b.status, nil
}

func TestTitle_BrowserFallback(t *testing.T) {
	f := &fakeYouTube{}
	srv := f.server(t)
	yt := newTestYouTube(srv)
	b := &fakeBrowser{status: http.StatusOK, body: `<meta property="og:title" content="From Browser">`}
	yt.Browser = b

	got, err := yt.Title(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "From Browser", got)
	assert.Equal(t, []string{"GET " + srv.URL + "/watch?v=abc123"}, b.urls)

	b.status = http.StatusTooManyRequests
	_, err = yt.Title(context.Background(), "abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser: HTTP 429")
}
