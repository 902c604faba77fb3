package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
)

// Watch page and Innertube player types plus the low-level HTTP calls.
// Track selection and transcript assembly live in youtube_transcript.go.

const (
	ytWatchURL       = "https://www.youtube.com/watch?v="
	ytInnertubeURL   = "https://www.youtube.com/youtubei/v1/player"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
)

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

// playerResp is shared by the watch page's ytInitialPlayerResponse and the
// Innertube /player endpoint.
type playerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		Title string `json:"title"`
	} `json:"videoDetails"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// tracks returns the caption tracks or an error naming why there are none.
func (p *playerResp) tracks() ([]captionTrack, error) {
	if p.Captions == nil {
		if p.PlayabilityStatus != nil && p.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("captions unavailable: %s", p.PlayabilityStatus.Reason)
		}
		return nil, errors.New("no captions in player response")
	}
	tracks := p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.New("no caption tracks")
	}
	return tracks, nil
}

// --- Timedtext XML types ---

// ytTimedText covers both the legacy <transcript><text start dur> format and
// the srv3 <timedtext><body><p t d> format.
type ytTimedText struct {
	Lines []ytLine `xml:"text"`
	Body  struct {
		Paras []ytPara `xml:"p"`
	} `xml:"body"`
}

type ytLine struct {
	Start string `xml:"start,attr"`
	Text  string `xml:",chardata"`
}

type ytPara struct {
	T    int    `xml:"t,attr"` // milliseconds
	Text string `xml:",chardata"`
	Segs []struct {
		Text string `xml:",chardata"`
	} `xml:"s"`
}

// getWatchPage fetches the HTML watch page for videoID.
func (y *YouTube) getWatchPage(ctx context.Context, videoID string) ([]byte, error) {
	body, err := y.plainWatchPage(ctx, videoID)
	if err == nil || y.Browser == nil {
		return body, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	slog.Debug("youtube: watch page via browser client", slog.String("video", videoID), slog.Any("error", err))
	data, status, berr := y.Browser.Do(http.MethodGet, y.WatchURL+videoID, engine.ChromeHeaders(), nil)
	if berr != nil {
		return nil, fmt.Errorf("%w (browser: %v)", err, berr)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w (browser: HTTP %d)", err, status)
	}
	return data, nil
}

func (y *YouTube) plainWatchPage(ctx context.Context, videoID string) ([]byte, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.WatchURL+videoID, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return y.client().Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}
	return body, nil
}

// watchPlayerResponse scrapes ytInitialPlayerResponse from the watch page.
func (y *YouTube) watchPlayerResponse(ctx context.Context, videoID string) (*playerResp, error) {
	body, err := y.getWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}
	idx := bytes.Index(body, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}
	var pr playerResp
	if err := json.Unmarshal(jsonData, &pr); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &pr, nil
}

// androidPlayerResponse queries the ANDROID Innertube /player endpoint.
// Works from non-blocked (residential/cloud) IP addresses.
func (y *YouTube) androidPlayerResponse(ctx context.Context, videoID string) (*playerResp, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.PlayerURL+"?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return y.client().Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("android innertube: HTTP %d: %s", resp.StatusCode, snippet)
	}

	var pr playerResp
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return &pr, nil
}

// extractJSON returns the balanced JSON object at the start of b, or nil.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
