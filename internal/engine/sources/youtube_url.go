package sources

import (
	"net/url"
	"regexp"
	"strings"
)

// videoURLPatterns are tried in order; the first capture wins.
var videoURLPatterns = []*regexp.Regexp{
	// standard watch
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]+)`),
	// mobile watch
	regexp.MustCompile(`(?:https?://)?(?:www\.)?m\.youtube\.com/watch\?v=([a-zA-Z0-9_-]+)`),
	// shortened
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([a-zA-Z0-9_-]+)`),
	// embed
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/([a-zA-Z0-9_-]+)`),
	// shorts
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/shorts/([a-zA-Z0-9_-]+)`),
}

var watchHosts = map[string]bool{
	"www.youtube.com": true,
	"youtube.com":     true,
	"m.youtube.com":   true,
}

// ResolveVideoID extracts the video ID from a YouTube link.
// It reports false when nothing usable is found.
func ResolveVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, re := range videoURLPatterns {
		if m := re.FindStringSubmatch(raw); len(m) >= 2 {
			return m[1], true
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := u.Hostname()
	if watchHosts[host] {
		if v := u.Query().Get("v"); v != "" {
			return v, true
		}
	}
	if host == "youtu.be" {
		if id := strings.TrimPrefix(u.Path, "/"); id != "" {
			return id, true
		}
	}
	return "", false
}
