package engine

import (
	"fmt"
	"strings"
	"time"
)

// VideoReference identifies one resolved video. Title may be empty.
type VideoReference struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// TimedLine is one caption entry; Start is in whole seconds.
type TimedLine struct {
	Start int    `json:"start"`
	Text  string `json:"text"`
}

// Mode selects the summarization pipeline.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeDetailed Mode = "detailed"
)

// ParseMode maps user input to a Mode, defaulting to detailed.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeFast)) {
		return ModeFast
	}
	return ModeDetailed
}

// Summary is one generated summary; it is replaced wholesale, never patched.
type Summary struct {
	Text        string    `json:"text"`
	Mode        Mode      `json:"mode"`
	GeneratedAt time.Time `json:"generated_at"`
}

// QAEntry is one answered question.
type QAEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Progress reports detailed-mode chunk completion.
type Progress struct {
	Done  int
	Total int
}

// Fraction returns Done/Total in [0,1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Done) / float64(p.Total)
}

// FormatTimestamp renders seconds as HH:MM:SS.
func FormatTimestamp(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// FormatTranscript renders lines as "[HH:MM:SS] text " in order, trimmed.
func FormatTranscript(lines []TimedLine) string {
	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "[%s] %s ", FormatTimestamp(l.Start), l.Text)
	}
	return strings.TrimSpace(sb.String())
}

// WatchURL is the canonical link for a video.
func WatchURL(id string) string {
	return "https://youtube.com/watch?v=" + id
}

// ThumbnailURL is the default thumbnail for a video.
func ThumbnailURL(id string) string {
	return "http://img.youtube.com/vi/" + id + "/0.jpg"
}
