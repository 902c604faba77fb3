package tubeserver

import "github.com/anatolykoptev/go_tubenotes/internal/engine"

// LoadInput is the input for video_load.
type LoadInput struct {
	URL string `json:"url" jsonschema:"YouTube video link (watch, youtu.be, shorts, embed or mobile)" validate:"required"`
}

// LoadOutput describes the loaded video and its transcript.
type LoadOutput struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title,omitempty"`
	WatchURL     string `json:"watch_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Strategy     string `json:"strategy"`
	Lines        int    `json:"lines"`
	Chars        int    `json:"chars"`
	Preview      string `json:"preview"`
	Reused       bool   `json:"reused"`
	HasSummary   bool   `json:"has_summary"`
	Usage        Usage  `json:"usage"`
}

// SummarizeInput is the input for video_summarize.
type SummarizeInput struct {
	URL  string `json:"url,omitempty" jsonschema:"Optional video link; loads the video first when given, otherwise the loaded video is used"`
	Mode string `json:"mode,omitempty" jsonschema:"fast (one call, 200-500 words) or detailed (chunked map-reduce notes, default)" validate:"omitempty,oneof=fast detailed"`
}

// SummarizeOutput carries the generated summary.
type SummarizeOutput struct {
	VideoID     string      `json:"video_id"`
	Title       string      `json:"title,omitempty"`
	Mode        engine.Mode `json:"mode"`
	Summary     string      `json:"summary"`
	GeneratedAt string      `json:"generated_at"`
	Downloads   []Download  `json:"downloads,omitempty"`
	Usage       Usage       `json:"usage"`
}

// AskInput is the input for video_ask.
type AskInput struct {
	Question string `json:"question" jsonschema:"Question about the loaded video; answered from its transcript and current summary" validate:"required"`
}

// AskOutput is one answered question.
type AskOutput struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Duplicate bool   `json:"duplicate,omitempty"`
	History   int    `json:"history_len"`
	Usage     Usage  `json:"usage"`
}

// ExportInput is the input for video_export.
type ExportInput struct {
	Format         string `json:"format,omitempty" jsonschema:"markdown, docx or both (default)" validate:"omitempty,oneof=markdown docx both"`
	IncludeContent bool   `json:"include_content,omitempty" jsonschema:"Include the markdown text inline in the result"`
}

// ExportOutput lists the rendered artifacts.
type ExportOutput struct {
	VideoID   string     `json:"video_id"`
	Downloads []Download `json:"downloads"`
	Markdown  string     `json:"markdown,omitempty"`
}

// Download is one rendered artifact and where to fetch it.
type Download struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int    `json:"size"`
	URL      string `json:"url,omitempty"`
}

// NoInput is the input of tools that take no arguments.
type NoInput struct{}

// Usage reports the per-session quotas.
type Usage struct {
	VideosAnalyzed int    `json:"videos_analyzed"`
	MaxVideos      int    `json:"max_videos"`
	QuestionsAsked int    `json:"questions_asked"`
	MaxQuestions   int    `json:"max_questions"`
	Warning        string `json:"warning,omitempty"`
}
