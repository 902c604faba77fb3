package render

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
)

const (
	// MarkdownMIME is the media type of the markdown artifact.
	MarkdownMIME = "text/markdown"

	// DocxMIME is the media type of the .docx artifact.
	DocxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	footerText   = "Generated using YouTube Video Summarizer"
	qaHeading    = "Questions & Answers"
	timestampFmt = "2006-01-02 15:04:05"
	untitled     = "Untitled"
)

// Input is everything a rendering depends on.
type Input struct {
	Video   engine.VideoReference
	Summary engine.Summary
	QA      []engine.QAEntry
}

func (in Input) title() string {
	if t := strings.TrimSpace(in.Video.Title); t != "" {
		return t
	}
	return untitled
}

func (in Input) timestamp() string {
	return in.Summary.GeneratedAt.Format(timestampFmt)
}

// Artifact is one downloadable file.
type Artifact struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Rendered holds both encodings of the same input.
type Rendered struct {
	Markdown Artifact
	Docx     Artifact
}

// MarkdownName is the markdown artifact file name for a video.
func MarkdownName(videoID string) string {
	return fmt.Sprintf("video_summary_%s.md", videoID)
}

// DocxName is the .docx artifact file name for a video.
func DocxName(videoID string) string {
	return fmt.Sprintf("video_summary_%s.docx", videoID)
}

// Render produces both artifacts. It is a pure function of in.
func Render(in Input) (*Rendered, error) {
	doc, err := Docx(in)
	if err != nil {
		return nil, err
	}
	engine.IncrRender()
	return &Rendered{
		Markdown: Artifact{Name: MarkdownName(in.Video.ID), MIMEType: MarkdownMIME, Data: []byte(Markdown(in))},
		Docx:     Artifact{Name: DocxName(in.Video.ID), MIMEType: DocxMIME, Data: doc},
	}, nil
}
