package engine

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Input and acquisition errors stop a request before
// any session state changes; generation errors surface as a missing result.
var (
	ErrInvalidURL    = errors.New("invalid video URL")
	ErrNoTranscript  = errors.New("no transcript available")
	ErrGeneration    = errors.New("content generation failed")
	ErrNoSummary     = errors.New("no summary generated yet")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrQuotaExceeded = errors.New("session limit reached")
)

// FatalError aborts the whole session (invalid credentials and similar).
// It is never retried.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal: %s: %v", e.Reason, e.Err)
	}
	return "fatal: " + e.Reason
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err carries a *FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// URLGuidance is shown next to ErrInvalidURL.
const URLGuidance = `Please make sure to use a valid YouTube URL.
Supported formats:
- youtube.com/watch?v=...
- youtu.be/...
- m.youtube.com/watch?v=...
- youtube.com/embed/...
- youtube.com/shorts/...`

// TranscriptGuidance is shown next to ErrNoTranscript.
const TranscriptGuidance = `This could be because:
- The video doesn't have subtitles/closed captions enabled
- The video is using embedded/burned-in subtitles
- The video might be age-restricted or private

Try these solutions:
1. Choose a similar video that has closed captions enabled
2. Check if the video has manual captions available
3. Verify the video is publicly accessible`
