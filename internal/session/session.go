// Package session holds the single in-memory working context: the loaded
// video, its transcript, the current summary and the Q&A history, plus the
// rendered documents memoized from them.
package session

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
	"github.com/anatolykoptev/go_tubenotes/internal/render"
)

var (
	// ErrNoVideo is returned when an operation needs a loaded video.
	ErrNoVideo = errors.New("no video loaded")
	// ErrStale is returned when the caller's video is no longer the active one.
	ErrStale = errors.New("video is no longer active")
)

// Session is the context of one loaded video. A new video always gets a new
// Session; the summary is replaced wholesale and the history only grows until
// the next summary.
type Session struct {
	ID         uuid.UUID
	Video      engine.VideoReference
	Transcript string
	Summary    *engine.Summary
	QA         []engine.QAEntry
	CreatedAt  time.Time

	rendered *render.Rendered
}

// New creates a session for video.
func New(video engine.VideoReference, transcript string) *Session {
	return &Session{
		ID:         uuid.New(),
		Video:      video,
		Transcript: transcript,
		CreatedAt:  time.Now(),
	}
}

// LastQuestion returns the most recent question, or "".
func (s *Session) LastQuestion() string {
	if len(s.QA) == 0 {
		return ""
	}
	return s.QA[len(s.QA)-1].Question
}

func (s *Session) setSummary(sum engine.Summary) {
	s.Summary = &sum
	s.QA = nil
	s.rendered = nil
}

// appendQA records an answered question. Re-submitting the last question is
// a no-op and reports false.
func (s *Session) appendQA(e engine.QAEntry) bool {
	e.Question = strings.TrimSpace(e.Question)
	if e.Question == s.LastQuestion() {
		return false
	}
	s.QA = append(s.QA, e)
	s.rendered = nil
	return true
}

func (s *Session) render() (*render.Rendered, error) {
	if s.Summary == nil {
		return nil, engine.ErrNoSummary
	}
	if s.rendered != nil {
		return s.rendered, nil
	}
	r, err := render.Render(render.Input{
		Video:   s.Video,
		Summary: *s.Summary,
		QA:      slices.Clone(s.QA),
	})
	if err != nil {
		return nil, err
	}
	s.rendered = r
	return r, nil
}

// snapshot returns a copy safe to hand out of the lock.
func (s *Session) snapshot() Session {
	c := *s
	c.QA = slices.Clone(s.QA)
	if s.Summary != nil {
		sum := *s.Summary
		c.Summary = &sum
	}
	c.rendered = nil
	return c
}

// Store guards the single active session. All methods are safe for
// concurrent use.
type Store struct {
	mu  sync.Mutex
	cur *Session
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load makes video the active session. Loading the video that is already
// active keeps its summary and history and reports reused=true.
func (st *Store) Load(video engine.VideoReference, transcript string) (snap Session, reused bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.cur != nil && st.cur.Video.ID == video.ID {
		if st.cur.Video.Title == "" && video.Title != "" {
			st.cur.Video.Title = video.Title
			st.cur.rendered = nil
		}
		return st.cur.snapshot(), true
	}

	st.cur = New(video, transcript)
	slog.Info("session: new video loaded",
		slog.String("session", st.cur.ID.String()),
		slog.String("video", video.ID))
	return st.cur.snapshot(), false
}

// Current returns a copy of the active session.
func (st *Store) Current() (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.cur == nil {
		return Session{}, ErrNoVideo
	}
	return st.cur.snapshot(), nil
}

func (st *Store) active(videoID string) (*Session, error) {
	if st.cur == nil {
		return nil, ErrNoVideo
	}
	if videoID != "" && st.cur.Video.ID != videoID {
		return nil, ErrStale
	}
	return st.cur, nil
}

// SetSummary replaces the summary of videoID's session and clears its
// history. An empty videoID targets whatever session is active.
func (st *Store) SetSummary(videoID string, sum engine.Summary) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, err := st.active(videoID)
	if err != nil {
		return err
	}
	s.setSummary(sum)
	return nil
}

// AppendQA adds an answered question to videoID's history. It reports
// false when the question repeats the previous one.
func (st *Store) AppendQA(videoID string, e engine.QAEntry) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, err := st.active(videoID)
	if err != nil {
		return false, err
	}
	if s.Summary == nil {
		return false, engine.ErrNoSummary
	}
	return s.appendQA(e), nil
}

// Rendered returns the memoized documents of the active session, rendering
// them first if the summary or history changed since the last call.
func (st *Store) Rendered() (*render.Rendered, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.cur == nil {
		return nil, ErrNoVideo
	}
	return st.cur.render()
}

// Reset drops the active session.
func (st *Store) Reset() {
	st.mu.Lock()
	st.cur = nil
	st.mu.Unlock()
}
