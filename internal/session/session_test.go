package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
)

var (
	vidA = engine.VideoReference{ID: "aaaaaaaaaaa", Title: "First"}
	vidB = engine.VideoReference{ID: "bbbbbbbbbbb", Title: "Second"}
)

func summary(text string) engine.Summary {
	return engine.Summary{Text: text, Mode: engine.ModeFast, GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestStore_Load(t *testing.T) {
	st := NewStore()

	_, err := st.Current()
	assert.ErrorIs(t, err, ErrNoVideo)

	first, reused := st.Load(vidA, "transcript a")
	assert.False(t, reused)
	assert.Equal(t, vidA, first.Video)
	require.NoError(t, st.SetSummary(vidA.ID, summary("## A")))
	_, err = st.AppendQA(vidA.ID, engine.QAEntry{Question: "q", Answer: "a"})
	require.NoError(t, err)

	again, reused := st.Load(vidA, "transcript a")
	assert.True(t, reused, "same video keeps the session")
	assert.Equal(t, first.ID, again.ID)
	require.NotNil(t, again.Summary)
	assert.Len(t, again.QA, 1)

	other, reused := st.Load(vidB, "transcript b")
	assert.False(t, reused)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Nil(t, other.Summary, "new video starts without a summary")
	assert.Empty(t, other.QA)
	assert.Equal(t, "transcript b", other.Transcript)
}

func TestStore_LoadFillsMissingTitle(t *testing.T) {
	st := NewStore()
	st.Load(engine.VideoReference{ID: vidA.ID}, "t")
	s, reused := st.Load(vidA, "t")
	assert.True(t, reused)
	assert.Equal(t, "First", s.Video.Title)
}

func TestStore_SetSummaryResetsHistory(t *testing.T) {
	st := NewStore()
	st.Load(vidA, "t")
	require.NoError(t, st.SetSummary("", summary("one")))
	_, err := st.AppendQA("", engine.QAEntry{Question: "q1", Answer: "a1"})
	require.NoError(t, err)

	require.NoError(t, st.SetSummary(vidA.ID, summary("two")))
	cur, err := st.Current()
	require.NoError(t, err)
	assert.Equal(t, "two", cur.Summary.Text)
	assert.Empty(t, cur.QA)
}

func TestStore_StaleAndMissing(t *testing.T) {
	st := NewStore()
	assert.ErrorIs(t, st.SetSummary(vidA.ID, summary("x")), ErrNoVideo)

	st.Load(vidB, "t")
	assert.ErrorIs(t, st.SetSummary(vidA.ID, summary("x")), ErrStale)

	_, err := st.AppendQA(vidB.ID, engine.QAEntry{Question: "q"})
	assert.True(t, errors.Is(err, engine.ErrNoSummary))

	_, err = st.Rendered()
	assert.ErrorIs(t, err, engine.ErrNoSummary)

	st.Reset()
	_, err = st.Rendered()
	assert.ErrorIs(t, err, ErrNoVideo)
}

func TestStore_DuplicateQuestionSuppressed(t *testing.T) {
	st := NewStore()
	st.Load(vidA, "t")
	require.NoError(t, st.SetSummary(vidA.ID, summary("s")))

	added, err := st.AppendQA(vidA.ID, engine.QAEntry{Question: "What?", Answer: "1"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = st.AppendQA(vidA.ID, engine.QAEntry{Question: " What? ", Answer: "2"})
	require.NoError(t, err)
	assert.False(t, added)

	added, err = st.AppendQA(vidA.ID, engine.QAEntry{Question: "Why?", Answer: "3"})
	require.NoError(t, err)
	assert.True(t, added)

	cur, _ := st.Current()
	require.Len(t, cur.QA, 2)
	assert.Equal(t, "What?", cur.QA[0].Question)
	assert.Equal(t, "Why?", cur.LastQuestion())
}

func TestStore_RenderedMemoized(t *testing.T) {
	st := NewStore()
	st.Load(vidA, "t")
	require.NoError(t, st.SetSummary(vidA.ID, summary("## Heading\n- point")))

	r1, err := st.Rendered()
	require.NoError(t, err)
	r2, err := st.Rendered()
	require.NoError(t, err)
	assert.Same(t, r1, r2, "unchanged session reuses the rendered documents")

	_, err = st.AppendQA(vidA.ID, engine.QAEntry{Question: "Q1", Answer: "A1"})
	require.NoError(t, err)
	r3, err := st.Rendered()
	require.NoError(t, err)
	assert.NotSame(t, r1, r3)
	assert.Contains(t, string(r3.Markdown.Data), "**Q: Q1**")
	assert.NotContains(t, string(r1.Markdown.Data), "Q1")

	require.NoError(t, st.SetSummary(vidA.ID, summary("fresh")))
	r4, err := st.Rendered()
	require.NoError(t, err)
	assert.NotContains(t, string(r4.Markdown.Data), "Q1")
}

func TestSnapshotIsolated(t *testing.T) {
	st := NewStore()
	st.Load(vidA, "t")
	require.NoError(t, st.SetSummary(vidA.ID, summary("s")))
	_, err := st.AppendQA(vidA.ID, engine.QAEntry{Question: "q", Answer: "a"})
	require.NoError(t, err)

	snap, _ := st.Current()
	snap.QA[0].Answer = "changed"
	snap.Summary.Text = "changed"

	cur, _ := st.Current()
	assert.Equal(t, "a", cur.QA[0].Answer)
	assert.Equal(t, "s", cur.Summary.Text)
}
