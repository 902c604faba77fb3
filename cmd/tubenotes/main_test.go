package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
	"github.com/anatolykoptev/go_tubenotes/internal/engine/sources"
)

const videoID = "dQw4w9WgXcQ"

const reply = "A clear explanation of the main ideas presented throughout the whole video"

type oneTrack struct{}

func (oneTrack) DefaultTrack(context.Context, string) ([]engine.TimedLine, error) {
	return []engine.TimedLine{{Start: 3, Text: "welcome to the show"}, {Start: 8, Text: "let us begin"}}, nil
}

func (oneTrack) LanguageTrack(context.Context, string, []string) ([]engine.TimedLine, error) {
	return nil, errors.New("unused")
}

func (oneTrack) ListTracks(context.Context, string) ([]sources.Track, error) {
	return nil, errors.New("unused")
}

func (oneTrack) FetchTrack(context.Context, sources.Track) ([]engine.TimedLine, error) {
	return nil, errors.New("unused")
}

func testPipeline(t *testing.T, err error) (pipeline, *int) {
	t.Helper()
	calls := 0
	c := engine.CompleterFunc(func(context.Context, string) (string, error) {
		calls++
		if err != nil {
			return "", err
		}
		return reply, nil
	})
	conf := engine.DefaultConfig()
	conf.LLMAttempts = 1
	conf.LLMRetryWait = time.Millisecond
	gen := engine.NewGenerator(c, conf)
	return pipeline{
		acq: sources.NewAcquirer(oneTrack{}, nil, time.Second),
		sum: engine.NewSummarizer(gen, 10000),
		gen: gen,
	}, &calls
}

func TestRun_WritesDocuments(t *testing.T) {
	p, calls := testPipeline(t, nil)
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	opts := options{mode: "detailed", outDir: dir, format: "both", questions: []string{"What is first?", " "}}
	require.NoError(t, run(context.Background(), p, "https://youtu.be/"+videoID, opts, &stdout, &stderr))
	assert.Equal(t, 3, *calls, "chunk + reduce + one question")

	md, err := os.ReadFile(filepath.Join(dir, "video_summary_"+videoID+".md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Video Summary: Untitled\n"))
	assert.Contains(t, string(md), "**Q: What is first?**")

	docx, err := os.ReadFile(filepath.Join(dir, "video_summary_"+videoID+".docx"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(docx, []byte("PK")))

	assert.Contains(t, stdout.String(), "Wrote ")
	assert.Contains(t, stderr.String(), "Analyzing video content")
}

func TestRun_RepeatedQuestionAskedOnce(t *testing.T) {
	p, calls := testPipeline(t, nil)
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	opts := options{mode: "fast", outDir: dir, format: "md", noProgress: true,
		questions: []string{"Same?", " Same? ", "Other?", "Same?"}}
	require.NoError(t, run(context.Background(), p, "https://youtu.be/"+videoID, opts, &stdout, &stderr))
	assert.Equal(t, 4, *calls, "summary + Same? + Other? + Same? again after a different question")

	md, err := os.ReadFile(filepath.Join(dir, "video_summary_"+videoID+".md"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(md), "**Q: Same?**"))
	assert.Equal(t, 1, strings.Count(string(md), "**Q: Other?**"))
}

func TestRun_MarkdownOnlyNoProgress(t *testing.T) {
	p, _ := testPipeline(t, nil)
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	opts := options{mode: "fast", outDir: dir, format: "md", noProgress: true}
	require.NoError(t, run(context.Background(), p, "https://www.youtube.com/watch?v="+videoID, opts, &stdout, &stderr))

	_, err := os.Stat(filepath.Join(dir, "video_summary_"+videoID+".docx"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "video_summary_"+videoID+".md"))
	assert.NoError(t, err)
	assert.Empty(t, stderr.String())
}

func TestRun_Errors(t *testing.T) {
	p, calls := testPipeline(t, nil)
	var out bytes.Buffer

	err := run(context.Background(), p, "https://youtu.be/"+videoID, options{mode: "slow"}, &out, &out)
	assert.ErrorContains(t, err, "--mode")

	err = run(context.Background(), p, "https://youtu.be/"+videoID, options{mode: "fast", format: "pdf"}, &out, &out)
	assert.ErrorContains(t, err, "--format")

	err = run(context.Background(), p, "not a link", options{mode: "fast", format: "both"}, &out, &out)
	assert.ErrorIs(t, err, engine.ErrInvalidURL)
	assert.Equal(t, 0, *calls)
	assert.Equal(t, 1, exitCode(err))
}

func TestRun_FatalExitCode(t *testing.T) {
	p, _ := testPipeline(t, errors.New("API key not valid. Please pass a valid API key."))
	var out bytes.Buffer

	err := run(context.Background(), p, "https://youtu.be/"+videoID,
		options{mode: "fast", outDir: t.TempDir(), format: "both", noProgress: true}, &out, &out)
	require.Error(t, err)
	assert.True(t, engine.IsFatal(err))
	assert.Equal(t, 2, exitCode(err))
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-m", "fast", "-q", "one", "-q", "two", "--out", "notes"}))
	mode, _ := cmd.Flags().GetString("mode")
	qs, _ := cmd.Flags().GetStringArray("question")
	out, _ := cmd.Flags().GetString("out")
	assert.Equal(t, "fast", mode)
	assert.Equal(t, []string{"one", "two"}, qs)
	assert.Equal(t, "notes", out)

	assert.Error(t, cmd.Args(cmd, nil), "url argument is required")
}
