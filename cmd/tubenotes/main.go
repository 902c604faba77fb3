// tubenotes summarizes a YouTube video from the command line and writes the
// markdown and Word notes to disk.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_tubenotes/internal/bootstrap"
	"github.com/anatolykoptev/go_tubenotes/internal/engine"
	"github.com/anatolykoptev/go_tubenotes/internal/engine/sources"
	"github.com/anatolykoptev/go_tubenotes/internal/logging"
	"github.com/anatolykoptev/go_tubenotes/internal/render"
	"github.com/anatolykoptev/go_tubenotes/internal/session"
	"github.com/anatolykoptev/go_tubenotes/internal/toolutil"
)

var version = "dev"

type options struct {
	mode       string
	outDir     string
	format     string
	questions  []string
	noProgress bool
}

// pipeline is what run needs from bootstrap.Pipeline.
type pipeline struct {
	acq *sources.Acquirer
	sum *engine.Summarizer
	gen *engine.Generator
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if engine.IsFatal(err) {
		return 2
	}
	return 1
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "tubenotes <youtube-url>",
		Short:        "Summarize a YouTube video into markdown and Word notes",
		Long:         "Fetch the transcript of a YouTube video, summarize it with a language model (fast or detailed), optionally answer questions about it, and write video_summary_<id>.md and .docx.",
		Version:      version,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := bootstrap.LoadEnv()
			logging.Setup(app.LogLevel, app.LogFormat)

			p, err := bootstrap.NewPipeline(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer p.Close()

			return run(cmd.Context(), pipeline{acq: p.Acquirer, sum: p.Summarizer, gen: p.Generator},
				args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.mode, "mode", "m", string(engine.ModeDetailed), "summary mode: fast or detailed")
	f.StringVarP(&opts.outDir, "out", "o", ".", "directory to write the documents to")
	f.StringVarP(&opts.format, "format", "f", "both", "documents to write: markdown, docx or both")
	f.StringArrayVarP(&opts.questions, "question", "q", nil, "question to answer after summarizing (repeatable)")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

func run(ctx context.Context, p pipeline, rawURL string, opts options, stdout, stderr io.Writer) error {
	mode := strings.ToLower(strings.TrimSpace(opts.mode))
	if mode != string(engine.ModeFast) && mode != string(engine.ModeDetailed) {
		return fmt.Errorf("--mode must be fast or detailed, got %q", opts.mode)
	}
	format := toolutil.NormFormat(opts.format)
	if format != "markdown" && format != "docx" && format != "both" {
		return fmt.Errorf("--format must be markdown, docx or both, got %q", opts.format)
	}

	t, err := p.acq.Acquire(ctx, rawURL)
	if err != nil {
		return toolutil.WithGuidance(err)
	}
	title := t.Video.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(stdout, "Video: %s %s\n", title, engine.WatchURL(t.Video.ID))

	store := session.NewStore()
	store.Load(t.Video, t.Text)

	var onProgress func(engine.Progress)
	if !opts.noProgress {
		onProgress = progressReporter(stderr)
	}
	sum, err := p.sum.Summarize(ctx, t.Text, engine.ParseMode(mode), onProgress)
	if err != nil {
		return err
	}
	if err := store.SetSummary(t.Video.ID, sum); err != nil {
		return err
	}

	last := ""
	for _, q := range opts.questions {
		q = strings.TrimSpace(q)
		// a repeat of the previous question keeps its stored answer
		if q == "" || q == last {
			continue
		}
		answer, err := engine.AnswerQuestion(ctx, p.gen, q, t.Text, sum.Text)
		if err != nil {
			if engine.IsFatal(err) || errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(stderr, "question %q failed: %v\n", q, err)
			continue
		}
		if _, err := store.AppendQA(t.Video.ID, engine.QAEntry{Question: q, Answer: answer}); err != nil {
			return err
		}
		last = q
	}

	rd, err := store.Rendered()
	if err != nil {
		return err
	}
	return writeArtifacts(stdout, opts.outDir, format, rd)
}

func progressReporter(w io.Writer) func(engine.Progress) {
	var bar *progressbar.ProgressBar
	return func(p engine.Progress) {
		if bar == nil {
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("Analyzing video content"),
			)
		}
		bar.Add(1)
		if p.Done >= p.Total {
			bar.Finish()
			fmt.Fprintln(w)
		}
	}
}

func writeArtifacts(stdout io.Writer, dir, format string, rd *render.Rendered) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	var arts []render.Artifact
	if format != "docx" {
		arts = append(arts, rd.Markdown)
	}
	if format != "markdown" {
		arts = append(arts, rd.Docx)
	}
	for _, a := range arts {
		path := filepath.Join(dir, a.Name)
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", a.Name, err)
		}
		fmt.Fprintf(stdout, "Wrote %s (%d bytes)\n", path, len(a.Data))
	}
	return nil
}
