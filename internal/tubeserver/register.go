package tubeserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
)

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 6

// RegisterTools registers the video tools on the given MCP server:
// video_load, video_summarize, video_ask, video_export, video_usage,
// video_reset.
func (s *Server) RegisterTools(server *mcp.Server) {
	s.registerLoad(server)
	s.registerSummarize(server)
	s.registerAsk(server)
	s.registerExport(server)
	s.registerUsage(server)
	s.registerReset(server)
}

// logToolError records refusals at info and everything else at warn.
// Fatal errors are returned to the client untouched. A fatal error aborts
// only the request that raised it: the session and quota counters stay live
// and the next call proceeds normally.
func logToolError(tool string, err error) {
	switch {
	case engine.IsFatal(err):
		slog.Error(tool+": fatal", slog.Any("error", err))
	case IsQuotaError(err):
		slog.Info(tool+": quota refused", slog.Any("error", err))
	default:
		slog.Warn(tool+": failed", slog.Any("error", err))
	}
}

func (s *Server) registerLoad(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_load",
		Description: "Load a YouTube video by link: resolves the video id, fetches the title and the timestamped transcript (trying several caption strategies), and makes it the active session. Loading the already active video keeps its summary and Q&A history.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input LoadInput) (*mcp.CallToolResult, LoadOutput, error) {
		out, err := s.Load(ctx, input)
		if err != nil {
			logToolError("video_load", err)
			return nil, LoadOutput{}, err
		}
		return nil, out, nil
	})
}

func (s *Server) registerSummarize(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_summarize",
		Description: "Summarize the active video (or the given url). mode=fast makes one 200-500 word executive summary; mode=detailed (default) analyzes the transcript in chunks and synthesizes structured notes with headings, key points and tables. Replaces any previous summary and clears the Q&A history. Counts against the per-session video quota.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SummarizeInput) (*mcp.CallToolResult, SummarizeOutput, error) {
		out, err := s.Summarize(ctx, input)
		if err != nil {
			logToolError("video_summarize", err)
			return nil, SummarizeOutput{}, err
		}
		return nil, out, nil
	})
}

func (s *Server) registerAsk(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_ask",
		Description: "Ask a question about the active video. The answer is grounded in the transcript and the current summary and is appended to the Q&A history included in exported documents. Requires a summary. Counts against the per-session question quota.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
		out, err := s.Ask(ctx, input)
		if err != nil {
			logToolError("video_ask", err)
			return nil, AskOutput{}, err
		}
		return nil, out, nil
	})
}

func (s *Server) registerExport(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_export",
		Description: "Render the active summary and Q&A history as Markdown and Word (.docx) documents. Returns file names, sizes and download links; set include_content to get the markdown inline.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
		out, err := s.Export(ctx, input)
		if err != nil {
			logToolError("video_export", err)
			return nil, ExportOutput{}, err
		}
		return nil, out, nil
	})
}

func (s *Server) registerUsage(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_usage",
		Description: "Show how many videos and questions this session has used out of its limits.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, Usage, error) {
		return nil, s.Usage(), nil
	})
}

func (s *Server) registerReset(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_reset",
		Description: "End the session: forget the loaded video, summary and Q&A history and reset the usage counters.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, Usage, error) {
		return nil, s.Reset(), nil
	})
}
