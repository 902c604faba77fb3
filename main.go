// go_tubenotes is the YouTube transcript summary MCP server.
//
// Exposes video_load, video_summarize, video_ask, video_export, video_usage
// and video_reset. Rendered notes are also served over HTTP by the download
// server.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tubenotes/internal/bootstrap"
	"github.com/anatolykoptev/go_tubenotes/internal/download"
	"github.com/anatolykoptev/go_tubenotes/internal/engine"
	"github.com/anatolykoptev/go_tubenotes/internal/logging"
	"github.com/anatolykoptev/go_tubenotes/internal/tubeserver"
)

var version = "dev"

func main() {
	app := bootstrap.LoadEnv()
	logger := logging.Setup(app.LogLevel, app.LogFormat)

	p, err := bootstrap.NewPipeline(context.Background(), app)
	if err != nil {
		slog.Error("engine init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer p.Close()

	slog.Info("starting go_tubenotes",
		slog.String("port", app.MCPPort),
		slog.String("download", app.DownloadAddr),
	)

	tools := tubeserver.New(tubeserver.Deps{
		Acquirer:        p.Acquirer,
		Summarizer:      p.Summarizer,
		Generator:       p.Generator,
		Limits:          app.Limits,
		DownloadBaseURL: app.DownloadBaseURL,
	})

	if app.DownloadAddr != "" {
		dl := download.NewServer(app.DownloadAddr, tools.Store(), logging.WithComponent(logger, "download"))
		go func() {
			if err := dl.Start(); err != nil {
				slog.Error("download server failed", slog.Any("error", err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = dl.Shutdown(ctx)
		}()
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_tubenotes",
		Version: version,
	}, nil)

	tools.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", tubeserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_tubenotes",
		Version:      version,
		Port:         app.MCPPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}
