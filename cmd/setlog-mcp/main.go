// Command setlog-mcp runs the SetLog MCP tools over stdio. Live sessions are
// held in this process; plans are read from and sets written to a remote
// SetLog server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	setlogmcp "github.com/claude/setlog/internal/mcp"
	"github.com/claude/setlog/internal/remote"
	"github.com/claude/setlog/internal/session"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", os.Getenv("SETLOG_SERVER_URL"), "SetLog server URL (e.g. http://setlog.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("SETLOG_AUTH_API_KEY"), "API key for the server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("setlog-mcp", Version)
		return
	}

	// stdout carries the MCP protocol
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: setlog-mcp -server <URL> [-api-key KEY]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := remote.NewClient(*serverURL, *apiKey)
	sessions := session.NewManager(ctx, client, time.Second, log)
	defer sessions.Close()

	s := setlogmcp.New(sessions, client, Version, log)
	log.Info("setlog-mcp serving on stdio", "server", *serverURL, "version", Version)
	if err := server.ServeStdio(s); err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
