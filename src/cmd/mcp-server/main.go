// Package main provides the MCP server entry point for tracekeep.
// It serves the report directory over the Model Context Protocol on
// stdin/stdout so assistants can list and read captured stack traces.
package main

import (
	"context"
	"fmt"
	"os"

	"tracekeep/src/config"
	"tracekeep/src/mcp"
	"tracekeep/src/store"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// stdout carries the protocol, so every diagnostic goes to stderr.
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	files, err := store.NewFileStore(cfg.ReportDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open report directory: %v\n", err)
		os.Exit(1)
	}

	var index store.Index
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgresIndex(context.Background(), cfg.PostgresDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Report index unavailable, serving files only: %v\n", err)
		} else {
			defer pg.Close()
			index = pg
		}
	}

	server := mcp.NewServer(files, index, version)
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
