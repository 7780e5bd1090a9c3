package mcp

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/triumph-js/internal/storage"
)

// LookupServer serves an index over MCP stdio.
type LookupServer struct {
	db  *sql.DB
	mcp *server.MCPServer
}

// NewLookupServer opens the index at dbPath read-only and registers the lookup tool.
func NewLookupServer(dbPath, version string) (*LookupServer, error) {
	db, err := storage.Open(dbPath, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"triumph-js",
		version,
		server.WithToolCapabilities(true),
	)
	AddLookupTool(mcpServer, storage.NewResourceReader(db))

	return &LookupServer{db: db, mcp: mcpServer}, nil
}

// Serve starts the MCP server and blocks until shutdown.
func (s *LookupServer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the index.
func (s *LookupServer) Close() error {
	return s.db.Close()
}
