package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whiteboard/internal/config"
	mcpserver "whiteboard/internal/mcp"
	"whiteboard/internal/scenefile"
	"whiteboard/internal/service"
	"whiteboard/internal/storage"
)

// ServeMCP runs the whiteboard as a standalone MCP server on stdin/stdout.
// It initializes storage, services, the janitor and file sync, and serves
// until stdin closes or the process is interrupted.
func ServeMCP(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.New(cfg.Storage.DBPath, cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Storage stores
	notebooksStore := storage.NewNotebookStore(db)
	undoStore := storage.NewUndoStore(db, cfg.Undo.MaxNodes)

	// The file syncer needs the drawing service and the drawing service
	// needs the emitter chain, so the chain is extended once both exist.
	emitter := &service.MultiEmitter{service.LogEmitter{}}

	// Services
	notebooksSvc := service.NewNotebookService(notebooksStore, emitter)
	drawingsSvc := service.NewDrawingService(notebooksStore, undoStore, emitter, cfg.Binding.Threshold)
	janitor := service.NewJanitor(notebooksStore, drawingsSvc, undoStore, cfg.Janitor.Schedule)

	if cfg.Sync.ExportDir != "" {
		syncer, err := scenefile.New(ctx, cfg.Sync.ExportDir, drawingsSvc)
		if err != nil {
			return fmt.Errorf("start file sync: %w", err)
		}
		defer syncer.Close()
		*emitter = append(*emitter, syncer)
	}

	if err := janitor.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		janitor.Stop(stopCtx)
	}()

	mcpSrv := mcpserver.New(mcpserver.Deps{
		Emitter:   emitter,
		Notebooks: notebooksSvc,
		Drawings:  drawingsSvc,
		Janitor:   janitor,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- mcpSrv.ServeStdio() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("MCP server: %w", err)
		}
	case <-ctx.Done():
		log.Println("[MCP] Shutting down...")
	}
	return nil
}
