package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"whiteboard/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for the whiteboard.
// It exposes tools, resources, and prompts so AI agents can draw and connect
// shapes on pages.
type Server struct {
	mcp     *server.MCPServer
	emitter service.EventEmitter
	layout  *LayoutEngine

	// Services (injected from app layer)
	notebooks *service.NotebookService
	drawings  *service.DrawingService
	janitor   *service.Janitor

	// Active page context (set by set_active_page tool)
	mu           sync.RWMutex
	activePageID string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter   service.EventEmitter
	Notebooks *service.NotebookService
	Drawings  *service.DrawingService
	Janitor   *service.Janitor // optional; repair_drawings is not registered without it
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		emitter:   deps.Emitter,
		layout:    NewLayoutEngine(),
		notebooks: deps.Notebooks,
		drawings:  deps.Drawings,
		janitor:   deps.Janitor,
	}

	s.mcp = server.NewMCPServer(
		"whiteboard-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerNavigationTools()
	s.registerDrawingTools()
	s.registerBindingTools()
	s.registerHistoryTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// setActivePage switches the default page and tells listeners about it.
func (s *Server) setActivePage(ctx context.Context, pageID string) {
	s.mu.Lock()
	s.activePageID = pageID
	s.mu.Unlock()
	if s.emitter != nil {
		s.emitter.Emit(ctx, "mcp:active-page-changed", map[string]string{"pageId": pageID})
	}
}

// resolvePageID returns the pageID from tool args or falls back to activePageID.
func (s *Server) resolvePageID(args map[string]any) (string, error) {
	if pid, ok := args["pageId"].(string); ok && pid != "" {
		return pid, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activePageID != "" {
		return s.activePageID, nil
	}
	return "", fmt.Errorf("no pageId provided and no active page set (use set_active_page first)")
}
