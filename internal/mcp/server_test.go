package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard/internal/service"
	"whiteboard/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "whiteboard.db"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewNotebookStore(db)
	undos := storage.NewUndoStore(db, 40)
	emitter := &service.MockEmitter{}
	drawings := service.NewDrawingService(store, undos, emitter, 0)
	return New(Deps{
		Emitter:   emitter,
		Notebooks: service.NewNotebookService(store, emitter),
		Drawings:  drawings,
		Janitor:   service.NewJanitor(store, drawings, undos, ""),
	})
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) string {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestServer_DiagramFlow(t *testing.T) {
	s := newTestServer(t)

	nb := decode[struct{ ID string }](t, call(t, s.handleCreateNotebook, map[string]any{"name": "Arch"}))
	page := decode[struct{ ID string }](t, call(t, s.handleCreatePage, map[string]any{"notebookId": nb.ID, "name": "System"}))
	require.NotEmpty(t, page.ID)

	api := decode[elementSummary](t, call(t, s.handleAddDrawingElement, map[string]any{
		"type": "rectangle", "x": 0.0, "y": 0.0, "width": 100.0, "height": 100.0, "text": "API",
	}))
	db := decode[elementSummary](t, call(t, s.handleAddDrawingElement, map[string]any{
		"type": "rectangle", "width": 100.0, "height": 100.0, "text": "DB",
	}))
	assert.NotEqual(t, api.X, db.X, "auto placement avoids the first shape")

	arrow := decode[elementSummary](t, call(t, s.handleAddDrawingArrow, map[string]any{
		"fromId": api.ID, "toId": db.ID, "label": "reads",
	}))
	require.NotNil(t, arrow.StartBinding)
	require.NotNil(t, arrow.EndBinding)
	assert.Equal(t, api.ID, arrow.StartBinding.ElementID)

	moved := decode[moveResult](t, call(t, s.handleMoveDrawingElement, map[string]any{
		"elementId": api.ID, "x": 0.0, "y": 30.0,
	}))
	assert.Equal(t, 1, moved.Updated+moved.Skipped)

	list := decode[[]elementSummary](t, call(t, s.handleListDrawingElements, nil))
	assert.Len(t, list, 3)

	call(t, s.handleUnbindArrowEndpoint, map[string]any{"arrowId": arrow.ID, "endpoint": "end"})
	rep := decode[struct {
		Pages int `json:"pages"`
	}](t, call(t, s.handleRepairDrawings, nil))
	assert.Equal(t, 1, rep.Pages)

	call(t, s.handleUndoDrawing, nil)
	list = decode[[]elementSummary](t, call(t, s.handleListDrawingElements, nil))
	for _, el := range list {
		if el.ID == arrow.ID {
			assert.NotNil(t, el.EndBinding, "undo restores the binding")
		}
	}
}

func TestServer_RequiresPage(t *testing.T) {
	s := newTestServer(t)
	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"type": "rectangle", "width": 10.0, "height": 10.0}
	_, err := s.handleAddDrawingElement(context.Background(), req)
	assert.Error(t, err)
}

func TestExtractPageIDFromURI(t *testing.T) {
	assert.Equal(t, "abc-123", extractPageIDFromURI("whiteboard://page/abc-123/elements"))
	assert.Equal(t, "", extractPageIDFromURI("whiteboard://page/abc-123"))
	assert.Equal(t, "", extractPageIDFromURI("notes://page/abc/blocks"))
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitIDs(" a, ,b,"))
	assert.Nil(t, splitIDs(""))
}
