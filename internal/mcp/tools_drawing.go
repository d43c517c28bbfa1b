package mcpserver

import (
	"context"
	"fmt"

	"whiteboard/internal/binding"
	"whiteboard/internal/domain"
	"whiteboard/internal/geometry"
	"whiteboard/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDrawingTools() {
	s.mcp.AddTool(mcp.NewTool("add_drawing_element",
		mcp.WithDescription("Add a shape or text element to the drawing layer. Without x and y it is placed in free space."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("type", mcp.Description("Element type: rectangle, ellipse, diamond, text"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position (optional)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional)")),
		mcp.WithNumber("width", mcp.Description("Width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("Height"), mcp.Required()),
		mcp.WithString("text", mcp.Description("Text content (optional)")),
		mcp.WithString("fillColor", mcp.Description("Fill color hex (optional, e.g. #3b82f6)")),
		mcp.WithString("strokeColor", mcp.Description("Stroke color hex (optional)")),
	), s.handleAddDrawingElement)

	s.mcp.AddTool(mcp.NewTool("draw_shape",
		mcp.WithDescription("Draw a shape the way a pointer drag does, from an origin to a pointer position"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("type", mcp.Description("Element type: rectangle, ellipse, diamond, text"), mcp.Required()),
		mcp.WithNumber("originX", mcp.Description("Drag start X"), mcp.Required()),
		mcp.WithNumber("originY", mcp.Description("Drag start Y"), mcp.Required()),
		mcp.WithNumber("pointerX", mcp.Description("Pointer X"), mcp.Required()),
		mcp.WithNumber("pointerY", mcp.Description("Pointer Y"), mcp.Required()),
		mcp.WithBoolean("square", mcp.Description("Keep width and height equal (shift)")),
		mcp.WithBoolean("fromCenter", mcp.Description("Grow from the origin in both directions (alt)")),
	), s.handleDrawShape)

	s.mcp.AddTool(mcp.NewTool("add_drawing_line",
		mcp.WithDescription("Add a line or arrow through the given points. Each endpoint binds to the shape it lands on, if any."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("points", mcp.Description("JSON array of scene points [[x,y],[x,y],...], at least 2"), mcp.Required()),
		mcp.WithString("type", mcp.Description("line or arrow (default arrow)")),
		mcp.WithString("label", mcp.Description("Label text (optional)")),
		mcp.WithString("strokeColor", mcp.Description("Stroke color hex (optional)")),
	), s.handleAddDrawingLine)

	s.mcp.AddTool(mcp.NewTool("add_drawing_arrow",
		mcp.WithDescription("Add an arrow connecting two shapes. Both ends are bound and follow the shapes when they move."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("fromId", mcp.Description("Source element ID"), mcp.Required()),
		mcp.WithString("toId", mcp.Description("Target element ID"), mcp.Required()),
		mcp.WithString("label", mcp.Description("Arrow label text (optional)")),
	), s.handleAddDrawingArrow)

	s.mcp.AddTool(mcp.NewTool("move_drawing_element",
		mcp.WithDescription("Move a drawing element to new coordinates. Arrows bound to a moved shape follow it."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveDrawingElement)

	s.mcp.AddTool(mcp.NewTool("drag_drawing_elements",
		mcp.WithDescription("Drag a selection so its top-left corner lands on (x, y)"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("Pointer X"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Pointer Y"), mcp.Required()),
	), s.handleDragDrawingElements)

	s.mcp.AddTool(mcp.NewTool("arrange_drawing_elements",
		mcp.WithDescription("Lay shapes out in rows on the grid. Bound arrows follow."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs (optional, defaults to all shapes)")),
		mcp.WithNumber("x", mcp.Description("Start X (default 0)")),
		mcp.WithNumber("y", mcp.Description("Start Y (default 0)")),
	), s.handleArrangeDrawingElements)

	s.mcp.AddTool(mcp.NewTool("move_linear_point",
		mcp.WithDescription("Move one point of a line or arrow. A moved endpoint binds to the shape it lands on."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("elementId", mcp.Description("Line or arrow ID"), mcp.Required()),
		mcp.WithNumber("index", mcp.Description("Point index; 0 is the start, -1 the end"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X in scene coordinates"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y in scene coordinates"), mcp.Required()),
	), s.handleMoveLinearPoint)

	s.mcp.AddTool(mcp.NewTool("delete_drawing_element",
		mcp.WithDescription("Remove a drawing element by ID. Arrows bound to it are detached."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("elementId", mcp.Description("Element ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteDrawingElement)

	s.mcp.AddTool(mcp.NewTool("list_drawing_elements",
		mcp.WithDescription("List all drawing elements on a page with their IDs, types, positions and bindings"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleListDrawingElements)
}

func boolPtr(b bool) *bool { return &b }

// ── Summaries ───────────────────────────────────────────────

type elementSummary struct {
	ID              string               `json:"id"`
	Type            domain.ElementType   `json:"type"`
	X               float64              `json:"x"`
	Y               float64              `json:"y"`
	Width           float64              `json:"width"`
	Height          float64              `json:"height"`
	Text            string               `json:"text,omitempty"`
	Label           string               `json:"label,omitempty"`
	Start           *geometry.Point      `json:"start,omitempty"`
	End             *geometry.Point      `json:"end,omitempty"`
	StartBinding    *domain.PointBinding `json:"startBinding,omitempty"`
	EndBinding      *domain.PointBinding `json:"endBinding,omitempty"`
	BoundElementIDs []string             `json:"boundElementIds,omitempty"`
}

func summarizeElement(el *domain.Element) elementSummary {
	sum := elementSummary{
		ID:              el.ID,
		Type:            el.Type,
		X:               el.X,
		Y:               el.Y,
		Width:           el.Width,
		Height:          el.Height,
		Text:            el.Text,
		Label:           el.Label,
		StartBinding:    el.StartBinding,
		EndBinding:      el.EndBinding,
		BoundElementIDs: el.BoundElementIDs,
	}
	if el.IsLinear() && len(el.Points) > 0 {
		start := binding.PointAtIndexAbsolute(el, 0)
		end := binding.PointAtIndexAbsolute(el, len(el.Points)-1)
		sum.Start, sum.End = &start, &end
	}
	return sum
}

func summarizeElements(elements []*domain.Element) []elementSummary {
	out := make([]elementSummary, len(elements))
	for i, el := range elements {
		out[i] = summarizeElement(el)
	}
	return out
}

type moveResult struct {
	Moved   []string `json:"moved"`
	Updated int      `json:"boundEndpointsUpdated"`
	Skipped int      `json:"boundEndpointsSkipped,omitempty"`
}

// ── Handlers ────────────────────────────────────────────────

func (s *Server) handleAddDrawingElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	typ, err := requireString(args, "type")
	if err != nil {
		return nil, err
	}
	in := service.ShapeInput{
		Type:            domain.ElementType(typ),
		Text:            req.GetString("text", ""),
		BackgroundColor: req.GetString("fillColor", ""),
		StrokeColor:     req.GetString("strokeColor", ""),
	}
	if in.Width, err = requireNumber(args, "width"); err != nil {
		return nil, err
	}
	if in.Height, err = requireNumber(args, "height"); err != nil {
		return nil, err
	}

	x, hasX := number(args, "x")
	y, hasY := number(args, "y")
	if !hasX || !hasY {
		existing, err := s.drawings.ListElements(pageID)
		if err != nil {
			return nil, err
		}
		x, y = s.layout.NextPosition(existing, in.Width, in.Height)
	}
	in.X, in.Y = x, y

	el, err := s.drawings.AddShape(ctx, pageID, in)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeElement(el))
}

func (s *Server) handleDrawShape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	typ, err := requireString(args, "type")
	if err != nil {
		return nil, err
	}
	var coords [4]float64
	for i, key := range []string{"originX", "originY", "pointerX", "pointerY"} {
		if coords[i], err = requireNumber(args, key); err != nil {
			return nil, err
		}
	}
	el, err := s.drawings.DrawShape(ctx, pageID, domain.ElementType(typ),
		geometry.Pt(coords[0], coords[1]), geometry.Pt(coords[2], coords[3]),
		req.GetBool("square", false), req.GetBool("fromCenter", false))
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeElement(el))
}

func (s *Server) handleAddDrawingLine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	raw, err := requireString(args, "points")
	if err != nil {
		return nil, err
	}
	points, err := parsePoints(raw)
	if err != nil {
		return nil, err
	}
	el, err := s.drawings.AddLinear(ctx, pageID, service.LinearInput{
		Type:        domain.ElementType(req.GetString("type", "")),
		Points:      points,
		Label:       req.GetString("label", ""),
		StrokeColor: req.GetString("strokeColor", ""),
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeElement(el))
}

func (s *Server) handleAddDrawingArrow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	fromID, err := requireString(args, "fromId")
	if err != nil {
		return nil, err
	}
	toID, err := requireString(args, "toId")
	if err != nil {
		return nil, err
	}
	arrow, err := s.drawings.ConnectElements(ctx, pageID, fromID, toID, req.GetString("label", ""))
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeElement(arrow))
}

func (s *Server) handleMoveDrawingElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	elementID, err := requireString(args, "elementId")
	if err != nil {
		return nil, err
	}
	x, err := requireNumber(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := requireNumber(args, "y")
	if err != nil {
		return nil, err
	}
	res, err := s.drawings.MoveElement(ctx, pageID, elementID, x, y)
	if err != nil {
		return nil, err
	}
	return jsonResult(moveResult{Moved: []string{elementID}, Updated: res.Updated, Skipped: res.Skipped})
}

func (s *Server) handleDragDrawingElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	raw, err := requireString(args, "elementIds")
	if err != nil {
		return nil, err
	}
	x, err := requireNumber(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := requireNumber(args, "y")
	if err != nil {
		return nil, err
	}
	ids := splitIDs(raw)
	res, err := s.drawings.DragElements(ctx, pageID, ids, geometry.Pt(x, y))
	if err != nil {
		return nil, err
	}
	return jsonResult(moveResult{Moved: ids, Updated: res.Updated, Skipped: res.Skipped})
}

func (s *Server) handleArrangeDrawingElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	elements, err := s.drawings.ListElements(pageID)
	if err != nil {
		return nil, err
	}
	if raw := req.GetString("elementIds", ""); raw != "" {
		want := make(map[string]bool)
		for _, id := range splitIDs(raw) {
			want[id] = true
		}
		var picked []*domain.Element
		for _, el := range elements {
			if want[el.ID] {
				picked = append(picked, el)
			}
		}
		elements = picked
	}
	x, _ := number(args, "x")
	y, _ := number(args, "y")

	moves := s.layout.ArrangeGroup(elements, x, y)
	if len(moves) == 0 {
		return textResult("Nothing to arrange"), nil
	}
	res, err := s.drawings.MoveElements(ctx, pageID, "arrange", moves)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(moves))
	for i, m := range moves {
		ids[i] = m.ID
	}
	return jsonResult(moveResult{Moved: ids, Updated: res.Updated, Skipped: res.Skipped})
}

func (s *Server) handleMoveLinearPoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	elementID, err := requireString(args, "elementId")
	if err != nil {
		return nil, err
	}
	idx, err := requireNumber(args, "index")
	if err != nil {
		return nil, err
	}
	x, err := requireNumber(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := requireNumber(args, "y")
	if err != nil {
		return nil, err
	}

	index := int(idx)
	if index < 0 {
		el, err := s.drawings.GetElement(pageID, elementID)
		if err != nil {
			return nil, err
		}
		index += len(el.Points)
	}
	if err := s.drawings.MoveLinearPoint(ctx, pageID, elementID, index, geometry.Pt(x, y)); err != nil {
		return nil, err
	}
	el, err := s.drawings.GetElement(pageID, elementID)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeElement(el))
}

func (s *Server) handleDeleteDrawingElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	elementID, err := requireString(args, "elementId")
	if err != nil {
		return nil, err
	}
	if err := s.drawings.DeleteElement(ctx, pageID, elementID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Element %s deleted", elementID)), nil
}

func (s *Server) handleListDrawingElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	elements, err := s.drawings.ListElements(pageID)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeElements(elements))
}
