package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"whiteboard/internal/binding"
	"whiteboard/internal/domain"
	"whiteboard/internal/geometry"
	"whiteboard/internal/scene"
	"whiteboard/internal/storage"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrNotLinear       = errors.New("element is not a line or arrow")
	ErrNotBindable     = errors.New("element cannot be bound to")
	ErrEmptyShape      = errors.New("shape has no area")
)

// ─────────────────────────────────────────────────────────────
// Drawing Service - element edits with binding upkeep
// ─────────────────────────────────────────────────────────────

// DrawingService edits the drawing layer of pages. Every operation loads the
// page's scene, runs through the binding engine, and commits the result:
// drawing data is stored, an undo snapshot is pushed and a
// EventDrawingChanged is emitted. Operations that change nothing commit
// nothing.
type DrawingService struct {
	store     *storage.NotebookStore
	undos     *storage.UndoStore
	emitter   EventEmitter
	threshold float64

	// Edits are serialized; the engine assumes a single writer per scene.
	mu sync.Mutex
}

// NewDrawingService creates a DrawingService. threshold is the binding
// distance at zoom 1; values <= 0 use binding.DefaultThreshold.
func NewDrawingService(
	store *storage.NotebookStore,
	undos *storage.UndoStore,
	emitter EventEmitter,
	threshold float64,
) *DrawingService {
	if threshold <= 0 {
		threshold = binding.DefaultThreshold
	}
	return &DrawingService{
		store:     store,
		undos:     undos,
		emitter:   emitter,
		threshold: threshold,
	}
}

// editor is the per-operation view of one page.
type editor struct {
	page   *domain.Page
	scene  *scene.Scene
	engine *binding.Engine
	state  binding.AppState
}

// element returns the live element id or ErrElementNotFound.
func (ed *editor) element(id string) (*domain.Element, error) {
	el := ed.scene.ElementByID(id)
	if el == nil || el.IsDeleted {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	return el, nil
}

func (ed *editor) linear(id string) (*domain.Element, error) {
	el, err := ed.element(id)
	if err != nil {
		return nil, err
	}
	if !el.IsLinear() {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotLinear, id, el.Type)
	}
	return el, nil
}

func (ed *editor) bindable(id string) (*domain.Element, error) {
	el, err := ed.element(id)
	if err != nil {
		return nil, err
	}
	if !el.IsBindable() {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotBindable, id, el.Type)
	}
	return el, nil
}

// rebind drops the binding of linear's endpoint and binds it again to whatever
// shape is now under it.
func (ed *editor) rebind(linear *domain.Element, end domain.Endpoint) {
	ed.engine.UnbindLinearElement(linear, end)
	i := 0
	if end == domain.EndpointEnd {
		i = len(linear.Points) - 1
	}
	ed.engine.Bind(linear, end, ed.state, binding.PointAtIndexAbsolute(linear, i))
}

func (s *DrawingService) load(pageID string) (*editor, error) {
	page, err := s.store.GetPage(pageID)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", pageID, err)
	}
	sc, err := scene.Load(page.DrawingData)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", pageID, err)
	}
	return &editor{
		page:   page,
		scene:  sc,
		engine: binding.New(sc, sc, binding.WithThreshold(s.threshold)),
		state:  binding.AppState{Zoom: page.ViewportZoom},
	}, nil
}

// edit runs fn against the page and commits whatever it changed.
func (s *DrawingService) edit(ctx context.Context, pageID, label string, fn func(ed *editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ed, err := s.load(pageID)
	if err != nil {
		return err
	}
	if err := fn(ed); err != nil {
		return err
	}
	changed := ed.scene.Dirty()
	if len(changed) == 0 {
		return nil
	}
	data, err := ed.scene.Marshal()
	if err != nil {
		return fmt.Errorf("marshal drawing: %w", err)
	}
	return s.commit(ctx, ed.page, label, data, changed)
}

func (s *DrawingService) commit(ctx context.Context, page *domain.Page, label, data string, changed []string) error {
	// The first change of a page keeps the prior drawing as the history root.
	cur, err := s.undos.Current(page.ID)
	if err != nil {
		return err
	}
	if cur == "" {
		if _, err := s.undos.Push(page.ID, "initial", normalizeDrawing(page.DrawingData)); err != nil {
			return fmt.Errorf("push undo: %w", err)
		}
	}

	if err := s.store.UpdateDrawingData(page.ID, data); err != nil {
		return err
	}
	if _, err := s.undos.Push(page.ID, label, data); err != nil {
		return fmt.Errorf("push undo: %w", err)
	}
	s.emitter.Emit(ctx, EventDrawingChanged, DrawingChanged{
		PageID:  page.ID,
		Label:   label,
		Changed: changed,
		Data:    data,
	})
	return nil
}

func normalizeDrawing(data string) string {
	if data == "" {
		return "[]"
	}
	return data
}

func logSkipped(pageID string, res binding.Result) {
	if res.Skipped > 0 {
		log.Printf("drawing: page %s: %d bound endpoint(s) kept their position, no outline intersection", pageID, res.Skipped)
	}
}

// ── Reads ──────────────────────────────────────────────────

// ListElements returns the page's live elements in draw order.
func (s *DrawingService) ListElements(pageID string) ([]*domain.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ed, err := s.load(pageID)
	if err != nil {
		return nil, err
	}
	return ed.scene.NonDeletedElements(), nil
}

// GetElement returns one live element of the page.
func (s *DrawingService) GetElement(pageID, id string) (*domain.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ed, err := s.load(pageID)
	if err != nil {
		return nil, err
	}
	return ed.element(id)
}

// ExportScene returns the page's drawing data as stored, deleted elements
// included.
func (s *DrawingService) ExportScene(pageID string) (string, error) {
	page, err := s.store.GetPage(pageID)
	if err != nil {
		return "", fmt.Errorf("load page %s: %w", pageID, err)
	}
	return normalizeDrawing(page.DrawingData), nil
}

// ── Creation ───────────────────────────────────────────────

// ShapeInput describes a new non-linear element.
type ShapeInput struct {
	Type            domain.ElementType `json:"type"`
	X               float64            `json:"x"`
	Y               float64            `json:"y"`
	Width           float64            `json:"width"`
	Height          float64            `json:"height"`
	Text            string             `json:"text,omitempty"`
	StrokeColor     string             `json:"strokeColor,omitempty"`
	BackgroundColor string             `json:"backgroundColor,omitempty"`
}

func newElement(t domain.ElementType, stroke, background string) *domain.Element {
	if stroke == "" {
		stroke = "#1e1e1e"
	}
	if background == "" {
		background = "transparent"
	}
	return &domain.Element{
		ID:              uuid.New().String(),
		Type:            t,
		StrokeColor:     stroke,
		StrokeWidth:     2,
		BackgroundColor: background,
		Version:         1,
	}
}

func validShapeType(t domain.ElementType) error {
	switch t {
	case domain.ElementTypeRectangle, domain.ElementTypeEllipse, domain.ElementTypeDiamond, domain.ElementTypeText:
		return nil
	}
	return fmt.Errorf("unsupported shape type %q", t)
}

// AddShape appends a shape or text element on top of the page.
func (s *DrawingService) AddShape(ctx context.Context, pageID string, in ShapeInput) (*domain.Element, error) {
	if err := validShapeType(in.Type); err != nil {
		return nil, err
	}
	if in.Width <= 0 || in.Height <= 0 {
		return nil, fmt.Errorf("%w: %vx%v", ErrEmptyShape, in.Width, in.Height)
	}
	el := newElement(in.Type, in.StrokeColor, in.BackgroundColor)
	el.X, el.Y = in.X, in.Y
	el.Width, el.Height = in.Width, in.Height
	el.Text = in.Text

	err := s.edit(ctx, pageID, "add "+string(in.Type), func(ed *editor) error {
		return ed.scene.Add(el)
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// DrawShape creates a shape the way a pointer drag does: from origin toward
// pointer, optionally square and centered on origin.
func (s *DrawingService) DrawShape(
	ctx context.Context,
	pageID string,
	t domain.ElementType,
	origin, pointer geometry.Point,
	square, fromCenter bool,
) (*domain.Element, error) {
	if err := validShapeType(t); err != nil {
		return nil, err
	}
	el := newElement(t, "", "")
	el.X, el.Y = origin.X(), origin.Y()

	err := s.edit(ctx, pageID, "draw "+string(t), func(ed *editor) error {
		if err := ed.scene.Add(el); err != nil {
			return err
		}
		ed.engine.DragNewElement(el, origin, pointer, square, fromCenter)
		if el.Width == 0 || el.Height == 0 {
			return ErrEmptyShape
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// LinearInput describes a new line or arrow by its points in scene
// coordinates.
type LinearInput struct {
	Type        domain.ElementType `json:"type"`
	Points      []geometry.Point   `json:"points"`
	Label       string             `json:"label,omitempty"`
	StrokeColor string             `json:"strokeColor,omitempty"`
}

// AddLinear adds a line or arrow. Its start binds to the shape under the first
// point and its end to the shape under the last point, each when there is one.
func (s *DrawingService) AddLinear(ctx context.Context, pageID string, in LinearInput) (*domain.Element, error) {
	if in.Type == "" {
		in.Type = domain.ElementTypeArrow
	}
	if in.Type != domain.ElementTypeArrow && in.Type != domain.ElementTypeLine {
		return nil, fmt.Errorf("%w: %s", ErrNotLinear, in.Type)
	}
	if len(in.Points) < 2 {
		return nil, fmt.Errorf("a %s needs at least 2 points, got %d", in.Type, len(in.Points))
	}
	el := newLinear(in.Type, in.Points, in.StrokeColor)
	el.Label = in.Label

	err := s.edit(ctx, pageID, "add "+string(in.Type), func(ed *editor) error {
		if err := ed.scene.Add(el); err != nil {
			return err
		}
		state := ed.state
		state.StartBoundElement = ed.engine.ResolveBindingTarget(in.Points[0], ed.state)
		ed.engine.MaybeBindLinearElement(el, state, in.Points[len(in.Points)-1])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

func newLinear(t domain.ElementType, points []geometry.Point, stroke string) *domain.Element {
	el := newElement(t, stroke, "")
	origin := points[0]
	el.X, el.Y = origin.X(), origin.Y()
	for _, p := range points {
		el.Points = append(el.Points, p.Sub(origin))
	}
	lo, hi := geometry.Bounds(el.Points)
	el.Width, el.Height = hi.X()-lo.X(), hi.Y()-lo.Y()
	return el
}

// ConnectElements adds an arrow from one shape to another, leaving the arrow
// a small gap off both outlines, and binds both ends.
func (s *DrawingService) ConnectElements(ctx context.Context, pageID, fromID, toID, label string) (*domain.Element, error) {
	if fromID == toID {
		return nil, fmt.Errorf("cannot connect %s to itself", fromID)
	}
	var arrow *domain.Element
	err := s.edit(ctx, pageID, "connect", func(ed *editor) error {
		from, err := ed.bindable(fromID)
		if err != nil {
			return err
		}
		to, err := ed.bindable(toID)
		if err != nil {
			return err
		}
		start, end := anchorPoints(from, to, ed.engine.Tolerance(ed.state)/2)
		arrow = newLinear(domain.ElementTypeArrow, []geometry.Point{start, end}, "")
		arrow.Label = label
		if err := ed.scene.Add(arrow); err != nil {
			return err
		}
		ed.engine.BindLinearElement(arrow, from, domain.EndpointStart, ed.state)
		ed.engine.BindLinearElement(arrow, to, domain.EndpointEnd, ed.state)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return arrow, nil
}

// ── Moves ──────────────────────────────────────────────────

// MoveElement moves an element to (x, y). Lines and arrows bound to a moved
// shape follow it. A moved line or arrow is rebound to whatever shapes its
// endpoints land on.
func (s *DrawingService) MoveElement(ctx context.Context, pageID, id string, x, y float64) (binding.Result, error) {
	return s.MoveElements(ctx, pageID, "move", []Move{{ID: id, X: x, Y: y}})
}

// Move places one element's top-left corner at (X, Y).
type Move struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// MoveElements applies moves in order as a single undo step.
func (s *DrawingService) MoveElements(ctx context.Context, pageID, label string, moves []Move) (binding.Result, error) {
	var res binding.Result
	err := s.edit(ctx, pageID, label, func(ed *editor) error {
		for _, m := range moves {
			el, err := ed.element(m.ID)
			if err != nil {
				return err
			}
			r := ed.engine.MoveElement(el, m.X, m.Y)
			res.Updated += r.Updated
			res.Skipped += r.Skipped
			if el.IsLinear() && len(el.Points) > 0 {
				ed.rebind(el, domain.EndpointStart)
				ed.rebind(el, domain.EndpointEnd)
			}
		}
		return nil
	})
	logSkipped(pageID, res)
	return res, err
}

// DragElements moves a selection so its common top-left corner lands on
// pointer.
func (s *DrawingService) DragElements(ctx context.Context, pageID string, ids []string, pointer geometry.Point) (binding.Result, error) {
	var res binding.Result
	if len(ids) == 0 {
		return res, nil
	}
	err := s.edit(ctx, pageID, "drag", func(ed *editor) error {
		selected := make([]*domain.Element, 0, len(ids))
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			el, err := ed.element(id)
			if err != nil {
				return err
			}
			selected = append(selected, el)
		}
		res = ed.engine.DragSelectedElements(selected, pointer)
		return nil
	})
	logSkipped(pageID, res)
	return res, err
}

// MoveLinearPoint moves point index of a line or arrow to pos. Moving an
// endpoint rebinds it to the shape under pos, if any.
func (s *DrawingService) MoveLinearPoint(ctx context.Context, pageID, id string, index int, pos geometry.Point) error {
	return s.edit(ctx, pageID, "edit points", func(ed *editor) error {
		el, err := ed.linear(id)
		if err != nil {
			return err
		}
		if !ed.engine.MoveLinearPoint(el, index, pos) {
			return fmt.Errorf("point %d out of range for %s with %d points", index, id, len(el.Points))
		}
		if end, ok := binding.EndpointAt(el, index); ok {
			ed.rebind(el, end)
		}
		return nil
	})
}

// ── Bindings ───────────────────────────────────────────────

// BindEndpoint binds one end of a line or arrow. With an empty targetID the
// shape under the endpoint is used; the returned element is the new target,
// or nil when there was none.
func (s *DrawingService) BindEndpoint(ctx context.Context, pageID, linearID string, end domain.Endpoint, targetID string) (*domain.Element, error) {
	if end != domain.EndpointStart && end != domain.EndpointEnd {
		return nil, fmt.Errorf("endpoint must be %q or %q, got %q", domain.EndpointStart, domain.EndpointEnd, end)
	}
	var target *domain.Element
	err := s.edit(ctx, pageID, "bind", func(ed *editor) error {
		linear, err := ed.linear(linearID)
		if err != nil {
			return err
		}
		if targetID == "" {
			i := 0
			if end == domain.EndpointEnd {
				i = len(linear.Points) - 1
			}
			target = ed.engine.Bind(linear, end, ed.state, binding.PointAtIndexAbsolute(linear, i))
			return nil
		}
		t, err := ed.bindable(targetID)
		if err != nil {
			return err
		}
		if ed.engine.BindLinearElement(linear, t, end, ed.state) {
			target = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// UnbindEndpoint detaches one end of a line or arrow.
func (s *DrawingService) UnbindEndpoint(ctx context.Context, pageID, linearID string, end domain.Endpoint) error {
	return s.edit(ctx, pageID, "unbind", func(ed *editor) error {
		linear, err := ed.linear(linearID)
		if err != nil {
			return err
		}
		ed.engine.UnbindLinearElement(linear, end)
		return nil
	})
}

// ── Deletion ───────────────────────────────────────────────

// DeleteElement marks an element deleted and detaches every binding that
// involves it.
func (s *DrawingService) DeleteElement(ctx context.Context, pageID, id string) error {
	return s.edit(ctx, pageID, "delete", func(ed *editor) error {
		el, err := ed.element(id)
		if err != nil {
			return err
		}
		if el.IsLinear() {
			ed.engine.UnbindLinearElement(el, domain.EndpointStart)
			ed.engine.UnbindLinearElement(el, domain.EndpointEnd)
		}
		for _, linear := range ed.scene.NonDeletedElementsByIDs(el.BoundElementIDs) {
			for _, end := range []domain.Endpoint{domain.EndpointStart, domain.EndpointEnd} {
				if b := linear.Binding(end); b != nil && b.ElementID == el.ID {
					ed.engine.UnbindLinearElement(linear, end)
				}
			}
		}
		patch := domain.Patch{IsDeleted: domain.Bool(true)}
		if len(el.BoundElementIDs) > 0 {
			patch.BoundElementIDs = []string{}
		}
		ed.scene.Mutate(el, patch)
		return nil
	})
}

// ── History & integrity ────────────────────────────────────

// Undo restores the drawing before the page's last committed operation.
func (s *DrawingService) Undo(ctx context.Context, pageID string) error {
	return s.travel(ctx, pageID, "undo", s.undos.Undo)
}

// Redo re-applies the most recently undone operation.
func (s *DrawingService) Redo(ctx context.Context, pageID string) error {
	return s.travel(ctx, pageID, "redo", s.undos.Redo)
}

func (s *DrawingService) travel(ctx context.Context, pageID, label string, move func(pageID string) (*storage.UndoNode, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := move(pageID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateDrawingData(pageID, node.SnapshotJSON); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventDrawingChanged, DrawingChanged{
		PageID: pageID,
		Label:  label,
		Data:   node.SnapshotJSON,
	})
	return nil
}

// ImportScene replaces the page's drawing with data, a JSON element array.
// Broken bindings in data are repaired on the way in. Importing the drawing
// the page already has is a no-op.
func (s *DrawingService) ImportScene(ctx context.Context, pageID, data string) error {
	sc, err := scene.Load(data)
	if err != nil {
		return err
	}
	binding.New(sc, sc, binding.WithThreshold(s.threshold)).Repair(sc.Elements())
	normalized, err := sc.Marshal()
	if err != nil {
		return fmt.Errorf("marshal drawing: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.store.GetPage(pageID)
	if err != nil {
		return fmt.Errorf("load page %s: %w", pageID, err)
	}
	if normalizeDrawing(page.DrawingData) == normalized {
		return nil
	}
	ids := make([]string, 0, len(sc.Elements()))
	for _, el := range sc.Elements() {
		ids = append(ids, el.ID)
	}
	return s.commit(ctx, page, "import", normalized, ids)
}

// Repair fixes one-sided or dangling bindings on the page.
func (s *DrawingService) Repair(ctx context.Context, pageID string) (binding.RepairReport, error) {
	var rep binding.RepairReport
	err := s.edit(ctx, pageID, "repair", func(ed *editor) error {
		rep = ed.engine.Repair(ed.scene.Elements())
		return nil
	})
	return rep, err
}
