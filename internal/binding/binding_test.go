package binding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard/internal/binding"
	"whiteboard/internal/domain"
	"whiteboard/internal/geometry"
	"whiteboard/internal/scene"
)

func rectangle(id string, x, y float64) *domain.Element {
	return &domain.Element{ID: id, Type: domain.ElementTypeRectangle, X: x, Y: y, Width: 100, Height: 100, Version: 1}
}

// arrow builds an arrow through the given scene points.
func arrow(id string, points ...geometry.Point) *domain.Element {
	el := &domain.Element{ID: id, Type: domain.ElementTypeArrow, X: points[0].X(), Y: points[0].Y(), Version: 1}
	for _, p := range points {
		el.Points = append(el.Points, p.Sub(points[0]))
	}
	return el
}

func bound(linear *domain.Element, end domain.Endpoint, target *domain.Element, focus geometry.Point, gap float64) {
	b := &domain.PointBinding{ElementID: target.ID, FocusPoint: focus, Gap: gap}
	if end == domain.EndpointStart {
		linear.StartBinding = b
	} else {
		linear.EndBinding = b
	}
	target.BoundElementIDs = append(target.BoundElementIDs, linear.ID)
}

func newEngine(elements ...*domain.Element) *binding.Engine {
	s := scene.New(elements)
	return binding.New(s, s)
}

func start(el *domain.Element) geometry.Point { return binding.PointAtIndexAbsolute(el, 0) }
func end(el *domain.Element) geometry.Point {
	return binding.PointAtIndexAbsolute(el, len(el.Points)-1)
}

func assertPoint(t *testing.T, want, got geometry.Point) {
	t.Helper()
	assert.InDelta(t, want.X(), got.X(), 1e-6, "x")
	assert.InDelta(t, want.Y(), got.Y(), 1e-6, "y")
}

// ── Binding Resolver ───────────────────────────────────────

func TestResolveBindingTarget_NearOutline(t *testing.T) {
	r := rectangle("r", 0, 0)
	e := newEngine(r)

	assert.Equal(t, r, e.ResolveBindingTarget(geometry.Pt(105, 50), binding.AppState{Zoom: 1}))
	assert.Equal(t, r, e.ResolveBindingTarget(geometry.Pt(96, 50), binding.AppState{Zoom: 1}))
	assert.Nil(t, e.ResolveBindingTarget(geometry.Pt(50, 50), binding.AppState{Zoom: 1}), "deep inside is not a border hit")
	assert.Nil(t, e.ResolveBindingTarget(geometry.Pt(200, 50), binding.AppState{Zoom: 1}))
}

func TestResolveBindingTarget_ToleranceFollowsZoom(t *testing.T) {
	r := rectangle("r", 0, 0)
	e := newEngine(r)
	p := geometry.Pt(115, 50)

	assert.Nil(t, e.ResolveBindingTarget(p, binding.AppState{Zoom: 1}))
	assert.Equal(t, r, e.ResolveBindingTarget(p, binding.AppState{Zoom: 0.5}))
	assert.Nil(t, e.ResolveBindingTarget(geometry.Pt(106, 50), binding.AppState{Zoom: 2}))
}

func TestResolveBindingTarget_TopmostBindableWins(t *testing.T) {
	bottom := rectangle("bottom", 0, 0)
	top := rectangle("top", 0, 0)
	label := &domain.Element{ID: "label", Type: domain.ElementTypeText, X: 0, Y: 0, Width: 100, Height: 100}
	line := arrow("line", geometry.Pt(100, 0), geometry.Pt(100, 100))
	e := newEngine(bottom, top, label, line)

	got := e.ResolveBindingTarget(geometry.Pt(100, 50), binding.AppState{})
	require.NotNil(t, got)
	assert.Equal(t, "top", got.ID)
}

// ── Bind Operation ─────────────────────────────────────────

func TestBind_BidirectionalConsistency(t *testing.T) {
	r := rectangle("r", 0, 0)
	a := arrow("a", geometry.Pt(110, 50), geometry.Pt(250, 50))
	e := newEngine(r, a)

	got := e.Bind(a, domain.EndpointStart, binding.AppState{Zoom: 1}, geometry.Pt(110, 50))

	require.Equal(t, r, got)
	require.NotNil(t, a.StartBinding)
	assert.Equal(t, "r", a.StartBinding.ElementID)
	assert.Nil(t, a.EndBinding)
	assert.Contains(t, r.BoundElementIDs, "a")

	assertPoint(t, geometry.Pt(50, 50), a.StartBinding.FocusPoint)
	assert.InDelta(t, 10, a.StartBinding.Gap, 1e-9)
}

func TestBind_Idempotent(t *testing.T) {
	r := rectangle("r", 0, 0)
	a := arrow("a", geometry.Pt(110, 50), geometry.Pt(250, 50))
	e := newEngine(r, a)

	e.Bind(a, domain.EndpointStart, binding.AppState{}, geometry.Pt(110, 50))
	e.Bind(a, domain.EndpointStart, binding.AppState{}, geometry.Pt(110, 50))

	assert.Equal(t, []string{"a"}, r.BoundElementIDs)
}

func TestBind_NoCandidateLeavesSceneUntouched(t *testing.T) {
	r := rectangle("r", 0, 0)
	a := arrow("a", geometry.Pt(300, 50), geometry.Pt(400, 50))
	e := newEngine(r, a)

	got := e.Bind(a, domain.EndpointStart, binding.AppState{}, geometry.Pt(300, 50))

	assert.Nil(t, got)
	assert.Nil(t, a.StartBinding)
	assert.Empty(t, r.BoundElementIDs)
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, 1, r.Version)
}

func TestBind_RejectsNonLinear(t *testing.T) {
	r := rectangle("r", 0, 0)
	other := rectangle("other", 105, 0)
	e := newEngine(r, other)

	assert.Nil(t, e.Bind(other, domain.EndpointStart, binding.AppState{}, geometry.Pt(100, 50)))
	assert.Empty(t, r.BoundElementIDs)
}

func TestBind_LineNotPointingIntoShapeIsSimple(t *testing.T) {
	r := rectangle("r", 0, 0)
	// runs along the right edge, never entering the rectangle
	a := arrow("a", geometry.Pt(104, 50), geometry.Pt(104, 300))
	e := newEngine(r, a)

	require.NotNil(t, e.Bind(a, domain.EndpointStart, binding.AppState{}, geometry.Pt(104, 50)))
	assert.Equal(t, 0.0, a.StartBinding.Gap)
}

func TestBind_EndpointsAreIndependent(t *testing.T) {
	left := rectangle("left", 0, 0)
	right := rectangle("right", 400, 0)
	a := arrow("a", geometry.Pt(110, 50), geometry.Pt(390, 50))
	e := newEngine(left, right, a)

	e.MaybeBindLinearElement(a, binding.AppState{StartBoundElement: left}, geometry.Pt(390, 50))

	require.NotNil(t, a.StartBinding)
	require.NotNil(t, a.EndBinding)
	assert.Equal(t, "left", a.StartBinding.ElementID)
	assert.Equal(t, "right", a.EndBinding.ElementID)
	assert.Equal(t, []string{"a"}, left.BoundElementIDs)
	assert.Equal(t, []string{"a"}, right.BoundElementIDs)
	assertPoint(t, geometry.Pt(50, 50), a.EndBinding.FocusPoint)
}

func TestMaybeBindLinearElement_NothingHovered(t *testing.T) {
	left := rectangle("left", 0, 0)
	a := arrow("a", geometry.Pt(110, 50), geometry.Pt(390, 50))
	e := newEngine(left, a)

	e.MaybeBindLinearElement(a, binding.AppState{StartBoundElement: left}, geometry.Pt(390, 50))

	require.NotNil(t, a.StartBinding)
	assert.Nil(t, a.EndBinding)
}
