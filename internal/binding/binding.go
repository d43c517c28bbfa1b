// Package binding attaches the endpoints of lines and arrows to shapes and
// keeps attached endpoints on the shape's boundary when the shape moves.
//
// The engine never reads or writes elements behind the caller's back: it
// resolves elements through a SceneIndex, changes them only through a
// Mutator, and delegates all intersection and distance math to a Geometry.
package binding

import (
	"math"

	"whiteboard/internal/domain"
	"whiteboard/internal/geometry"
)

// DefaultThreshold is the on-screen distance, in scene units at zoom 1, within
// which a pointer near a shape's outline binds to it.
const DefaultThreshold = 10.0

// SceneIndex resolves elements of the scene the engine operates on.
type SceneIndex interface {
	ElementByID(id string) *domain.Element
	NonDeletedElementsByIDs(ids []string) []*domain.Element
	// ElementAtPosition returns the topmost live element accepted by hit.
	ElementAtPosition(p geometry.Point, hit func(el *domain.Element, p geometry.Point) bool) *domain.Element
}

// Mutator is the single write path for element fields.
type Mutator interface {
	Mutate(el *domain.Element, patch domain.Patch)
}

// Geometry provides the primitives the engine orchestrates.
type Geometry interface {
	// IntersectShapeWithSegment intersects the line through a and b with the
	// outline of s.
	IntersectShapeWithSegment(s geometry.Shape, a, b geometry.Point) []geometry.Point
	Distance(a, b geometry.Point) float64
	// TranslateAlongLine moves p by distance toward the given point.
	TranslateAlongLine(p geometry.Point, distance float64, toward geometry.Point) geometry.Point
	IsNearBoundary(s geometry.Shape, p geometry.Point, tolerance float64) bool
}

// AppState is the editor state the engine needs from the host.
type AppState struct {
	// Zoom is the viewport zoom; the binding tolerance is divided by it so the
	// acceptance band has a constant on-screen width. Values <= 0 mean 1.
	Zoom float64
	// StartBoundElement is the bindable element that was under the pointer
	// when the linear element was started.
	StartBoundElement *domain.Element
}

func (s AppState) zoom() float64 {
	if s.Zoom <= 0 {
		return 1
	}
	return s.Zoom
}

// Engine binds linear elements to shapes of one scene.
type Engine struct {
	scene     SceneIndex
	mutator   Mutator
	geo       Geometry
	threshold float64
}

type Option func(*Engine)

// WithGeometry replaces the default geometry primitives.
func WithGeometry(g Geometry) Option {
	return func(e *Engine) { e.geo = g }
}

// WithThreshold sets the binding threshold at zoom 1.
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		if t > 0 {
			e.threshold = t
		}
	}
}

// New creates an Engine over scene, writing through mutator.
func New(scene SceneIndex, mutator Mutator, opts ...Option) *Engine {
	e := &Engine{
		scene:     scene,
		mutator:   mutator,
		geo:       geometry.Primitives{},
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tolerance is the border-test distance in scene units for the given state.
func (e *Engine) Tolerance(state AppState) float64 {
	return e.threshold / state.zoom()
}

// ResolveBindingTarget returns the topmost bindable element whose outline is
// within tolerance of p, or nil. It has no side effects.
func (e *Engine) ResolveBindingTarget(p geometry.Point, state AppState) *domain.Element {
	tolerance := e.Tolerance(state)
	return e.scene.ElementAtPosition(p, func(el *domain.Element, p geometry.Point) bool {
		return el.IsBindable() && e.geo.IsNearBoundary(el.Shape(), p, tolerance)
	})
}

// Bind resolves the shape under pointer and binds the given endpoint of linear
// to it. It returns the shape, or nil when nothing was bound.
func (e *Engine) Bind(linear *domain.Element, end domain.Endpoint, state AppState, pointer geometry.Point) *domain.Element {
	if linear == nil || !linear.IsLinear() {
		return nil
	}
	target := e.ResolveBindingTarget(pointer, state)
	if target == nil {
		return nil
	}
	if !e.BindLinearElement(linear, target, end, state) {
		return nil
	}
	return target
}

// MaybeBindLinearElement binds the start of linear to the shape it was started
// on, if any, and its end to the shape under pointer, if any. The two targets
// are resolved independently.
func (e *Engine) MaybeBindLinearElement(linear *domain.Element, state AppState, pointer geometry.Point) {
	if start := state.StartBoundElement; start != nil && !start.IsDeleted {
		e.BindLinearElement(linear, start, domain.EndpointStart, state)
	}
	e.Bind(linear, domain.EndpointEnd, state, pointer)
}

// BindLinearElement records the binding of linear's endpoint to target and adds
// linear to target's bound elements. Both writes go through the mutator
// together; binding the same pair again leaves a single entry in the set.
func (e *Engine) BindLinearElement(linear, target *domain.Element, end domain.Endpoint, state AppState) bool {
	if linear == nil || target == nil || !linear.IsLinear() || !target.IsBindable() || linear.ID == target.ID {
		return false
	}
	if prev := linear.Binding(end); prev != nil && prev.ElementID != target.ID {
		e.UnbindLinearElement(linear, end)
	}
	focus, gap := e.focusAndGap(linear, end, target, e.Tolerance(state))

	e.mutator.Mutate(linear, domain.BindingPatch(end, &domain.PointBinding{
		ElementID:  target.ID,
		FocusPoint: focus,
		Gap:        gap,
	}))
	e.mutator.Mutate(target, domain.Patch{
		BoundElementIDs: mergeID(target.BoundElementIDs, linear.ID),
	})
	return true
}

// UnbindLinearElement removes the binding of linear's endpoint and returns the
// id of the element it pointed at, or "". linear leaves that element's bound
// set unless its other endpoint is still bound to it.
func (e *Engine) UnbindLinearElement(linear *domain.Element, end domain.Endpoint) string {
	b := linear.Binding(end)
	if b == nil {
		return ""
	}
	targetID := b.ElementID
	e.mutator.Mutate(linear, domain.BindingPatch(end, nil))

	if other := linear.Binding(opposite(end)); other != nil && other.ElementID == targetID {
		return targetID
	}
	if target := e.scene.ElementByID(targetID); target != nil && target.HasBoundElement(linear.ID) {
		e.mutator.Mutate(target, domain.Patch{BoundElementIDs: removeID(target.BoundElementIDs, linear.ID)})
	}
	return targetID
}

// focusAndGap derives the binding parameters from the endpoint's absolute
// position and target's current geometry. The line from the adjacent point
// through the endpoint is extended across the target; the focus is the middle
// of the chord it cuts and the gap is the endpoint's distance to the entry
// point. A line that does not point into the target gives a simple binding.
func (e *Engine) focusAndGap(linear *domain.Element, end domain.Endpoint, target *domain.Element, tolerance float64) (geometry.Point, float64) {
	origin := geometry.Pt(target.X, target.Y)
	center := geometry.Pt(target.Width/2, target.Height/2)

	n := len(linear.Points)
	if n < 2 {
		return center, 0
	}
	edgeIndex, adjacentIndex := endpointIndices(end, n)
	edge := PointAtIndexAbsolute(linear, edgeIndex)
	adjacent := PointAtIndexAbsolute(linear, adjacentIndex)

	dir := edge.Sub(adjacent)
	length := dir.Len()
	if length == 0 {
		return center, 0
	}
	reach := 2*math.Hypot(target.Width, target.Height) + tolerance
	far := edge.Add(dir.Scale(reach / length))

	hits := e.geo.IntersectShapeWithSegment(target.Shape(), adjacent, far)
	if len(hits) < 2 {
		return center, 0
	}
	entry, exit := e.nearest(hits, adjacent), e.farthest(hits, adjacent)
	if ahead := entry.Sub(adjacent); ahead[0]*dir[0]+ahead[1]*dir[1] <= 0 {
		return center, 0
	}

	focus := entry.Midpoint(exit).Sub(origin)
	gap := math.Min(e.geo.Distance(edge, entry), tolerance)
	return focus, gap
}

func (e *Engine) nearest(points []geometry.Point, to geometry.Point) geometry.Point {
	best := points[0]
	for _, p := range points[1:] {
		if e.geo.Distance(p, to) < e.geo.Distance(best, to) {
			best = p
		}
	}
	return best
}

func (e *Engine) farthest(points []geometry.Point, to geometry.Point) geometry.Point {
	best := points[0]
	for _, p := range points[1:] {
		if e.geo.Distance(p, to) > e.geo.Distance(best, to) {
			best = p
		}
	}
	return best
}

// mergeID returns ids with id added, without duplicates.
func mergeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	seen := make(map[string]bool, len(ids)+1)
	for _, existing := range ids {
		if seen[existing] {
			continue
		}
		seen[existing] = true
		out = append(out, existing)
	}
	if !seen[id] {
		out = append(out, id)
	}
	return out
}

// removeID returns ids without id. The result is never nil so that it clears
// the set when used in a patch.
func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func opposite(end domain.Endpoint) domain.Endpoint {
	if end == domain.EndpointStart {
		return domain.EndpointEnd
	}
	return domain.EndpointStart
}
