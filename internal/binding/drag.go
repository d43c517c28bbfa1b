package binding

import (
	"math"

	"whiteboard/internal/domain"
	"whiteboard/internal/geometry"
)

// shiftLockingAngle is the step linear elements snap to when drawn with
// square lock.
const shiftLockingAngle = math.Pi / 12

// Result counts the endpoints a propagation pass touched.
type Result struct {
	Updated int
	// Skipped endpoints had no usable intersection with the moved shape and
	// were left where they were.
	Skipped int
}

func (r *Result) add(o Result) {
	r.Updated += o.Updated
	r.Skipped += o.Skipped
}

// OnBindableElementMoved repositions every endpoint bound to moved after it
// was moved by offset. moved must already carry its new position.
func (e *Engine) OnBindableElementMoved(moved *domain.Element, offset geometry.Point) Result {
	return e.updateBoundElements(moved, offset, nil)
}

// MoveElement moves el to (x, y) through the mutator and propagates the move
// to the endpoints bound to it.
func (e *Engine) MoveElement(el *domain.Element, x, y float64) Result {
	offset := geometry.Pt(x-el.X, y-el.Y)
	e.mutator.Mutate(el, domain.Patch{X: domain.Float(x), Y: domain.Float(y)})
	if !el.IsBindable() {
		return Result{}
	}
	return e.updateBoundElements(el, offset, nil)
}

// DragSelectedElements moves the selection so that its common top-left corner
// lands on pointer. Each bindable element propagates its own offset; linear
// elements that are part of the selection move rigidly with it.
func (e *Engine) DragSelectedElements(selected []*domain.Element, pointer geometry.Point) Result {
	var res Result
	if len(selected) == 0 {
		return res
	}
	offset := DragOffset(selected, pointer)

	dragged := make(map[string]bool, len(selected))
	for _, el := range selected {
		if el.IsLinear() {
			dragged[el.ID] = true
		}
	}
	for _, el := range selected {
		e.mutator.Mutate(el, domain.Patch{
			X: domain.Float(el.X + offset[0]),
			Y: domain.Float(el.Y + offset[1]),
		})
		if el.IsBindable() {
			res.add(e.updateBoundElements(el, offset, dragged))
		}
	}
	return res
}

// DragOffset is the translation that brings the selection's top-left corner
// to pointer.
func DragOffset(selected []*domain.Element, pointer geometry.Point) geometry.Point {
	lo, _ := CommonBounds(selected)
	return pointer.Sub(lo)
}

func (e *Engine) updateBoundElements(moved *domain.Element, offset geometry.Point, skip map[string]bool) Result {
	var res Result
	if moved == nil || len(moved.BoundElementIDs) == 0 {
		return res
	}
	for _, linear := range e.scene.NonDeletedElementsByIDs(moved.BoundElementIDs) {
		if !linear.IsLinear() || skip[linear.ID] || len(linear.Points) == 0 {
			continue
		}
		// Both endpoints are computed from the points as they were before
		// this pass and written in one mutation.
		before := linear.Clone()
		points := append([]geometry.Point(nil), before.Points...)
		changed := false
		for _, end := range []domain.Endpoint{domain.EndpointStart, domain.EndpointEnd} {
			b := before.Binding(end)
			if b == nil || b.ElementID != moved.ID {
				continue
			}
			edgeIndex, _ := endpointIndices(end, len(points))
			p, ok := e.boundPointPosition(before, end, b, moved, offset)
			if !ok {
				res.Skipped++
				continue
			}
			points[edgeIndex] = p
			changed = true
			res.Updated++
		}
		if changed {
			e.mutator.Mutate(linear, pointsPatch(before, points))
		}
	}
	return res
}

// boundPointPosition computes the new local position of linear's endpoint.
// ok is false when the moved shape's outline cannot be found along the line
// toward the focus point; the endpoint then keeps its position.
func (e *Engine) boundPointPosition(
	linear *domain.Element,
	end domain.Endpoint,
	b *domain.PointBinding,
	moved *domain.Element,
	offset geometry.Point,
) (geometry.Point, bool) {
	edgeIndex, adjacentIndex := endpointIndices(end, len(linear.Points))

	// The line never pointed into the shape: follow the shape rigidly.
	if b.Gap == 0 || edgeIndex == adjacentIndex {
		edge := PointAtIndexAbsolute(linear, edgeIndex)
		return PointFromAbsolute(linear, edge.Add(offset)), true
	}

	adjacent := PointAtIndexAbsolute(linear, adjacentIndex)
	focus := geometry.Pt(
		moved.X+b.FocusPoint[0]+offset[0],
		moved.Y+b.FocusPoint[1]+offset[1],
	)
	hits := e.geo.IntersectShapeWithSegment(moved.Shape(), adjacent, focus)
	if len(hits) == 0 {
		// Rotation or scaling since bind time can move the focus point out
		// of reach.
		return geometry.Point{}, false
	}
	entry := e.nearest(hits, adjacent)
	edge := e.geo.TranslateAlongLine(entry, b.Gap, adjacent)
	return PointFromAbsolute(linear, edge), true
}

// DragNewElement sizes a shape being drawn from origin toward pointer. With
// square the shape keeps equal sides (or a snapped angle for linear elements);
// with fromCenter origin becomes the center. Zero-sized results are ignored.
func (e *Engine) DragNewElement(el *domain.Element, origin, pointer geometry.Point, square, fromCenter bool) {
	width := math.Abs(pointer[0] - origin[0])
	height := math.Abs(pointer[1] - origin[1])

	if square {
		signed := height
		if pointer[1] < origin[1] {
			signed = -height
		}
		width, height = PerfectElementSize(el.Type, width, signed)
		height = math.Abs(height)
	}

	x, y := origin[0], origin[1]
	if pointer[0] < origin[0] {
		x = origin[0] - width
	}
	if pointer[1] < origin[1] {
		y = origin[1] - height
	}

	if fromCenter {
		width += width
		height += height
		x = origin[0] - width/2
		y = origin[1] - height/2
	}

	if width != 0 && height != 0 {
		e.mutator.Mutate(el, domain.Patch{
			X:      domain.Float(x),
			Y:      domain.Float(y),
			Width:  domain.Float(width),
			Height: domain.Float(height),
		})
	}
}

// PerfectElementSize locks a drawn size: linear elements snap to multiples of
// 15 degrees, other shapes get equal sides. The sign of height is kept.
func PerfectElementSize(t domain.ElementType, width, height float64) (float64, float64) {
	absWidth, absHeight := math.Abs(width), math.Abs(height)
	sign := 1.0
	if height < 0 {
		sign = -1
	}

	if t == domain.ElementTypeLine || t == domain.ElementTypeArrow {
		if absWidth == 0 {
			return 0, height
		}
		locked := math.Round(math.Atan(absHeight/absWidth)/shiftLockingAngle) * shiftLockingAngle
		switch {
		case locked == 0:
			return width, 0
		case math.Abs(locked-math.Pi/2) < 1e-9:
			return 0, height
		default:
			return width, absWidth * math.Tan(locked) * sign
		}
	}
	return width, absWidth * sign
}
