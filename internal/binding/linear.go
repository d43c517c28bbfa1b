package binding

import (
	"whiteboard/internal/domain"
	"whiteboard/internal/geometry"
)

// endpointIndices returns the index of the endpoint and of its neighbour on
// a polyline of n points.
func endpointIndices(end domain.Endpoint, n int) (edge, adjacent int) {
	if end == domain.EndpointStart {
		return 0, min(1, n-1)
	}
	return n - 1, max(n-2, 0)
}

// linearCenter is the rotation center of a linear element: the middle of its
// points' bounds in scene space.
func linearCenter(el *domain.Element) geometry.Point {
	lo, hi := geometry.Bounds(el.Points)
	return geometry.Pt(el.X+(lo[0]+hi[0])/2, el.Y+(lo[1]+hi[1])/2)
}

// PointAtIndexAbsolute returns point i of a linear element in scene
// coordinates.
func PointAtIndexAbsolute(el *domain.Element, i int) geometry.Point {
	p := el.Points[i]
	abs := geometry.Pt(el.X+p[0], el.Y+p[1])
	return geometry.Rotate(abs, linearCenter(el), el.Angle)
}

// PointFromAbsolute converts a scene point into el's local point space.
func PointFromAbsolute(el *domain.Element, abs geometry.Point) geometry.Point {
	if el.Angle != 0 {
		abs = geometry.Rotate(abs, linearCenter(el), -el.Angle)
	}
	return abs.Sub(geometry.Pt(el.X, el.Y))
}

// pointsPatch builds the patch that writes points into el. For unrotated
// elements the origin is moved so the first point stays at (0, 0); width and
// height follow the points' bounds.
func pointsPatch(el *domain.Element, points []geometry.Point) domain.Patch {
	x, y := el.X, el.Y
	if el.Angle == 0 && len(points) > 0 && points[0] != (geometry.Point{}) {
		shift := points[0]
		moved := make([]geometry.Point, len(points))
		for i, p := range points {
			moved[i] = p.Sub(shift)
		}
		points = moved
		x += shift[0]
		y += shift[1]
	}
	lo, hi := geometry.Bounds(points)
	return domain.Patch{
		X:      domain.Float(x),
		Y:      domain.Float(y),
		Width:  domain.Float(hi[0] - lo[0]),
		Height: domain.Float(hi[1] - lo[1]),
		Points: points,
	}
}

// MoveLinearPoint moves point i of linear to the scene position abs. It
// reports false when linear is not a linear element or i is out of range.
// Bindings are left to the caller.
func (e *Engine) MoveLinearPoint(linear *domain.Element, i int, abs geometry.Point) bool {
	if linear == nil || !linear.IsLinear() || i < 0 || i >= len(linear.Points) {
		return false
	}
	points := append([]geometry.Point(nil), linear.Points...)
	points[i] = PointFromAbsolute(linear, abs)
	e.mutator.Mutate(linear, pointsPatch(linear, points))
	return true
}

// EndpointAt returns which endpoint point i is, if any.
func EndpointAt(linear *domain.Element, i int) (domain.Endpoint, bool) {
	switch {
	case i == 0:
		return domain.EndpointStart, true
	case i == len(linear.Points)-1:
		return domain.EndpointEnd, true
	}
	return "", false
}

// ElementBounds returns the scene-space bounding box of el.
func ElementBounds(el *domain.Element) (geometry.Point, geometry.Point) {
	if el.IsLinear() && len(el.Points) > 0 {
		abs := make([]geometry.Point, len(el.Points))
		for i := range el.Points {
			abs[i] = PointAtIndexAbsolute(el, i)
		}
		return geometry.Bounds(abs)
	}
	s := el.Shape()
	c := s.Center()
	corners := []geometry.Point{
		geometry.Rotate(geometry.Pt(el.X, el.Y), c, el.Angle),
		geometry.Rotate(geometry.Pt(el.X+el.Width, el.Y), c, el.Angle),
		geometry.Rotate(geometry.Pt(el.X+el.Width, el.Y+el.Height), c, el.Angle),
		geometry.Rotate(geometry.Pt(el.X, el.Y+el.Height), c, el.Angle),
	}
	return geometry.Bounds(corners)
}

// CommonBounds returns the bounding box enclosing all elements.
func CommonBounds(elements []*domain.Element) (geometry.Point, geometry.Point) {
	var corners []geometry.Point
	for _, el := range elements {
		lo, hi := ElementBounds(el)
		corners = append(corners, lo, hi)
	}
	return geometry.Bounds(corners)
}
