package geometry

import (
	"math"
	"sort"
)

const epsilon = 1e-9

// Kind is the outline family of a shape.
type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindEllipse   Kind = "ellipse"
	KindDiamond   Kind = "diamond"
)

// Shape is a closed outline positioned by its top-left corner and size and
// rotated by Angle radians around its center.
type Shape struct {
	Kind   Kind
	X      float64
	Y      float64
	Width  float64
	Height float64
	Angle  float64
}

// Center returns the rotation center of the shape.
func (s Shape) Center() Point {
	return Point{s.X + s.Width/2, s.Y + s.Height/2}
}

func (s Shape) halfSize() (float64, float64) {
	return math.Abs(s.Width) / 2, math.Abs(s.Height) / 2
}

// toLocal maps a scene point into the shape's unrotated, center-origin frame.
func (s Shape) toLocal(p Point) Point {
	c := s.Center()
	return Rotate(p, c, -s.Angle).Sub(c)
}

func (s Shape) toScene(p Point) Point {
	c := s.Center()
	return Rotate(p.Add(c), c, s.Angle)
}

// outline returns the polygon vertices of rectangle and diamond shapes in the
// local frame, clockwise.
func (s Shape) outline() []Point {
	hw, hh := s.halfSize()
	if s.Kind == KindDiamond {
		return []Point{{0, -hh}, {hw, 0}, {0, hh}, {-hw, 0}}
	}
	return []Point{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
}

// IntersectShapeWithLine returns the points where the infinite line through a
// and b crosses the outline of s, ordered by distance from a. A line that
// misses the shape, or a degenerate line (a == b), yields no points.
func IntersectShapeWithLine(s Shape, a, b Point) []Point {
	la, lb := s.toLocal(a), s.toLocal(b)
	d := lb.Sub(la)
	if d.Len() < epsilon {
		return nil
	}

	var local []Point
	if s.Kind == KindEllipse {
		local = intersectEllipse(s, la, d)
	} else {
		local = intersectPolygon(s.outline(), la, d)
	}

	out := make([]Point, 0, len(local))
	for _, p := range local {
		out = append(out, s.toScene(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Distance(out[i], a) < Distance(out[j], a)
	})
	return out
}

func intersectPolygon(vertices []Point, origin, dir Point) []Point {
	var hits []Point
	for i := range vertices {
		p := vertices[i]
		e := vertices[(i+1)%len(vertices)].Sub(p)
		denom := cross(dir, e)
		if math.Abs(denom) < epsilon {
			// parallel or collinear edge; its endpoints are found through the
			// neighbouring edges
			continue
		}
		w := p.Sub(origin)
		t := cross(w, e) / denom
		u := cross(w, dir) / denom
		if u < -epsilon || u > 1+epsilon {
			continue
		}
		hits = appendUnique(hits, origin.Add(dir.Scale(t)))
	}
	return hits
}

func intersectEllipse(s Shape, origin, dir Point) []Point {
	hw, hh := s.halfSize()
	if hw < epsilon || hh < epsilon {
		return nil
	}
	// (ox + t dx)^2 / hw^2 + (oy + t dy)^2 / hh^2 = 1
	a := dir[0]*dir[0]/(hw*hw) + dir[1]*dir[1]/(hh*hh)
	b := 2 * (origin[0]*dir[0]/(hw*hw) + origin[1]*dir[1]/(hh*hh))
	c := origin[0]*origin[0]/(hw*hw) + origin[1]*origin[1]/(hh*hh) - 1
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)
	hits := []Point{origin.Add(dir.Scale(t1))}
	return appendUnique(hits, origin.Add(dir.Scale(t2)))
}

func appendUnique(points []Point, p Point) []Point {
	for _, q := range points {
		if Distance(p, q) < 1e-6 {
			return points
		}
	}
	return append(points, p)
}

// ContainsPoint reports whether p lies inside or on the outline of s.
func ContainsPoint(s Shape, p Point) bool {
	hw, hh := s.halfSize()
	l := s.toLocal(p)
	switch s.Kind {
	case KindEllipse:
		if hw < epsilon || hh < epsilon {
			return false
		}
		return (l[0]*l[0])/(hw*hw)+(l[1]*l[1])/(hh*hh) <= 1+epsilon
	case KindDiamond:
		if hw < epsilon || hh < epsilon {
			return false
		}
		return math.Abs(l[0])/hw+math.Abs(l[1])/hh <= 1+epsilon
	default:
		return math.Abs(l[0]) <= hw+epsilon && math.Abs(l[1]) <= hh+epsilon
	}
}

// DistanceToOutline returns the distance from p to the outline of s,
// regardless of whether p is inside or outside. For ellipses it measures along
// the ray from the center, which is exact for circles and a close
// approximation for moderate eccentricity.
func DistanceToOutline(s Shape, p Point) float64 {
	l := s.toLocal(p)
	if s.Kind == KindEllipse {
		hw, hh := s.halfSize()
		if hw < epsilon || hh < epsilon {
			return l.Len()
		}
		r := math.Sqrt((l[0]*l[0])/(hw*hw) + (l[1]*l[1])/(hh*hh))
		if r < epsilon {
			return math.Min(hw, hh)
		}
		return Distance(l, l.Scale(1/r))
	}

	vertices := s.outline()
	best := math.Inf(1)
	for i := range vertices {
		best = math.Min(best, distanceToSegment(l, vertices[i], vertices[(i+1)%len(vertices)]))
	}
	return best
}

// IsNearBoundary reports whether p is within tolerance of the outline of s.
func IsNearBoundary(s Shape, p Point, tolerance float64) bool {
	return DistanceToOutline(s, p) <= tolerance
}

func distanceToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := dot(ab, ab)
	if l2 < epsilon {
		return Distance(p, a)
	}
	t := math.Max(0, math.Min(1, dot(p.Sub(a), ab)/l2))
	return Distance(p, a.Add(ab.Scale(t)))
}

// Primitives exposes the package functions as a value, for callers that take
// their geometry as an injected collaborator.
type Primitives struct{}

func (Primitives) IntersectShapeWithSegment(s Shape, a, b Point) []Point {
	return IntersectShapeWithLine(s, a, b)
}

func (Primitives) Distance(a, b Point) float64 { return Distance(a, b) }

func (Primitives) TranslateAlongLine(p Point, distance float64, toward Point) Point {
	return TranslatePointAlongLine(p, distance, toward)
}

func (Primitives) IsNearBoundary(s Shape, p Point, tolerance float64) bool {
	return IsNearBoundary(s, p, tolerance)
}
