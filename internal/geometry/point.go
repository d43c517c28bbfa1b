package geometry

import "math"

// Point is an (x, y) pair. It encodes as a two-element JSON array so drawing
// data stays compatible with the frontend's [x, y] tuples.
type Point [2]float64

func Pt(x, y float64) Point { return Point{x, y} }

func (p Point) X() float64 { return p[0] }
func (p Point) Y() float64 { return p[1] }

func (p Point) Add(q Point) Point      { return Point{p[0] + q[0], p[1] + q[1]} }
func (p Point) Sub(q Point) Point      { return Point{p[0] - q[0], p[1] - q[1]} }
func (p Point) Scale(s float64) Point   { return Point{p[0] * s, p[1] * s} }
func (p Point) Len() float64           { return math.Hypot(p[0], p[1]) }
func (p Point) Midpoint(q Point) Point { return Point{(p[0] + q[0]) / 2, (p[1] + q[1]) / 2} }

func dot(a, b Point) float64   { return a[0]*b[0] + a[1]*b[1] }
func cross(a, b Point) float64 { return a[0]*b[1] - a[1]*b[0] }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

// TranslatePointAlongLine moves p by distance along the line toward origin.
// A negative distance moves away from origin. If p and origin coincide the
// direction is undefined and p is returned unchanged.
func TranslatePointAlongLine(p Point, distance float64, origin Point) Point {
	d := origin.Sub(p)
	l := d.Len()
	if l == 0 {
		return p
	}
	return p.Add(d.Scale(distance / l))
}

// Rotate rotates p around center by angle radians (clockwise in screen space).
func Rotate(p, center Point, angle float64) Point {
	if angle == 0 {
		return p
	}
	sin, cos := math.Sincos(angle)
	dx, dy := p[0]-center[0], p[1]-center[1]
	return Point{
		center[0] + dx*cos - dy*sin,
		center[1] + dx*sin + dy*cos,
	}
}

// Bounds returns the min and max corners of points. Empty input yields zeros.
func Bounds(points []Point) (min, max Point) {
	if len(points) == 0 {
		return Point{}, Point{}
	}
	min, max = points[0], points[0]
	for _, p := range points[1:] {
		min[0] = math.Min(min[0], p[0])
		min[1] = math.Min(min[1], p[1])
		max[0] = math.Max(max[0], p[0])
		max[1] = math.Max(max[1], p[1])
	}
	return min, max
}
