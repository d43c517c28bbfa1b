package service

import (
	"math"

	"whiteboard/internal/domain"
	"whiteboard/internal/geometry"
)

// anchorPoints picks facing sides of from and to by their relative position
// and returns points just off the middle of each side, gap units outside the
// outline.
func anchorPoints(from, to *domain.Element, gap float64) (geometry.Point, geometry.Point) {
	fc := from.Shape().Center()
	tc := to.Shape().Center()
	dx := tc.X() - fc.X()
	dy := tc.Y() - fc.Y()

	// Vertical: bottom→top or top→bottom
	if math.Abs(dy) > math.Abs(dx) {
		if dy > 0 {
			return geometry.Pt(fc.X(), from.Y+from.Height+gap), geometry.Pt(tc.X(), to.Y-gap)
		}
		return geometry.Pt(fc.X(), from.Y-gap), geometry.Pt(tc.X(), to.Y+to.Height+gap)
	}
	// Horizontal: right→left or left→right
	if dx > 0 {
		return geometry.Pt(from.X+from.Width+gap, fc.Y()), geometry.Pt(to.X-gap, tc.Y())
	}
	return geometry.Pt(from.X-gap, fc.Y()), geometry.Pt(to.X+to.Width+gap, tc.Y())
}
