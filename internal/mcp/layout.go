package mcpserver

import (
	"math"

	"whiteboard/internal/binding"
	"whiteboard/internal/domain"
	"whiteboard/internal/service"
)

const (
	GridSize = 30.0
	Padding  = 60.0 // 2 grid cells between shapes
	MaxRowW  = 1800.0
)

// LayoutEngine handles automatic placement of shapes on the page
// so that MCP-created elements don't overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

func boundsRect(el *domain.Element) rect {
	lo, hi := binding.ElementBounds(el)
	return rect{lo.X(), lo.Y(), hi.X() - lo.X(), hi.Y() - lo.Y()}
}

// NextPosition finds the next non-overlapping grid position for a shape
// of size (newW, newH) given the existing elements on the page.
func (le *LayoutEngine) NextPosition(existing []*domain.Element, newW, newH float64) (float64, float64) {
	if len(existing) == 0 {
		return 0, 0
	}

	occupied := make([]rect, len(existing))
	for i, el := range existing {
		occupied[i] = boundsRect(el)
	}

	// Scan rows top-to-bottom, columns left-to-right
	candidate := rect{w: newW, h: newH}
	for y := 0.0; y < 100000; y += le.gridSize {
		for x := 0.0; x < le.maxRowW; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				padded := rect{
					x: occ.x - le.padding,
					y: occ.y - le.padding,
					w: occ.w + le.padding*2,
					h: occ.h + le.padding*2,
				}
				if candidate.intersects(padded) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return candidate.x, candidate.y
			}
		}
	}

	// Fallback: place below everything
	maxY := 0.0
	for _, occ := range occupied {
		if occ.y+occ.h > maxY {
			maxY = occ.y + occ.h
		}
	}
	return 0, le.snap(maxY + le.padding)
}

// ArrangeGroup lays shapes out in rows starting from (startX, startY) and
// returns the moves that do it. Lines and arrows are left out; the ones bound
// to a shape follow it when the moves are applied.
func (le *LayoutEngine) ArrangeGroup(elements []*domain.Element, startX, startY float64) []service.Move {
	x := le.snap(startX)
	y := le.snap(startY)
	rowHeight := 0.0

	var moves []service.Move
	for _, el := range elements {
		if el.IsLinear() {
			continue
		}
		moves = append(moves, service.Move{ID: el.ID, X: x, Y: y})

		if el.Height > rowHeight {
			rowHeight = el.Height
		}

		x += le.snap(el.Width + le.padding)

		// Wrap to next row
		if x+el.Width > le.maxRowW {
			x = le.snap(startX)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
	}
	return moves
}
