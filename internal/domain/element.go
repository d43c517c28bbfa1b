package domain

import "whiteboard/internal/geometry"

type ElementType string

const (
	ElementTypeRectangle ElementType = "rectangle"
	ElementTypeEllipse   ElementType = "ellipse"
	ElementTypeDiamond   ElementType = "diamond"
	ElementTypeText      ElementType = "text"
	ElementTypeLine      ElementType = "line"
	ElementTypeArrow     ElementType = "arrow"
)

// Endpoint names one end of a linear element.
type Endpoint string

const (
	EndpointStart Endpoint = "start"
	EndpointEnd   Endpoint = "end"
)

// PointBinding attaches one endpoint of a linear element to a bindable element.
// FocusPoint is relative to the bindable element's origin and is fixed when
// the binding is made. Gap 0 means the endpoint rigidly follows the shape.
type PointBinding struct {
	ElementID  string         `json:"elementId"`
	FocusPoint geometry.Point `json:"focusPoint"`
	Gap        float64        `json:"gap"`
}

// Element is a single item of a page's drawing layer.
//
// Linear elements (line, arrow) keep Points relative to (X, Y). Bindable
// elements (rectangle, ellipse, diamond) list the linear elements bound to
// them in BoundElementIDs.
type Element struct {
	ID              string           `json:"id"`
	Type            ElementType      `json:"type"`
	X               float64          `json:"x"`
	Y               float64          `json:"y"`
	Width           float64          `json:"width"`
	Height          float64          `json:"height"`
	Angle           float64          `json:"angle,omitempty"`
	StrokeColor     string           `json:"strokeColor,omitempty"`
	StrokeWidth     float64          `json:"strokeWidth,omitempty"`
	BackgroundColor string           `json:"backgroundColor,omitempty"`
	Text            string           `json:"text,omitempty"`
	Label           string           `json:"label,omitempty"`
	Points          []geometry.Point `json:"points,omitempty"`
	StartBinding    *PointBinding    `json:"startBinding,omitempty"`
	EndBinding      *PointBinding    `json:"endBinding,omitempty"`
	BoundElementIDs []string         `json:"boundElementIds,omitempty"`
	IsDeleted       bool             `json:"isDeleted,omitempty"`
	Version         int              `json:"version"`
	VersionNonce    int64            `json:"versionNonce"`
}

// IsLinear reports whether the element is a polyline that can be bound.
func (e *Element) IsLinear() bool {
	return e.Type == ElementTypeLine || e.Type == ElementTypeArrow
}

// IsBindable reports whether the element can be the target of a binding.
// Text and linear elements never are.
func (e *Element) IsBindable() bool {
	switch e.Type {
	case ElementTypeRectangle, ElementTypeEllipse, ElementTypeDiamond:
		return true
	}
	return false
}

// Binding returns the binding of the given endpoint, or nil.
func (e *Element) Binding(end Endpoint) *PointBinding {
	if end == EndpointStart {
		return e.StartBinding
	}
	return e.EndBinding
}

// Shape returns the element's outline for geometry queries.
func (e *Element) Shape() geometry.Shape {
	kind := geometry.KindRectangle
	switch e.Type {
	case ElementTypeEllipse:
		kind = geometry.KindEllipse
	case ElementTypeDiamond:
		kind = geometry.KindDiamond
	}
	return geometry.Shape{Kind: kind, X: e.X, Y: e.Y, Width: e.Width, Height: e.Height, Angle: e.Angle}
}

// HasBoundElement reports whether id is listed in BoundElementIDs.
func (e *Element) HasBoundElement(id string) bool {
	for _, b := range e.BoundElementIDs {
		if b == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	c := *e
	if e.Points != nil {
		c.Points = append([]geometry.Point(nil), e.Points...)
	}
	if e.BoundElementIDs != nil {
		c.BoundElementIDs = append([]string(nil), e.BoundElementIDs...)
	}
	if e.StartBinding != nil {
		b := *e.StartBinding
		c.StartBinding = &b
	}
	if e.EndBinding != nil {
		b := *e.EndBinding
		c.EndBinding = &b
	}
	return &c
}

// BindingChange replaces an endpoint binding. A nil To removes it.
type BindingChange struct {
	To *PointBinding
}

// Patch is a partial element update. Nil fields are left untouched; a non-nil
// empty BoundElementIDs clears the set.
type Patch struct {
	X               *float64
	Y               *float64
	Width           *float64
	Height          *float64
	Points          []geometry.Point
	StartBinding    *BindingChange
	EndBinding      *BindingChange
	BoundElementIDs []string
	IsDeleted       *bool
	Text            *string
	Label           *string
}

// Float is a convenience for building patches.
func Float(v float64) *float64 { return &v }

// Bool is a convenience for building patches.
func Bool(v bool) *bool { return &v }

// String is a convenience for building patches.
func String(v string) *string { return &v }

// BindingPatch returns a patch that sets the binding of the given endpoint.
func BindingPatch(end Endpoint, b *PointBinding) Patch {
	if end == EndpointStart {
		return Patch{StartBinding: &BindingChange{To: b}}
	}
	return Patch{EndBinding: &BindingChange{To: b}}
}

// Apply writes the patch into e. It does not touch versioning; callers go
// through the scene's mutator for that.
func (p Patch) Apply(e *Element) {
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.Width != nil {
		e.Width = *p.Width
	}
	if p.Height != nil {
		e.Height = *p.Height
	}
	if p.Points != nil {
		e.Points = append([]geometry.Point(nil), p.Points...)
	}
	if p.StartBinding != nil {
		e.StartBinding = copyBinding(p.StartBinding.To)
	}
	if p.EndBinding != nil {
		e.EndBinding = copyBinding(p.EndBinding.To)
	}
	if p.BoundElementIDs != nil {
		e.BoundElementIDs = append([]string{}, p.BoundElementIDs...)
	}
	if p.IsDeleted != nil {
		e.IsDeleted = *p.IsDeleted
	}
	if p.Text != nil {
		e.Text = *p.Text
	}
	if p.Label != nil {
		e.Label = *p.Label
	}
}

func copyBinding(b *PointBinding) *PointBinding {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
