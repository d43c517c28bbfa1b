package domain

// PageState represents the complete state of a page for rendering.
// Returned to clients to render the full canvas.
type PageState struct {
	Page     Page       `json:"page"`
	Elements []*Element `json:"elements"`
}
