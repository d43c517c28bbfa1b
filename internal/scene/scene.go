// Package scene holds the in-memory drawing layer of a page. It resolves
// elements by id, answers positional hit queries in draw order, and is the
// single gateway through which element fields are changed.
package scene

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sort"

	"whiteboard/internal/domain"
	"whiteboard/internal/geometry"
)

// ChangeHandler is called after every mutation with the changed element.
type ChangeHandler func(el *domain.Element)

// Scene is the element collection of one page, kept in draw order
// (last element is drawn on top).
type Scene struct {
	elements []*domain.Element
	byID     map[string]*domain.Element
	dirty    map[string]struct{}
	handlers []ChangeHandler
}

// New creates a Scene from elements in draw order. Elements with an id that
// was already seen are dropped.
func New(elements []*domain.Element) *Scene {
	s := &Scene{
		byID:  make(map[string]*domain.Element, len(elements)),
		dirty: make(map[string]struct{}),
	}
	for _, el := range elements {
		if el == nil || el.ID == "" {
			continue
		}
		if _, dup := s.byID[el.ID]; dup {
			continue
		}
		s.elements = append(s.elements, el)
		s.byID[el.ID] = el
	}
	return s
}

// Load parses a page's drawing data. Empty data yields an empty scene.
func Load(data string) (*Scene, error) {
	if data == "" || data == "[]" {
		return New(nil), nil
	}
	var elements []*domain.Element
	if err := json.Unmarshal([]byte(data), &elements); err != nil {
		return nil, fmt.Errorf("parse drawing data: %w", err)
	}
	return New(elements), nil
}

// Marshal serializes all elements, deleted ones included, in draw order.
func (s *Scene) Marshal() (string, error) {
	elements := s.elements
	if elements == nil {
		elements = []*domain.Element{}
	}
	data, err := json.Marshal(elements)
	if err != nil {
		return "", fmt.Errorf("marshal drawing data: %w", err)
	}
	return string(data), nil
}

// Elements returns every element in draw order, deleted ones included.
func (s *Scene) Elements() []*domain.Element {
	return s.elements
}

// NonDeletedElements returns the live elements in draw order.
func (s *Scene) NonDeletedElements() []*domain.Element {
	out := make([]*domain.Element, 0, len(s.elements))
	for _, el := range s.elements {
		if !el.IsDeleted {
			out = append(out, el)
		}
	}
	return out
}

// ElementByID returns the element with id, deleted or not, or nil.
func (s *Scene) ElementByID(id string) *domain.Element {
	return s.byID[id]
}

// NonDeletedElementsByIDs resolves ids in the order given, skipping unknown
// and deleted elements and repeated ids.
func (s *Scene) NonDeletedElementsByIDs(ids []string) []*domain.Element {
	out := make([]*domain.Element, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if el := s.byID[id]; el != nil && !el.IsDeleted {
			out = append(out, el)
		}
	}
	return out
}

// ElementAtPosition returns the topmost live element for which hit reports
// true at p, or nil.
func (s *Scene) ElementAtPosition(p geometry.Point, hit func(el *domain.Element, p geometry.Point) bool) *domain.Element {
	for i := len(s.elements) - 1; i >= 0; i-- {
		el := s.elements[i]
		if el.IsDeleted {
			continue
		}
		if hit(el, p) {
			return el
		}
	}
	return nil
}

// Add appends el on top of the scene.
func (s *Scene) Add(el *domain.Element) error {
	if el.ID == "" {
		return fmt.Errorf("element has no id")
	}
	if _, dup := s.byID[el.ID]; dup {
		return fmt.Errorf("element %s already exists", el.ID)
	}
	if el.Version == 0 {
		el.Version = 1
		el.VersionNonce = rand.Int64()
	}
	s.elements = append(s.elements, el)
	s.byID[el.ID] = el
	s.markDirty(el)
	return nil
}

// Mutate applies patch to el in place, bumps its version and records the
// change. It is the only path by which this module changes element fields.
func (s *Scene) Mutate(el *domain.Element, patch domain.Patch) {
	patch.Apply(el)
	el.Version++
	el.VersionNonce = rand.Int64()
	s.markDirty(el)
}

// OnChange registers a handler that observes every mutation.
func (s *Scene) OnChange(h ChangeHandler) {
	s.handlers = append(s.handlers, h)
}

func (s *Scene) markDirty(el *domain.Element) {
	s.dirty[el.ID] = struct{}{}
	for _, h := range s.handlers {
		h(el)
	}
}

// Dirty returns the sorted ids changed since the last ClearDirty.
func (s *Scene) Dirty() []string {
	ids := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClearDirty forgets recorded changes.
func (s *Scene) ClearDirty() {
	s.dirty = make(map[string]struct{})
}
