package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"whiteboard/internal/domain"
	"whiteboard/internal/scene"
	"whiteboard/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Notebook Service - business logic for notebooks and pages
// ─────────────────────────────────────────────────────────────

// NotebookService manages notebooks and the pages (whiteboards) in them.
type NotebookService struct {
	store   *storage.NotebookStore
	emitter EventEmitter
}

// NewNotebookService creates a NotebookService.
func NewNotebookService(
	store *storage.NotebookStore,
	emitter EventEmitter,
) *NotebookService {
	return &NotebookService{
		store:   store,
		emitter: emitter,
	}
}

// ── Notebooks ──────────────────────────────────────────────

func (s *NotebookService) ListNotebooks() ([]domain.Notebook, error) {
	return s.store.ListNotebooks()
}

func (s *NotebookService) CreateNotebook(name string) (*domain.Notebook, error) {
	nb := &domain.Notebook{
		ID:   uuid.New().String(),
		Name: name,
		Icon: "📓",
	}
	if err := s.store.CreateNotebook(nb); err != nil {
		return nil, fmt.Errorf("create notebook: %w", err)
	}
	return nb, nil
}

func (s *NotebookService) RenameNotebook(id, name string) error {
	nb, err := s.store.GetNotebook(id)
	if err != nil {
		return err
	}
	nb.Name = name
	return s.store.UpdateNotebook(nb)
}

func (s *NotebookService) DeleteNotebook(id string) error {
	if err := s.store.DeletePagesByNotebook(id); err != nil {
		return fmt.Errorf("delete pages: %w", err)
	}
	return s.store.DeleteNotebook(id)
}

// ── Pages ──────────────────────────────────────────────────

func (s *NotebookService) ListPages(notebookID string) ([]domain.Page, error) {
	return s.store.ListPages(notebookID)
}

func (s *NotebookService) CreatePage(notebookID, name string) (*domain.Page, error) {
	if _, err := s.store.GetNotebook(notebookID); err != nil {
		return nil, err
	}
	p := &domain.Page{
		ID:           uuid.New().String(),
		NotebookID:   notebookID,
		Name:         name,
		ViewportZoom: 1.0,
		DrawingData:  "[]",
	}
	if err := s.store.CreatePage(p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPageState returns the page with its live elements in draw order.
func (s *NotebookService) GetPageState(pageID string) (*domain.PageState, error) {
	page, err := s.store.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	sc, err := scene.Load(page.DrawingData)
	if err != nil {
		return nil, err
	}
	elements := sc.NonDeletedElements()
	if elements == nil {
		elements = []*domain.Element{}
	}
	return &domain.PageState{
		Page:     *page,
		Elements: elements,
	}, nil
}

func (s *NotebookService) RenamePage(id, name string) error {
	p, err := s.store.GetPage(id)
	if err != nil {
		return err
	}
	p.Name = name
	return s.store.UpdatePage(p)
}

// UpdateViewport stores the page's viewport. The zoom also scales the binding
// tolerance of later drawing operations.
func (s *NotebookService) UpdateViewport(ctx context.Context, pageID string, x, y, zoom float64) error {
	if zoom <= 0 {
		return fmt.Errorf("zoom must be positive, got %v", zoom)
	}
	p, err := s.store.GetPage(pageID)
	if err != nil {
		return err
	}
	p.ViewportX = x
	p.ViewportY = y
	p.ViewportZoom = zoom
	if err := s.store.UpdatePage(p); err != nil {
		return err
	}
	s.emitter.Emit(ctx, "page:viewport-changed", map[string]any{"pageId": pageID, "zoom": zoom})
	return nil
}

func (s *NotebookService) DeletePage(id string) error {
	return s.store.DeletePage(id)
}
