package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard/internal/binding"
	"whiteboard/internal/domain"
	"whiteboard/internal/geometry"
	"whiteboard/internal/service"
	"whiteboard/internal/storage"
)

type fixture struct {
	ctx       context.Context
	drawings  *service.DrawingService
	notebooks *service.NotebookService
	store     *storage.NotebookStore
	undos     *storage.UndoStore
	emitter   *service.MockEmitter
	pageID    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "whiteboard.db"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewNotebookStore(db)
	undos := storage.NewUndoStore(db, 40)
	emitter := &service.MockEmitter{}
	notebooks := service.NewNotebookService(store, emitter)

	nb, err := notebooks.CreateNotebook("nb")
	require.NoError(t, err)
	page, err := notebooks.CreatePage(nb.ID, "board")
	require.NoError(t, err)

	return &fixture{
		ctx:       context.Background(),
		drawings:  service.NewDrawingService(store, undos, emitter, binding.DefaultThreshold),
		notebooks: notebooks,
		store:     store,
		undos:     undos,
		emitter:   emitter,
		pageID:    page.ID,
	}
}

func (f *fixture) rect(t *testing.T, x, y float64) *domain.Element {
	t.Helper()
	el, err := f.drawings.AddShape(f.ctx, f.pageID, service.ShapeInput{
		Type: domain.ElementTypeRectangle, X: x, Y: y, Width: 100, Height: 100,
	})
	require.NoError(t, err)
	return el
}

func (f *fixture) get(t *testing.T, id string) *domain.Element {
	t.Helper()
	el, err := f.drawings.GetElement(f.pageID, id)
	require.NoError(t, err)
	return el
}

func (f *fixture) changes() int {
	n := 0
	for _, e := range f.emitter.Events {
		if e.Event == service.EventDrawingChanged {
			n++
		}
	}
	return n
}

func startOf(el *domain.Element) geometry.Point { return binding.PointAtIndexAbsolute(el, 0) }
func endOf(el *domain.Element) geometry.Point {
	return binding.PointAtIndexAbsolute(el, len(el.Points)-1)
}

func assertAt(t *testing.T, want, got geometry.Point) {
	t.Helper()
	assert.InDelta(t, want.X(), got.X(), 1e-6, "x")
	assert.InDelta(t, want.Y(), got.Y(), 1e-6, "y")
}

func TestDrawing_ConnectAndMove(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)
	b := f.rect(t, 300, 0)

	arrow, err := f.drawings.ConnectElements(f.ctx, f.pageID, a.ID, b.ID, "calls")
	require.NoError(t, err)
	require.NotNil(t, arrow.StartBinding)
	require.NotNil(t, arrow.EndBinding)
	assert.InDelta(t, 5, arrow.StartBinding.Gap, 1e-9)
	assertAt(t, geometry.Pt(50, 50), arrow.EndBinding.FocusPoint)
	assert.Equal(t, []string{arrow.ID}, f.get(t, a.ID).BoundElementIDs)
	assert.Equal(t, []string{arrow.ID}, f.get(t, b.ID).BoundElementIDs)

	res, err := f.drawings.MoveElement(f.ctx, f.pageID, a.ID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, binding.Result{Updated: 1}, res)

	moved := f.get(t, arrow.ID)
	assertAt(t, geometry.Pt(125, 50), startOf(moved))
	assertAt(t, geometry.Pt(295, 50), endOf(moved))
	assert.Equal(t, 4, f.changes())

	last := f.emitter.Events[len(f.emitter.Events)-1].Data.(service.DrawingChanged)
	assert.Equal(t, "move", last.Label)
	assert.ElementsMatch(t, []string{a.ID, arrow.ID}, last.Changed)
}

func TestDrawing_ConnectRejectsNonBindable(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)
	text, err := f.drawings.AddShape(f.ctx, f.pageID, service.ShapeInput{
		Type: domain.ElementTypeText, X: 300, Y: 0, Width: 80, Height: 20, Text: "hi",
	})
	require.NoError(t, err)

	_, err = f.drawings.ConnectElements(f.ctx, f.pageID, a.ID, text.ID, "")
	assert.ErrorIs(t, err, service.ErrNotBindable)
	_, err = f.drawings.ConnectElements(f.ctx, f.pageID, a.ID, "missing", "")
	assert.ErrorIs(t, err, service.ErrElementNotFound)
}

func TestDrawing_AddLinearBindsFromPoints(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)

	arrow, err := f.drawings.AddLinear(f.ctx, f.pageID, service.LinearInput{
		Points: []geometry.Point{geometry.Pt(105, 50), geometry.Pt(300, 50)},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ElementTypeArrow, arrow.Type)
	require.NotNil(t, arrow.StartBinding)
	assert.Equal(t, a.ID, arrow.StartBinding.ElementID)
	assert.Nil(t, arrow.EndBinding)
	assert.Equal(t, 195.0, arrow.Width)

	_, err = f.drawings.AddLinear(f.ctx, f.pageID, service.LinearInput{Points: []geometry.Point{geometry.Pt(0, 0)}})
	assert.Error(t, err)
	_, err = f.drawings.AddLinear(f.ctx, f.pageID, service.LinearInput{
		Type: domain.ElementTypeRectangle, Points: []geometry.Point{geometry.Pt(0, 0), geometry.Pt(1, 1)},
	})
	assert.ErrorIs(t, err, service.ErrNotLinear)
}

func TestDrawing_MovedArrowRebinds(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)
	arrow, err := f.drawings.AddLinear(f.ctx, f.pageID, service.LinearInput{
		Points: []geometry.Point{geometry.Pt(300, 50), geometry.Pt(500, 50)},
	})
	require.NoError(t, err)
	require.Nil(t, arrow.StartBinding)

	_, err = f.drawings.MoveElement(f.ctx, f.pageID, arrow.ID, 105, 50)
	require.NoError(t, err)

	moved := f.get(t, arrow.ID)
	require.NotNil(t, moved.StartBinding)
	assert.Equal(t, a.ID, moved.StartBinding.ElementID)
	assert.Contains(t, f.get(t, a.ID).BoundElementIDs, arrow.ID)
}

func TestDrawing_DragSelectionWithArrow(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)
	b := f.rect(t, 300, 0)
	arrow, err := f.drawings.ConnectElements(f.ctx, f.pageID, a.ID, b.ID, "")
	require.NoError(t, err)

	res, err := f.drawings.DragElements(f.ctx, f.pageID, []string{a.ID, b.ID, arrow.ID, a.ID}, geometry.Pt(0, 100))
	require.NoError(t, err)

	assert.Equal(t, binding.Result{}, res)
	assertAt(t, geometry.Pt(105, 150), startOf(f.get(t, arrow.ID)))
	assert.Equal(t, 100.0, f.get(t, b.ID).Y)

	_, err = f.drawings.DragElements(f.ctx, f.pageID, []string{"nope"}, geometry.Pt(0, 0))
	assert.ErrorIs(t, err, service.ErrElementNotFound)
}

func TestDrawing_MoveLinearPointUnbindsEndpoint(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)
	b := f.rect(t, 300, 0)
	arrow, err := f.drawings.ConnectElements(f.ctx, f.pageID, a.ID, b.ID, "")
	require.NoError(t, err)

	require.NoError(t, f.drawings.MoveLinearPoint(f.ctx, f.pageID, arrow.ID, 1, geometry.Pt(600, 600)))

	moved := f.get(t, arrow.ID)
	assert.Nil(t, moved.EndBinding)
	assert.NotNil(t, moved.StartBinding)
	assertAt(t, geometry.Pt(600, 600), endOf(moved))
	assert.Empty(t, f.get(t, b.ID).BoundElementIDs)

	assert.Error(t, f.drawings.MoveLinearPoint(f.ctx, f.pageID, arrow.ID, 7, geometry.Pt(0, 0)))
}

func TestDrawing_BindEndpoint(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)
	b := f.rect(t, 300, 0)
	arrow, err := f.drawings.AddLinear(f.ctx, f.pageID, service.LinearInput{
		Points: []geometry.Point{geometry.Pt(105, 50), geometry.Pt(295, 50)},
	})
	require.NoError(t, err)
	require.NoError(t, f.drawings.UnbindEndpoint(f.ctx, f.pageID, arrow.ID, domain.EndpointStart))
	assert.Empty(t, f.get(t, a.ID).BoundElementIDs)

	target, err := f.drawings.BindEndpoint(f.ctx, f.pageID, arrow.ID, domain.EndpointStart, "")
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, a.ID, target.ID)

	target, err = f.drawings.BindEndpoint(f.ctx, f.pageID, arrow.ID, domain.EndpointEnd, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, target.ID)
	assert.Equal(t, b.ID, f.get(t, arrow.ID).EndBinding.ElementID)

	_, err = f.drawings.BindEndpoint(f.ctx, f.pageID, a.ID, domain.EndpointStart, b.ID)
	assert.ErrorIs(t, err, service.ErrNotLinear)
	_, err = f.drawings.BindEndpoint(f.ctx, f.pageID, arrow.ID, "middle", b.ID)
	assert.Error(t, err)
}

func TestDrawing_DeleteShapeDetachesArrows(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)
	b := f.rect(t, 300, 0)
	arrow, err := f.drawings.ConnectElements(f.ctx, f.pageID, a.ID, b.ID, "")
	require.NoError(t, err)

	require.NoError(t, f.drawings.DeleteElement(f.ctx, f.pageID, a.ID))

	moved := f.get(t, arrow.ID)
	assert.Nil(t, moved.StartBinding)
	assert.NotNil(t, moved.EndBinding)
	_, err = f.drawings.GetElement(f.pageID, a.ID)
	assert.ErrorIs(t, err, service.ErrElementNotFound)
	assert.ErrorIs(t, f.drawings.DeleteElement(f.ctx, f.pageID, a.ID), service.ErrElementNotFound)

	elements, err := f.drawings.ListElements(f.pageID)
	require.NoError(t, err)
	assert.Len(t, elements, 2)

	data, err := f.drawings.ExportScene(f.pageID)
	require.NoError(t, err)
	assert.Contains(t, data, `"isDeleted":true`, "deleted elements stay in the stored drawing")
}

func TestDrawing_DeleteArrowLeavesShapes(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)
	b := f.rect(t, 300, 0)
	arrow, err := f.drawings.ConnectElements(f.ctx, f.pageID, a.ID, b.ID, "")
	require.NoError(t, err)

	require.NoError(t, f.drawings.DeleteElement(f.ctx, f.pageID, arrow.ID))

	assert.Empty(t, f.get(t, a.ID).BoundElementIDs)
	assert.Empty(t, f.get(t, b.ID).BoundElementIDs)
}

func TestDrawing_DrawShape(t *testing.T) {
	f := newFixture(t)

	el, err := f.drawings.DrawShape(f.ctx, f.pageID, domain.ElementTypeEllipse, geometry.Pt(10, 10), geometry.Pt(60, 40), false, false)
	require.NoError(t, err)
	assert.Equal(t, [4]float64{10, 10, 50, 30}, [4]float64{el.X, el.Y, el.Width, el.Height})

	_, err = f.drawings.DrawShape(f.ctx, f.pageID, domain.ElementTypeRectangle, geometry.Pt(10, 10), geometry.Pt(10, 90), false, false)
	assert.ErrorIs(t, err, service.ErrEmptyShape)

	elements, err := f.drawings.ListElements(f.pageID)
	require.NoError(t, err)
	assert.Len(t, elements, 1, "failed draw is not committed")
}

func TestDrawing_UndoRedo(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)
	_, err := f.drawings.MoveElement(f.ctx, f.pageID, a.ID, 40, 40)
	require.NoError(t, err)

	require.NoError(t, f.drawings.Undo(f.ctx, f.pageID))
	assert.Equal(t, 0.0, f.get(t, a.ID).X)

	require.NoError(t, f.drawings.Undo(f.ctx, f.pageID))
	elements, err := f.drawings.ListElements(f.pageID)
	require.NoError(t, err)
	assert.Empty(t, elements)

	assert.ErrorIs(t, f.drawings.Undo(f.ctx, f.pageID), storage.ErrNoUndo)

	require.NoError(t, f.drawings.Redo(f.ctx, f.pageID))
	assert.Equal(t, 0.0, f.get(t, a.ID).X)
}

func TestDrawing_ImportRepairsAndSkipsNoOps(t *testing.T) {
	f := newFixture(t)
	data := `[
		{"id":"r","type":"rectangle","x":0,"y":0,"width":100,"height":100,"version":1,"versionNonce":0},
		{"id":"a","type":"arrow","x":105,"y":50,"width":100,"height":0,"points":[[0,0],[100,0]],
		 "startBinding":{"elementId":"ghost","focusPoint":[50,50],"gap":5},"version":1,"versionNonce":0}
	]`

	require.NoError(t, f.drawings.ImportScene(f.ctx, f.pageID, data))
	assert.Nil(t, f.get(t, "a").StartBinding)
	assert.Equal(t, 1, f.changes())

	exported, err := f.drawings.ExportScene(f.pageID)
	require.NoError(t, err)
	require.NoError(t, f.drawings.ImportScene(f.ctx, f.pageID, exported))
	assert.Equal(t, 1, f.changes(), "importing the current drawing commits nothing")

	assert.Error(t, f.drawings.ImportScene(f.ctx, f.pageID, "{not json"))
}

func TestDrawing_UnknownPage(t *testing.T) {
	f := newFixture(t)
	_, err := f.drawings.AddShape(f.ctx, "nope", service.ShapeInput{Type: domain.ElementTypeRectangle, Width: 1, Height: 1})
	assert.Error(t, err)
	_, err = f.drawings.AddShape(f.ctx, f.pageID, service.ShapeInput{Type: "star", Width: 1, Height: 1})
	assert.Error(t, err)
}

func TestNotebookService_PageStateHidesDeleted(t *testing.T) {
	f := newFixture(t)
	a := f.rect(t, 0, 0)
	f.rect(t, 300, 0)
	require.NoError(t, f.drawings.DeleteElement(f.ctx, f.pageID, a.ID))

	state, err := f.notebooks.GetPageState(f.pageID)
	require.NoError(t, err)
	assert.Len(t, state.Elements, 1)

	require.NoError(t, f.notebooks.UpdateViewport(f.ctx, f.pageID, 10, 20, 2))
	assert.Error(t, f.notebooks.UpdateViewport(f.ctx, f.pageID, 0, 0, 0))
}
