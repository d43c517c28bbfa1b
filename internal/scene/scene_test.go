package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard/internal/domain"
	"whiteboard/internal/geometry"
)

func box(id string, x, y float64) *domain.Element {
	return &domain.Element{ID: id, Type: domain.ElementTypeRectangle, X: x, Y: y, Width: 100, Height: 100}
}

func insideBox(el *domain.Element, p geometry.Point) bool {
	return geometry.ContainsPoint(el.Shape(), p)
}

func TestElementAtPosition_TopmostWins(t *testing.T) {
	s := New([]*domain.Element{box("bottom", 0, 0), box("top", 50, 50)})

	hit := s.ElementAtPosition(geometry.Pt(75, 75), insideBox)
	require.NotNil(t, hit)
	assert.Equal(t, "top", hit.ID)

	hit = s.ElementAtPosition(geometry.Pt(10, 10), insideBox)
	require.NotNil(t, hit)
	assert.Equal(t, "bottom", hit.ID)

	assert.Nil(t, s.ElementAtPosition(geometry.Pt(500, 500), insideBox))
}

func TestElementAtPosition_SkipsDeleted(t *testing.T) {
	top := box("top", 0, 0)
	top.IsDeleted = true
	s := New([]*domain.Element{box("bottom", 0, 0), top})

	hit := s.ElementAtPosition(geometry.Pt(10, 10), insideBox)
	require.NotNil(t, hit)
	assert.Equal(t, "bottom", hit.ID)
}

func TestNonDeletedElementsByIDs(t *testing.T) {
	gone := box("gone", 0, 0)
	gone.IsDeleted = true
	s := New([]*domain.Element{box("a", 0, 0), box("b", 0, 0), gone})

	got := s.NonDeletedElementsByIDs([]string{"b", "missing", "gone", "a", "b"})
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestMutate_BumpsVersionAndNotifies(t *testing.T) {
	el := box("a", 0, 0)
	s := New([]*domain.Element{el})

	var seen []string
	s.OnChange(func(el *domain.Element) { seen = append(seen, el.ID) })

	before := el.Version
	s.Mutate(el, domain.Patch{X: domain.Float(42)})

	assert.Equal(t, 42.0, el.X)
	assert.Equal(t, before+1, el.Version)
	assert.Equal(t, []string{"a"}, seen)
	assert.Equal(t, []string{"a"}, s.Dirty())

	s.ClearDirty()
	assert.Empty(t, s.Dirty())
}

func TestMutate_BindingAndBoundIDs(t *testing.T) {
	arrow := &domain.Element{ID: "arrow", Type: domain.ElementTypeArrow}
	s := New([]*domain.Element{arrow})

	s.Mutate(arrow, domain.BindingPatch(domain.EndpointEnd, &domain.PointBinding{ElementID: "a", Gap: 4}))
	require.NotNil(t, arrow.EndBinding)
	assert.Equal(t, "a", arrow.EndBinding.ElementID)
	assert.Nil(t, arrow.StartBinding)

	s.Mutate(arrow, domain.BindingPatch(domain.EndpointEnd, nil))
	assert.Nil(t, arrow.EndBinding)
}

func TestAdd_RejectsDuplicates(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Add(box("a", 0, 0)))
	assert.Error(t, s.Add(box("a", 10, 10)))
	assert.Error(t, s.Add(&domain.Element{}))
	assert.Equal(t, 1, s.ElementByID("a").Version)
}

func TestLoadAndMarshal(t *testing.T) {
	data := `[{"id":"r","type":"rectangle","x":0,"y":0,"width":100,"height":100,"boundElementIds":["l"],"version":3,"versionNonce":7},` +
		`{"id":"l","type":"arrow","x":110,"y":50,"width":140,"height":0,"points":[[0,0],[140,0]],` +
		`"startBinding":{"elementId":"r","focusPoint":[50,50],"gap":10},"version":2,"versionNonce":9}]`

	s, err := Load(data)
	require.NoError(t, err)
	require.Len(t, s.Elements(), 2)

	l := s.ElementByID("l")
	require.NotNil(t, l.StartBinding)
	assert.Equal(t, geometry.Pt(50, 50), l.StartBinding.FocusPoint)
	assert.Equal(t, geometry.Pt(140, 0), l.Points[1])

	out, err := s.Marshal()
	require.NoError(t, err)
	again, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, s.Elements(), again.Elements())
}

func TestLoad_Empty(t *testing.T) {
	for _, data := range []string{"", "[]"} {
		s, err := Load(data)
		require.NoError(t, err)
		assert.Empty(t, s.Elements())
		out, err := s.Marshal()
		require.NoError(t, err)
		assert.Equal(t, "[]", out)
	}

	_, err := Load("{not json")
	assert.Error(t, err)
}
