package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard/internal/service"
)

const danglingDrawing = `[
	{"id":"r","type":"rectangle","x":0,"y":0,"width":100,"height":100,"version":1,"versionNonce":0},
	{"id":"a","type":"arrow","x":105,"y":50,"width":100,"height":0,"points":[[0,0],[100,0]],
	 "startBinding":{"elementId":"ghost","focusPoint":[50,50],"gap":5},"version":1,"versionNonce":0}
]`

func TestJanitor_RunOnceRepairsPages(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.UpdateDrawingData(f.pageID, danglingDrawing))

	j := service.NewJanitor(f.store, f.drawings, f.undos, "")
	rep, err := j.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Pages)
	assert.Equal(t, 1, rep.RepairedPages)
	assert.Equal(t, 1, rep.Bindings.ClearedBindings)
	assert.Zero(t, rep.Failed)
	assert.Nil(t, f.get(t, "a").StartBinding)

	rep, err = j.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.RepairedPages, "a clean page needs no repair")
}

func TestJanitor_CountsBrokenPages(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.UpdateDrawingData(f.pageID, "{broken"))

	rep, err := service.NewJanitor(f.store, f.drawings, f.undos, "").RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
}

func TestJanitor_Schedule(t *testing.T) {
	f := newFixture(t)

	bad := service.NewJanitor(f.store, f.drawings, f.undos, "every so often")
	assert.Error(t, bad.Start(context.Background()))

	j := service.NewJanitor(f.store, f.drawings, f.undos, "@every 1h")
	require.NoError(t, j.Start(context.Background()))
	j.Stop(context.Background())

	disabled := service.NewJanitor(f.store, f.drawings, f.undos, "")
	require.NoError(t, disabled.Start(context.Background()))
	disabled.Stop(context.Background())
}
