package bucking

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jward/taper"
	taperrt "github.com/jward/taper/internal/runtime"
	"github.com/jward/taper/internal/store"
	"github.com/jward/taper/scripts"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTree(t *testing.T, s *store.Store, name string, sp taper.Species, h, d, f float64) *store.Tree {
	t.Helper()
	tree := &store.Tree{Name: name, Species: sp, HeightM: h, DiameterCM: d, FormFactor: f}
	_, err := s.InsertTree(tree)
	require.NoError(t, err)
	return tree
}

func TestBuckAll_SavesEveryTree(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTree(t, s, "c", taper.SouthernPine, 20, 25, 0.5)
	insertTree(t, s, "a", taper.NorthernSpruce, 22, 27, 0.47)
	insertTree(t, s, "b", taper.NorthernPine, 16, 19, 0.52)

	e := New(s, "", WithScriptsFS(scripts.FS), WithWorkers(2))
	results, err := e.BuckAll(context.Background(), Request{Script: "buck.risor", Save: true})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].Tree.Name, results[1].Tree.Name, results[2].Tree.Name})

	for _, r := range results {
		require.NoError(t, r.Err)
		require.NotEmpty(t, r.Logs, r.Tree.Name)

		stored, err := s.AssortmentsByTree(r.Tree.ID)
		require.NoError(t, err)
		require.Len(t, stored, len(r.Logs), r.Tree.Name)
		for i, a := range stored {
			assert.Equal(t, r.Logs[i].Kind, a.Kind)
			assert.Equal(t, "buck.risor", a.Script)
		}
	}

	// Same tree as the runtime's own bucking test.
	pine := results[2]
	assert.Len(t, pine.Logs, 6)
}

func TestBuckAll_WithoutSave(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	tree := insertTree(t, s, "t", taper.SouthernPine, 20, 25, 0.5)

	e := New(s, "", WithScriptsFS(scripts.FS))
	results, err := e.BuckAll(context.Background(), Request{Script: "buck.risor"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Logs)

	stored, err := s.AssortmentsByTree(tree.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestBuckAll_SerialMatchesParallel(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	for i, sp := range taper.AllSpecies() {
		insertTree(t, s, sp.String(), sp, 15+float64(i)*3, 18+float64(i)*4, 0.5)
	}

	req := Request{Script: "buck.risor", Params: map[string]float64{"saw_top_cm": 14}}
	serial, err := New(s, "", WithScriptsFS(scripts.FS), WithWorkers(1)).BuckAll(context.Background(), req)
	require.NoError(t, err)
	parallel, err := New(s, "", WithScriptsFS(scripts.FS), WithWorkers(8)).BuckAll(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
}

func TestBuckAll_InvalidTreeReported(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTree(t, s, "good", taper.SouthernPine, 20, 25, 0.5)
	insertTree(t, s, "short", taper.SouthernPine, 1, 25, 0.5)

	e := New(s, "", WithScriptsFS(scripts.FS))
	results, err := e.BuckAll(context.Background(), Request{Script: "buck.risor", Save: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 error(s)")
	assert.Contains(t, err.Error(), "tree short")
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.NotEmpty(t, results[0].Logs)
	assert.ErrorIs(t, results[1].Err, taper.ErrInvalidParams)
	assert.Nil(t, results[1].Logs)
}

func TestBuckAll_ScriptErrorPerTree(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTree(t, s, "big", taper.SouthernPine, 20, 25, 0.5)
	insertTree(t, s, "small", taper.SouthernPine, 8, 9, 0.5)

	// Fails only for trees thinner than 10 cm at breast height.
	fsys := fstest.MapFS{
		"picky.risor": &fstest.MapFile{Data: []byte(`
if tree["diameter_cm"] < 10 {
    diameter_at("too thin")
}
emit({"ordinal": 0, "kind": "whole", "from_m": 0, "to_m": tree["height_m"]})
`)},
	}
	e := New(s, "", WithScriptsFS(fsys))
	results, err := e.BuckAll(context.Background(), Request{Script: "picky.risor"})
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	require.Len(t, results[0].Logs, 1)
	assert.Equal(t, "whole", results[0].Logs[0].Kind)
	assert.Error(t, results[1].Err)
}

func TestBuckAll_NoTrees(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	results, err := New(s, "", WithScriptsFS(scripts.FS)).BuckAll(context.Background(), Request{Script: "buck.risor"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBuckAll_LogsToZap(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTree(t, s, "t", taper.SouthernPine, 20, 25, 0.5)

	core, logs := observer.New(zapcore.DebugLevel)
	e := New(s, "", WithScriptsFS(scripts.FS), WithLogger(zap.New(core)))
	_, err := e.BuckAll(context.Background(), Request{Script: "buck.risor"})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("bucked tree").Len())
	assert.Equal(t, 1, logs.FilterField(zap.String("script", "buck.risor")).Len(), "script log call")
}

func TestToAssortments(t *testing.T) {
	t.Parallel()

	rows := []taperrt.Row{
		{"ordinal": int64(0), "kind": "saw", "from_m": 0.1, "to_m": 3.1, "top_cm": 22.9, "volume_m3": 0.148},
		{"ordinal": int64(1), "kind": "pulp", "from_m": 3.1, "to_m": int64(5)},
	}
	got := ToAssortments(rows, "buck.risor")
	require.Len(t, got, 2)
	assert.Equal(t, store.Assortment{Ordinal: 0, Kind: "saw", FromM: 0.1, ToM: 3.1, TopCM: 22.9, VolumeM3: 0.148, Script: "buck.risor"}, *got[0])
	assert.Equal(t, 5.0, got[1].ToM)
	assert.Zero(t, got[1].VolumeM3)
	assert.NotNil(t, ToAssortments(nil, ""))
}
