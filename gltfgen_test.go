package gltfgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/binzume/gltfgen/config"
	"github.com/binzume/gltfgen/converter"
	"github.com/binzume/gltfgen/diag"
	"github.com/binzume/gltfgen/discover"
	"github.com/binzume/gltfgen/gltfutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTriangle(t *testing.T, path string, x float32) {
	t.Helper()
	src := fmt.Sprintf("v %g 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", x)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func TestLoadFrames(t *testing.T) {
	dir := t.TempDir()
	var entries []discover.Entry
	for _, frame := range []int{3, 1, 2} {
		path := filepath.Join(dir, fmt.Sprintf("tri_%d.obj", frame))
		writeTriangle(t, path, float32(frame))
		entries = append(entries, discover.Entry{Name: "tri", Frame: frame, Path: path})
	}
	bad := filepath.Join(dir, "tri_4.ply")
	require.NoError(t, os.WriteFile(bad, []byte("ply\n"), 0o644))
	entries = append(entries, discover.Entry{Name: "tri", Frame: 4, Path: bad})

	cfg := config.Default()
	cfg.Workers = 2
	sink := diag.New(nil)
	frames, err := LoadFrames(context.Background(), entries, cfg, sink)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, "tri", f.Name)
		assert.Equal(t, i+1, f.Frame)
		assert.Equal(t, [3]float32{float32(i + 1), 0, 0}, f.Mesh.Positions[0])
		assert.NotNil(t, f.Transfer)
	}
	assert.True(t, sink.Has("load"))
}

func TestLoadFramesReportsLoaderProblems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri_1.obj")
	src := "mtllib missing.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	sink := diag.New(nil)
	frames, err := LoadFrames(context.Background(), []discover.Entry{{Name: "tri", Frame: 1, Path: path}}, config.Default(), sink)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, sink.Has(path))
}

func TestLoadFramesErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()

	missing := []discover.Entry{{Name: "a", Frame: 1, Path: filepath.Join(dir, "missing.obj")}}
	_, err := LoadFrames(context.Background(), missing, cfg, nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, converter.ErrNoMeshes)

	bad := filepath.Join(dir, "a_1.ply")
	require.NoError(t, os.WriteFile(bad, []byte("ply\n"), 0o644))
	_, err = LoadFrames(context.Background(), []discover.Entry{{Name: "a", Frame: 1, Path: bad}}, cfg, nil)
	assert.ErrorIs(t, err, converter.ErrNoMeshes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	good := filepath.Join(dir, "a_2.obj")
	writeTriangle(t, good, 0)
	_, err = LoadFrames(ctx, []discover.Entry{{Name: "a", Frame: 2, Path: good}}, cfg, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	for frame := 1; frame <= 3; frame++ {
		writeTriangle(t, filepath.Join(dir, fmt.Sprintf("tri_%d.obj", frame)), float32(frame))
	}

	cfg := config.Default()
	out, err := Run(context.Background(), filepath.Join(dir, "{tri}_#.obj"), filepath.Join(dir, "out"), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.glb"), out)

	doc, err := gltfutil.Load(out)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "tri", doc.Nodes[0].Name)
	assert.Equal(t, "gltfgen "+Version, doc.Asset.Generator)
	require.Len(t, doc.Meshes, 1)
	assert.Len(t, doc.Meshes[0].Primitives[0].Targets, 2)
	require.Len(t, doc.Animations, 1)
	assert.Len(t, doc.Animations[0].Channels, 1)

	times, err := gltfutil.ReadFloats(doc, *doc.Animations[0].Samplers[0].Input)
	require.NoError(t, err)
	dt := cfg.Dt()
	assert.Equal(t, []float32{1 * dt, 2 * dt, 3 * dt}, times)

	_, err = Run(context.Background(), filepath.Join(dir, "{none}_#.obj"), filepath.Join(dir, "none.glb"), cfg, nil)
	assert.ErrorIs(t, err, discover.ErrNoMatches)
	assert.ErrorIs(t, err, converter.ErrNoMeshes)
	assert.NoFileExists(t, filepath.Join(dir, "none.glb"))
}
