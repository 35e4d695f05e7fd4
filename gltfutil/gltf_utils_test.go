package gltfutil_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/binzume/gltfgen/converter"
	"github.com/binzume/gltfgen/gltfutil"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() (*gltf.Document, uint32, uint32) {
	doc := gltf.NewDocument()
	b := converter.NewDocumentBuilder(doc, nil)
	pos := b.AddVec3("", [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := b.AddIndices([]uint32{0, 1, 2})
	weights := b.AddSparseWeights(3)
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Primitives: []*gltf.Primitive{{
		Attributes: map[string]uint32{"POSITION": pos},
		Indices:    gltf.Index(idx),
	}}})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: gltf.Index(0), Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, pos, weights
}

func TestWriteBinary(t *testing.T) {
	doc, _, _ := testDocument()
	var w bytes.Buffer
	require.NoError(t, gltfutil.WriteBinary(doc, &w))
	assertGLB(t, w.Bytes())
}

func assertGLB(t *testing.T, data []byte) {
	t.Helper()
	require.True(t, len(data) > 20)
	assert.Equal(t, "glTF", string(data[0:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, uint32(len(data)), binary.LittleEndian.Uint32(data[8:12]))
	assert.Equal(t, 0, len(data)%4)

	jsonLen := binary.LittleEndian.Uint32(data[12:16])
	assert.Equal(t, "JSON", string(data[16:20]))
	assert.Equal(t, uint32(0), jsonLen%4)
	bin := data[20+jsonLen:]
	assert.Equal(t, "BIN\x00", string(bin[4:8]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(bin[0:4])%4)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()

	t.Run("glb", func(t *testing.T) {
		doc, pos, _ := testDocument()
		path := filepath.Join(dir, "box")
		require.NoError(t, gltfutil.Save(doc, path))
		data, err := os.ReadFile(path + ".glb")
		require.NoError(t, err)
		assertGLB(t, data)

		loaded, err := gltfutil.Load(path + ".glb")
		require.NoError(t, err)
		v, err := gltfutil.ReadFloats(loaded, pos)
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, v)
		assert.Equal(t, []float32{0, 0, 0}, loaded.Accessors[pos].Min)
		assert.Equal(t, []float32{1, 1, 0}, loaded.Accessors[pos].Max)
	})

	t.Run("gltf", func(t *testing.T) {
		doc, _, weights := testDocument()
		path := filepath.Join(dir, "box.gltf")
		require.NoError(t, gltfutil.Save(doc, path))
		_, err := os.Stat(filepath.Join(dir, "box.bin"))
		require.NoError(t, err)

		loaded, err := gltf.Open(path)
		require.NoError(t, err)
		assert.Equal(t, "box.bin", loaded.Buffers[0].URI)
		w, err := gltfutil.ReadFloats(loaded, weights)
		require.NoError(t, err)
		require.Len(t, w, 12)
		for frame := 0; frame < 4; frame++ {
			for target := 0; target < 3; target++ {
				want := float32(0)
				if frame == target+1 {
					want = 1
				}
				assert.Equal(t, want, w[frame*3+target], "frame %d target %d", frame, target)
			}
		}
	})
}

func TestIsBinary(t *testing.T) {
	assert.True(t, gltfutil.IsBinary("out.glb"))
	assert.True(t, gltfutil.IsBinary("out.GLB"))
	assert.True(t, gltfutil.IsBinary("out"))
	assert.False(t, gltfutil.IsBinary("out.gltf"))
	assert.False(t, gltfutil.IsBinary("out.json"))
	assert.Equal(t, "out.glb", gltfutil.OutputPath("out"))
	assert.Equal(t, "out.gltf", gltfutil.OutputPath("out.gltf"))
}

func TestReadFloatsErrors(t *testing.T) {
	doc, _, _ := testDocument()
	_, err := gltfutil.ReadFloats(doc, 99)
	assert.Error(t, err)
	// index accessor is u16
	_, err = gltfutil.ReadFloats(doc, 1)
	assert.Error(t, err)
}
