package meshio

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/binzume/gltfgen/attrib"
	"github.com/binzume/gltfgen/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const quadMqo = `Metasequoia Document
Format Text Ver 1.1
CodePage utf8

Scene {
	pos 0.0000 0.0000 1500.0000
	amb 0.250 0.250 0.250
}
Material 2 {
	"red" shader(3) col(1.000 0.000 0.000 1.000) dif(0.800) power(5.00)
	"tex" col(1.000 1.000 1.000 0.500) tex("img/check.png")
}
Object "quad" {
	visible 15
	shading 1
	vertex 5 {
		0.0000 0.0000 0.0000
		1.0000 0.0000 0.0000
		1.0000 1.0000 0.0000
		0.0000 1.0000 0.0000
		0.0000 0.0000 -1.0000
	}
	face 2 {
		4 V(0 1 2 3) M(0) UV(0.00000 0.00000 1.00000 0.00000 1.00000 1.00000 0.00000 1.00000)
		3 V(0 4 1) M(1)
	}
}
Object "hidden" {
	visible 0
	vertex 1 {
		5.0000 5.0000 5.0000
	}
	face 0 {
	}
}
Eof
`

func TestParseMqo(t *testing.T) {
	m, err := NewMqoParser(strings.NewReader(quadMqo), filepath.Join("models", "quad.mqo")).Parse()
	require.NoError(t, err)

	assert.Equal(t, mesh.TriMesh, m.Kind)
	assert.Equal(t, 5, m.NumVertices())
	assert.Equal(t, [][3]uint32{{2, 1, 0}, {3, 2, 0}, {1, 4, 0}}, m.Faces)
	assert.Equal(t, [3]float32{0, 0, -1}, m.Positions[4])

	uv, ok := attrib.Values[float32](m.FaceVertex[TexCoordAttribute])
	require.True(t, ok)
	assert.Equal(t, []float32{1, 1, 1, 0, 0, 0, 0, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0}, uv)

	require.Len(t, m.Materials, 2)
	assert.Equal(t, "red", m.Materials[0].Name)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, m.Materials[0].BaseColor)
	assert.Equal(t, filepath.Join("models", "img", "check.png"), m.Materials[1].Texture)
	assert.Equal(t, float32(0.5), m.Materials[1].BaseColor[3])
	ids, ok := m.Face[mesh.MaterialAttribute].Ints()
	require.True(t, ok)
	assert.Equal(t, []int{0, 0, 1}, ids)
	require.NoError(t, m.Validate())
}

func TestParseMqoShiftJIS(t *testing.T) {
	src := strings.Replace(quadMqo, "CodePage utf8\n", "", 1)
	src = strings.Replace(src, `"red"`, `"赤"`, 1)
	src = strings.Replace(src, "img/check.png", `img\check.png`, 1)
	sjis, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), src)
	require.NoError(t, err)

	m, err := NewMqoParser(strings.NewReader(sjis), "quad.mqo").Parse()
	require.NoError(t, err)
	assert.Equal(t, "赤", m.Materials[0].Name)
	assert.Equal(t, filepath.Join("img", "check.png"), m.Materials[1].Texture)
}

func TestParseMqoErrors(t *testing.T) {
	_, err := NewMqoParser(strings.NewReader("Metasequoia Document\nEof\n"), "").Parse()
	assert.Error(t, err)

	bad := strings.Replace(quadMqo, "V(0 4 1)", "V(0 9 1)", 1)
	_, err = NewMqoParser(strings.NewReader(bad), "").Parse()
	assert.Error(t, err)
}

func TestLoadMqoz(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.mqoz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("quad.mqo")
	require.NoError(t, err)
	_, err = w.Write([]byte(quadMqo))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	m, err := Load(path, Options{Reverse: true})
	require.NoError(t, err)
	assert.Equal(t, [][3]uint32{{2, 0, 1}, {3, 0, 2}, {1, 0, 4}}, m.Faces)
}
