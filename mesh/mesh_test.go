package mesh

import (
	"testing"

	"github.com/binzume/gltfgen/attrib"
	"github.com/binzume/gltfgen/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad() *Mesh {
	m := NewTriMesh([][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, [][3]uint32{{0, 1, 2}, {0, 2, 3}})
	m.Vertex["temp"] = attrib.New(attrib.Scalar, []float32{10, 11, 12, 13})
	m.FaceVertex["uv"] = attrib.New(attrib.Vec2, []float32{
		0, 0, 1, 0, 1, 1,
		0.5, 0.5, 1, 1, 0, 1,
	})
	return m
}

func TestSplitAndPromote(t *testing.T) {
	m := quad()
	_, err := m.PromoteFaceVertex("uv")
	assert.Error(t, err, "vertex 0 is ambiguous before splitting")

	assert.Equal(t, 1, m.SplitVertices("uv"))
	require.NoError(t, m.Validate())
	assert.Equal(t, 5, m.NumVertices())
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {4, 2, 3}}, m.Faces)
	assert.Equal(t, m.Positions[0], m.Positions[4])

	temp, _ := attrib.Values[float32](m.Vertex["temp"])
	assert.Equal(t, []float32{10, 11, 12, 13, 10}, temp)

	uv, err := m.PromoteFaceVertex("uv")
	require.NoError(t, err)
	v, ok := attrib.Values[float32](uv)
	require.True(t, ok)
	assert.Equal(t, []float32{0, 0, 1, 0, 1, 1, 0, 1, 0.5, 0.5}, v)

	// already consistent
	assert.Equal(t, 0, m.SplitVertices("uv"))
	assert.Equal(t, 0, m.SplitVertices("missing"))
}

func TestReverse(t *testing.T) {
	m := quad()
	m.FaceEdge["crease"] = attrib.New(attrib.Scalar, []uint8{1, 2, 3, 4, 5, 6})
	m.Reverse()
	assert.Equal(t, [][3]uint32{{0, 2, 1}, {0, 3, 2}}, m.Faces)

	uv, _ := attrib.Values[float32](m.FaceVertex["uv"])
	assert.Equal(t, []float32{0, 0, 1, 1, 1, 0, 0.5, 0.5, 0, 1, 1, 1}, uv)
	crease, _ := attrib.Values[uint8](m.FaceEdge["crease"])
	assert.Equal(t, []uint8{3, 2, 1, 6, 5, 4}, crease)
	require.NoError(t, m.Validate())
}

func TestEqualTopology(t *testing.T) {
	a, b := quad(), quad()
	b.Positions[0] = [3]float32{5, 5, 5}
	assert.True(t, EqualTopology(a, b))

	b.Faces[1] = [3]uint32{0, 3, 2}
	assert.False(t, EqualTopology(a, b))

	assert.False(t, EqualTopology(a, NewPointCloud(a.Positions)))
}

func TestValidate(t *testing.T) {
	m := quad()
	require.NoError(t, m.Validate())
	m.Face["mtl"] = attrib.New(attrib.Scalar, []uint32{1})
	assert.Error(t, m.Validate())

	m = quad()
	m.Faces[0][2] = 9
	assert.Error(t, m.Validate())
}

func TestSurfaceFromTets(t *testing.T) {
	pos := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}}
	m := SurfaceFromTets(pos, [][4]uint32{{0, 1, 2, 3}}, nil)
	require.Len(t, m.Faces, 4)

	center := geom.Vec3{0.25, 0.25, 0.25}
	for _, f := range m.Faces {
		a := geom.Vec3(pos[f[0]])
		n := geom.Normal(a, geom.Vec3(pos[f[1]]), geom.Vec3(pos[f[2]]))
		assert.Greater(t, n.Dot(a.Sub(center)), float32(0), "face %v points inward", f)
	}

	// two tetrahedra sharing the face (1, 2, 3)
	m = SurfaceFromTets(pos, [][4]uint32{{0, 1, 2, 3}, {4, 1, 3, 2}}, Attributes{"t": attrib.New(attrib.Scalar, []float32{0, 1, 2, 3, 4})})
	assert.Len(t, m.Faces, 6)
	assert.Equal(t, 5, m.NumVertices())
	assert.Contains(t, m.Vertex, "t")
	require.NoError(t, m.Validate())
}
