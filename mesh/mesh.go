package mesh

import (
	"github.com/binzume/gltfgen/attrib"
	"github.com/binzume/gltfgen/geom"
	"github.com/pkg/errors"
)

type Kind int

const (
	TriMesh Kind = iota
	PointCloud
)

func (k Kind) String() string {
	if k == PointCloud {
		return "PointCloud"
	}
	return "TriMesh"
}

// MaterialAttribute is the face attribute (vertex attribute for point
// clouds) holding indices into Mesh.Materials. Loaders that read material
// libraries set it.
const MaterialAttribute = "material"

// Attributes maps an attribute name to its values.
type Attributes map[string]*attrib.Buffer

// Take removes and returns the named attribute.
func (a Attributes) Take(name string) (*attrib.Buffer, bool) {
	b, ok := a[name]
	if ok {
		delete(a, name)
	}
	return b, ok
}

// LocalMaterial is a material read from an input file, not yet registered
// in the document material table. It is comparable by value.
type LocalMaterial struct {
	Name      string
	BaseColor [4]float32
	Texture   string // path of the base color image, if any
}

// Mesh is a triangle mesh or a point cloud.
//
// Vertex attributes have one element per position. Face attributes have one
// element per face. FaceVertex attributes hold element f*3+k for corner k of
// face f, and FaceEdge attributes element f*3+k for the edge from corner k to
// corner (k+1)%3.
type Mesh struct {
	Kind       Kind
	Positions  [][3]float32
	Faces      [][3]uint32
	Vertex     Attributes
	Face       Attributes
	FaceVertex Attributes
	FaceEdge   Attributes
	Materials  []*LocalMaterial
}

func NewTriMesh(positions [][3]float32, faces [][3]uint32) *Mesh {
	return &Mesh{
		Kind:       TriMesh,
		Positions:  positions,
		Faces:      faces,
		Vertex:     Attributes{},
		Face:       Attributes{},
		FaceVertex: Attributes{},
		FaceEdge:   Attributes{},
	}
}

func NewPointCloud(positions [][3]float32) *Mesh {
	m := NewTriMesh(positions, nil)
	m.Kind = PointCloud
	return m
}

func (m *Mesh) NumVertices() int {
	return len(m.Positions)
}

func (m *Mesh) NumFaces() int {
	return len(m.Faces)
}

// Validate checks face indices and attribute lengths.
func (m *Mesh) Validate() error {
	nv := uint32(len(m.Positions))
	for i, f := range m.Faces {
		if f[0] >= nv || f[1] >= nv || f[2] >= nv {
			return errors.Errorf("face %d references a vertex out of range (%d vertices)", i, nv)
		}
	}
	check := func(store Attributes, kind string, n int) error {
		for name, b := range store {
			if b.Len() != n {
				return errors.Errorf("%s attribute %q has %d elements, want %d", kind, name, b.Len(), n)
			}
		}
		return nil
	}
	if err := check(m.Vertex, "vertex", len(m.Positions)); err != nil {
		return err
	}
	if err := check(m.Face, "face", len(m.Faces)); err != nil {
		return err
	}
	if err := check(m.FaceVertex, "face-vertex", len(m.Faces)*3); err != nil {
		return err
	}
	return check(m.FaceEdge, "face-edge", len(m.Faces)*3)
}

// Bounds returns the bounding box of the positions.
func (m *Mesh) Bounds() (min, max [3]float32) {
	return geom.Bounds(m.Positions)
}

// Indices returns the flattened face indices.
func (m *Mesh) Indices() []uint32 {
	idx := make([]uint32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		idx = append(idx, f[0], f[1], f[2])
	}
	return idx
}

// EqualTopology reports whether a and b have the same kind, vertex count and
// face indices.
func EqualTopology(a, b *Mesh) bool {
	if a.Kind != b.Kind || len(a.Positions) != len(b.Positions) || len(a.Faces) != len(b.Faces) {
		return false
	}
	for i := range a.Faces {
		if a.Faces[i] != b.Faces[i] {
			return false
		}
	}
	return true
}

// Reverse flips the orientation of every face.
func (m *Mesh) Reverse() {
	for i, f := range m.Faces {
		m.Faces[i] = [3]uint32{f[0], f[2], f[1]}
	}
	corners := make([]int, 0, len(m.Faces)*3)
	edges := make([]int, 0, len(m.Faces)*3)
	for f := range m.Faces {
		corners = append(corners, f*3, f*3+2, f*3+1)
		edges = append(edges, f*3+2, f*3+1, f*3)
	}
	for name, b := range m.FaceVertex {
		m.FaceVertex[name] = b.Gather(corners)
	}
	for name, b := range m.FaceEdge {
		m.FaceEdge[name] = b.Gather(edges)
	}
}

// ClearAttributes drops every attribute and the local material table.
func (m *Mesh) ClearAttributes() {
	m.Vertex = Attributes{}
	m.Face = Attributes{}
	m.FaceVertex = Attributes{}
	m.FaceEdge = Attributes{}
	m.Materials = nil
}

func (a Attributes) clone() Attributes {
	c := make(Attributes, len(a))
	for n, b := range a {
		c[n] = b
	}
	return c
}

// Clone copies positions, faces and the attribute maps. Attribute buffers
// are shared; mesh operations replace buffers instead of modifying them.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Kind:       m.Kind,
		Positions:  append([][3]float32(nil), m.Positions...),
		Faces:      append([][3]uint32(nil), m.Faces...),
		Vertex:     m.Vertex.clone(),
		Face:       m.Face.clone(),
		FaceVertex: m.FaceVertex.clone(),
		FaceEdge:   m.FaceEdge.clone(),
		Materials:  m.Materials,
	}
}
