// Package converter turns loaded mesh frames into a glTF document with one
// morph-animated node per run of frames that share topology.
package converter

import (
	"github.com/binzume/gltfgen/attrib"
	"github.com/binzume/gltfgen/geom"
	"github.com/binzume/gltfgen/mesh"
	"github.com/binzume/gltfgen/transfer"
	"github.com/pkg/errors"
)

var ErrNoMeshes = errors.New("no meshes found")

// Frame is one cleaned input mesh.
type Frame struct {
	Name     string
	Frame    int
	Mesh     *mesh.Mesh
	Transfer *transfer.AttribTransfer
}

// Morph is a frame expressed as displacements from the first frame of its node.
type Morph struct {
	Frame    int
	Position [][3]float32
	Normal   [][3]float32 // nil unless morph normals are enabled and present
	Tangent  [][3]float32
}

// Node is a maximal run of frames with the same name, topology and materials.
type Node struct {
	Name       string
	FirstFrame int
	Mesh       *mesh.Mesh
	Transfer   *transfer.AttribTransfer
	Morphs     []Morph
}

// LastFrame returns the frame number of the last frame in the node.
func (n *Node) LastFrame() int {
	if len(n.Morphs) == 0 {
		return n.FirstFrame
	}
	return n.Morphs[len(n.Morphs)-1].Frame
}

// SegmentOptions selects the optional displacements stored in morphs.
type SegmentOptions struct {
	MorphNormals  bool
	MorphTangents bool
}

// IntoNodes groups frames sorted by (name, frame) into nodes. A new node
// starts when the name, the topology or the material assignment changes.
// File-local material ids are registered in table before comparing.
func IntoNodes(frames []*Frame, table *MaterialTable, opt SegmentOptions) []*Node {
	var nodes []*Node
	var cur *Node
	for _, f := range frames {
		tr := *f.Transfer
		if tr.MaterialIDs.IsLocal() {
			tr.MaterialIDs = table.PromoteLocal(tr.MaterialIDs)
		}
		if cur == nil || cur.Name != f.Name || !mesh.EqualTopology(cur.Mesh, f.Mesh) || !cur.Transfer.MaterialIDs.Equal(tr.MaterialIDs) {
			cur = &Node{Name: f.Name, FirstFrame: f.Frame, Mesh: f.Mesh, Transfer: &tr}
			nodes = append(nodes, cur)
			continue
		}
		m := Morph{
			Frame:    f.Frame,
			Position: geom.Displacements(cur.Mesh.Positions, f.Mesh.Positions),
		}
		if opt.MorphNormals {
			m.Normal = displacements(cur.Transfer.Normals, tr.Normals, 3)
		}
		if opt.MorphTangents {
			m.Tangent = displacements(cur.Transfer.Tangents, tr.Tangents, 4)
		}
		cur.Morphs = append(cur.Morphs, m)
	}
	return nodes
}

// displacements returns the xyz difference of two float vector buffers with
// n components per element, or nil if either is missing.
func displacements(base, next *attrib.Buffer, n int) [][3]float32 {
	if base == nil || next == nil || base.Len() != next.Len() {
		return nil
	}
	a, ok1 := attrib.Values[float32](base)
	b, ok2 := attrib.Values[float32](next)
	if !ok1 || !ok2 {
		return nil
	}
	d := make([][3]float32, base.Len())
	for i := range d {
		for k := 0; k < 3; k++ {
			d[i][k] = b[i*n+k] - a[i*n+k]
		}
	}
	return d
}
