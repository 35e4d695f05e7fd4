package mesh

import (
	"github.com/binzume/gltfgen/attrib"
	"github.com/pkg/errors"
)

// SplitVertices duplicates every vertex whose corners disagree on the named
// face-vertex attribute, so that each resulting vertex sees a single value.
// Faces are rewritten to reference the duplicates and vertex attributes are
// copied along. It returns the number of vertices added.
func (m *Mesh) SplitVertices(name string) int {
	fv, ok := m.FaceVertex[name]
	if !ok || m.Kind != TriMesh {
		return 0
	}
	type variant struct {
		corner int
		vertex uint32
	}
	variants := make([][]variant, len(m.Positions))
	var sources []int
	for f := range m.Faces {
		for k := 0; k < 3; k++ {
			c, v := f*3+k, m.Faces[f][k]
			dst, found := v, false
			for _, vr := range variants[v] {
				if fv.Equal(vr.corner, c) {
					dst, found = vr.vertex, true
					break
				}
			}
			if !found {
				if len(variants[v]) > 0 {
					dst = uint32(len(m.Positions) + len(sources))
					sources = append(sources, int(v))
				}
				variants[v] = append(variants[v], variant{corner: c, vertex: dst})
			}
			m.Faces[f][k] = dst
		}
	}
	if len(sources) == 0 {
		return 0
	}

	idx := make([]int, 0, len(m.Positions)+len(sources))
	for i := range m.Positions {
		idx = append(idx, i)
	}
	idx = append(idx, sources...)
	for _, s := range sources {
		m.Positions = append(m.Positions, m.Positions[s])
	}
	for n, b := range m.Vertex {
		m.Vertex[n] = b.Gather(idx)
	}
	return len(sources)
}

// PromoteFaceVertex converts the named face-vertex attribute into a vertex
// attribute. It fails if two corners sharing a vertex disagree; call
// SplitVertices first. Vertices not used by any face take the value of the
// first corner.
func (m *Mesh) PromoteFaceVertex(name string) (*attrib.Buffer, error) {
	fv, ok := m.FaceVertex[name]
	if !ok {
		return nil, errors.Errorf("no face-vertex attribute %q", name)
	}
	src := make([]int, len(m.Positions))
	for i := range src {
		src[i] = -1
	}
	for f, face := range m.Faces {
		for k, v := range face {
			c := f*3 + k
			if src[v] < 0 {
				src[v] = c
			} else if !fv.Equal(src[v], c) {
				return nil, errors.Errorf("vertex %d has conflicting %q values", v, name)
			}
		}
	}
	for i := range src {
		if src[i] < 0 {
			if fv.Len() == 0 {
				return nil, errors.Errorf("attribute %q has no values for vertex %d", name, i)
			}
			src[i] = 0
		}
	}
	return fv.Gather(src), nil
}
