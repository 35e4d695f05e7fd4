package mesh

import "sort"

// Outward faces of a positively oriented tetrahedron (a, b, c, d).
var tetFaces = [4][3]int{{1, 2, 3}, {0, 3, 2}, {0, 1, 3}, {0, 2, 1}}

// SurfaceFromTets builds the boundary surface of a tetrahedral mesh: every
// tetrahedron face not shared with another tetrahedron. All vertices are
// kept so vertex attributes stay valid.
func SurfaceFromTets(positions [][3]float32, tets [][4]uint32, vertex Attributes) *Mesh {
	type key [3]uint32
	count := map[key]int{}
	var faces [][3]uint32
	for _, t := range tets {
		for _, tf := range tetFaces {
			f := [3]uint32{t[tf[0]], t[tf[1]], t[tf[2]]}
			k := key(f)
			sort.Slice(k[:], func(i, j int) bool { return k[i] < k[j] })
			if count[k] == 0 {
				faces = append(faces, f)
			}
			count[k]++
		}
	}
	surface := make([][3]uint32, 0, len(faces))
	for _, f := range faces {
		k := key(f)
		sort.Slice(k[:], func(i, j int) bool { return k[i] < k[j] })
		if count[k] == 1 {
			surface = append(surface, f)
		}
	}
	m := NewTriMesh(positions, surface)
	for n, b := range vertex {
		m.Vertex[n] = b
	}
	return m
}
