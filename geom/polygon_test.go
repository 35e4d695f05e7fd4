package geom

import (
	"testing"
)

func indices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func TestTriangulate(t *testing.T) {
	tri := [][3]Element{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}}
	if tris := Triangulate(tri, indices(3)); len(tris) != 1 || tris[0] != [3]int{0, 1, 2} {
		t.Error("triangle", tris)
	}

	quad := [][3]Element{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	if tris := Triangulate(quad, indices(4)); len(tris) != 2 {
		t.Error("quad", tris)
	}

	// corners refer to positions, results to corners
	if tris := Triangulate(quad, []int{3, 2, 1}); len(tris) != 1 || tris[0] != [3]int{0, 1, 2} {
		t.Error("indirect", tris)
	}

	// non-convex
	arrow := [][3]Element{{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {1, 0.5, 0}, {0, 2, 0}}
	tris := Triangulate(arrow, indices(5))
	if len(tris) != 3 {
		t.Error("non-convex", tris)
	}
	for _, tri := range tris {
		if tri == [3]int{4, 0, 1} {
			t.Error("ear contains the reflex vertex", tris)
		}
		if Normal(Vec3(arrow[tri[0]]), Vec3(arrow[tri[1]]), Vec3(arrow[tri[2]]))[2] <= 0 {
			t.Error("winding flipped", tri)
		}
	}

	if len(Triangulate(nil, nil)) != 0 {
		t.Error("not empty")
	}
}
