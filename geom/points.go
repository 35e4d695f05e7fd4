package geom

import "math"

// Bounds returns the axis-aligned bounding box of points. An empty input
// yields a zero box.
func Bounds(points [][3]Element) (min, max [3]Element) {
	if len(points) == 0 {
		return
	}
	for k := 0; k < 3; k++ {
		min[k] = math.MaxFloat32
		max[k] = -math.MaxFloat32
	}
	for _, p := range points {
		for k, x := range p {
			if x < min[k] {
				min[k] = x
			}
			if x > max[k] {
				max[k] = x
			}
		}
	}
	return
}

// Displacements returns to[i] - from[i] for every point. Both slices must
// have the same length.
func Displacements(from, to [][3]Element) [][3]Element {
	d := make([][3]Element, len(from))
	for i := range from {
		d[i] = [3]Element{to[i][0] - from[i][0], to[i][1] - from[i][1], to[i][2] - from[i][2]}
	}
	return d
}
