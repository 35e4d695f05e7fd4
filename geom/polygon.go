package geom

// IsInTriangle reports whether p lies strictly inside triangle abc.
func IsInTriangle(p, a, b, c Vec3) bool {
	c1 := b.Sub(a).Cross(p.Sub(a))
	c2 := c.Sub(b).Cross(p.Sub(b))
	c3 := a.Sub(c).Cross(p.Sub(c))
	return c1.Dot(c2) > 0 && c2.Dot(c3) > 0 && c3.Dot(c1) > 0
}

// Triangulate splits the polygon given by corners (indices into positions)
// into triangles by ear clipping. Returned triangles index into corners and
// keep the polygon winding.
func Triangulate(positions [][3]Element, corners []int) [][3]int {
	n := len(corners)
	if n < 3 {
		return nil
	}
	if n == 3 {
		return [][3]int{{0, 1, 2}}
	}
	at := func(i int) Vec3 { return Vec3(positions[corners[i]]) }

	var normal Vec3
	for i := 0; i < n; i++ {
		normal = normal.Add(Normal(at(i), at((i+1)%n), at((i+2)%n)))
	}

	ring := make([]int, n)
	for i := range ring {
		ring[i] = i
	}
	var dst [][3]int
	for len(ring) > 3 {
		clipped := false
		for i := 0; i < len(ring) && len(ring) > 3; i++ {
			i0, i1, i2 := ring[(i+len(ring)-1)%len(ring)], ring[i], ring[(i+1)%len(ring)]
			v0, v1, v2 := at(i0), at(i1), at(i2)
			if Normal(v0, v1, v2).Dot(normal) <= 0 {
				continue
			}
			ear := true
			for _, j := range ring {
				if j != i0 && j != i1 && j != i2 && IsInTriangle(at(j), v0, v1, v2) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			dst = append(dst, [3]int{i0, i1, i2})
			ring = append(ring[:i], ring[i+1:]...)
			clipped = true
			i--
		}
		if !clipped {
			// degenerate or self-intersecting
			break
		}
	}
	for i := 1; i+1 < len(ring); i++ {
		dst = append(dst, [3]int{ring[0], ring[i], ring[i+1]})
	}
	return dst
}
