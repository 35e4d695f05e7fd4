// Package geom has the small amount of vector math the converter needs.
package geom

import "math"

type Element = float32

// Vec3 is a position or direction. It has the layout of mesh positions so
// slices convert without copying.
type Vec3 [3]Element

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vec3) Dot(o Vec3) Element {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

func (v Vec3) Len() Element {
	return Element(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns v scaled to unit length. The zero vector maps to +X.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{1, 0, 0}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// Normal returns the unnormalized normal of the counter-clockwise triangle abc.
func Normal(a, b, c Vec3) Vec3 {
	return b.Sub(a).Cross(c.Sub(a))
}
