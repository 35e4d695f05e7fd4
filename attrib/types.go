package attrib

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// ComponentType is the scalar type of a single attribute component.
type ComponentType int

const (
	I8 ComponentType = iota + 1
	U8
	I16
	U16
	U32
	F32
)

var componentNames = map[ComponentType]string{
	I8:  "i8",
	U8:  "u8",
	I16: "i16",
	U16: "u16",
	U32: "u32",
	F32: "f32",
}

func (c ComponentType) String() string {
	if s, ok := componentNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ComponentType(%d)", int(c))
}

// Size returns the byte width of one component.
func (c ComponentType) Size() int {
	switch c {
	case I8, U8:
		return 1
	case I16, U16:
		return 2
	case U32, F32:
		return 4
	}
	return 0
}

// GLTF returns the accessor componentType code.
func (c ComponentType) GLTF() gltf.ComponentType {
	switch c {
	case I8:
		return gltf.ComponentByte
	case U8:
		return gltf.ComponentUbyte
	case I16:
		return gltf.ComponentShort
	case U16:
		return gltf.ComponentUshort
	case U32:
		return gltf.ComponentUint
	}
	return gltf.ComponentFloat
}

// ParseComponentType accepts "f32", "F32", "u8", ...
func ParseComponentType(s string) (ComponentType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for c, n := range componentNames {
		if n == name {
			return c, nil
		}
	}
	return 0, errors.Errorf("unknown component type %q", s)
}

// Shape is the element layout of an attribute.
type Shape int

const (
	Scalar Shape = iota + 1
	Vec2
	Vec3
	Vec4
	Mat2
	Mat3
	Mat4
)

var shapeNames = map[Shape]string{
	Scalar: "Scalar",
	Vec2:   "Vec2",
	Vec3:   "Vec3",
	Vec4:   "Vec4",
	Mat2:   "Mat2",
	Mat3:   "Mat3",
	Mat4:   "Mat4",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Components returns the number of components in one element.
func (s Shape) Components() int {
	cols, rows := s.dims()
	return cols * rows
}

func (s Shape) dims() (cols, rows int) {
	switch s {
	case Scalar:
		return 1, 1
	case Vec2:
		return 1, 2
	case Vec3:
		return 1, 3
	case Vec4:
		return 1, 4
	case Mat2:
		return 2, 2
	case Mat3:
		return 3, 3
	case Mat4:
		return 4, 4
	}
	return 0, 0
}

func (s Shape) isMatrix() bool {
	return s == Mat2 || s == Mat3 || s == Mat4
}

// GLTF returns the accessor type.
func (s Shape) GLTF() gltf.AccessorType {
	switch s {
	case Vec2:
		return gltf.AccessorVec2
	case Vec3:
		return gltf.AccessorVec3
	case Vec4:
		return gltf.AccessorVec4
	case Mat2:
		return gltf.AccessorMat2
	case Mat3:
		return gltf.AccessorMat3
	case Mat4:
		return gltf.AccessorMat4
	}
	return gltf.AccessorScalar
}

// Type is a (shape, component) pair.
type Type struct {
	Shape     Shape
	Component ComponentType
}

func (t Type) String() string {
	return fmt.Sprintf("%v(%v)", t.Shape, t.Component)
}

// Valid reports whether t is one of the registered combinations.
func (t Type) Valid() bool {
	_, okShape := shapeNames[t.Shape]
	_, okComp := componentNames[t.Component]
	return okShape && okComp
}

// Components returns the number of components in one element.
func (t Type) Components() int {
	return t.Shape.Components()
}

// columnStride is the byte length of a matrix column. glTF aligns matrix
// columns to 4 bytes.
func (t Type) columnStride() int {
	_, rows := t.Shape.dims()
	n := rows * t.Component.Size()
	if t.Shape.isMatrix() {
		n = (n + 3) &^ 3
	}
	return n
}

// ElementSize returns the byte size of one element including matrix column padding.
func (t Type) ElementSize() int {
	cols, _ := t.Shape.dims()
	return cols * t.columnStride()
}

// GLTF returns the accessor type and component type codes.
func (t Type) GLTF() (gltf.AccessorType, gltf.ComponentType) {
	return t.Shape.GLTF(), t.Component.GLTF()
}

// ParseType parses "f32", "Scalar(u32)", "Vec3(f32)", "vec4<u8>".
func ParseType(s string) (Type, error) {
	src := strings.TrimSpace(s)
	open := strings.IndexAny(src, "(<")
	if open < 0 {
		c, err := ParseComponentType(src)
		if err != nil {
			return Type{}, err
		}
		return Type{Shape: Scalar, Component: c}, nil
	}
	closing := strings.IndexAny(src, ")>")
	if closing < open {
		return Type{}, errors.Errorf("malformed attribute type %q", s)
	}
	shapeName := strings.ToLower(strings.TrimSpace(src[:open]))
	var shape Shape
	for sh, n := range shapeNames {
		if strings.ToLower(n) == shapeName {
			shape = sh
		}
	}
	if shape == 0 {
		return Type{}, errors.Errorf("unknown attribute shape %q in %q", src[:open], s)
	}
	c, err := ParseComponentType(src[open+1 : closing])
	if err != nil {
		return Type{}, errors.Wrapf(err, "attribute type %q", s)
	}
	return Type{Shape: shape, Component: c}, nil
}
