package attrib

import (
	"math"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf/binary"
)

// Component is the closed set of Go types backing a ComponentType.
type Component interface {
	int8 | uint8 | int16 | uint16 | uint32 | float32
}

// storage is implemented once per Component by values[T]. Every operation on
// a Buffer goes through it, so no call site switches over component types.
type storage interface {
	len() int
	gather(n int, idx []int) storage
	narrow(from, to int) storage
	equal(n, i, j int) bool
	bounds(n int) (min, max []float32)
	encode(dst []byte, t Type) error
}

type values[T Component] []T

func (v values[T]) len() int { return len(v) }

func (v values[T]) gather(n int, idx []int) storage {
	out := make(values[T], 0, len(idx)*n)
	for _, i := range idx {
		out = append(out, v[i*n:(i+1)*n]...)
	}
	return out
}

func (v values[T]) narrow(from, to int) storage {
	count := len(v) / from
	out := make(values[T], 0, count*to)
	for i := 0; i < count; i++ {
		out = append(out, v[i*from:i*from+to]...)
	}
	return out
}

func (v values[T]) equal(n, i, j int) bool {
	a, b := v[i*n:(i+1)*n], v[j*n:(j+1)*n]
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}

func (v values[T]) bounds(n int) ([]float32, []float32) {
	min := make([]float32, n)
	max := make([]float32, n)
	for k := 0; k < n; k++ {
		min[k] = math.MaxFloat32
		max[k] = -math.MaxFloat32
	}
	if len(v) == 0 {
		for k := 0; k < n; k++ {
			min[k], max[k] = 0, 0
		}
		return min, max
	}
	for i, x := range v {
		f := float32(x)
		k := i % n
		if f < min[k] {
			min[k] = f
		}
		if f > max[k] {
			max[k] = f
		}
	}
	return min, max
}

func (v values[T]) encode(dst []byte, t Type) error {
	_, rows := t.Shape.dims()
	stride := t.columnStride()
	if stride == rows*t.Component.Size() {
		return binary.Write(dst, 0, []T(v))
	}
	// Matrix columns padded to 4 bytes are written one column at a time.
	for c := 0; c*rows < len(v); c++ {
		if err := binary.Write(dst[c*stride:], 0, []T(v[c*rows:(c+1)*rows])); err != nil {
			return err
		}
	}
	return nil
}

func componentOf(data interface{}) ComponentType {
	switch data.(type) {
	case []int8:
		return I8
	case []uint8:
		return U8
	case []int16:
		return I16
	case []uint16:
		return U16
	case []uint32:
		return U32
	case []float32:
		return F32
	}
	return 0
}

// Buffer is a tightly packed array of attribute elements. Values are stored
// flat: element i occupies components [i*n, (i+1)*n) where n = Type.Components().
type Buffer struct {
	Type Type
	data storage
}

// New wraps flat component values as a buffer of the given shape.
func New[T Component](shape Shape, data []T) *Buffer {
	t := Type{Shape: shape, Component: componentOf(data)}
	return &Buffer{Type: t, data: values[T](data)}
}

// Values returns the flat values of b if its component type is T.
func Values[T Component](b *Buffer) ([]T, bool) {
	v, ok := b.data.(values[T])
	return []T(v), ok
}

// Len returns the number of elements.
func (b *Buffer) Len() int {
	return b.data.len() / b.Type.Components()
}

// ByteLength returns the encoded size of the buffer.
func (b *Buffer) ByteLength() int {
	return b.Len() * b.Type.ElementSize()
}

// Gather returns a new buffer holding the elements at idx, in order.
func (b *Buffer) Gather(idx []int) *Buffer {
	return &Buffer{Type: b.Type, data: b.data.gather(b.Type.Components(), idx)}
}

// Equal reports whether elements i and j hold the same value.
func (b *Buffer) Equal(i, j int) bool {
	return b.data.equal(b.Type.Components(), i, j)
}

// Narrow keeps the leading components of each element, e.g. Vec3 to Vec2.
func (b *Buffer) Narrow(shape Shape) (*Buffer, bool) {
	from, to := b.Type.Components(), shape.Components()
	if b.Type.Shape.isMatrix() || shape.isMatrix() || to > from {
		return nil, false
	}
	if to == from {
		return b, true
	}
	return &Buffer{Type: Type{Shape: shape, Component: b.Type.Component}, data: b.data.narrow(from, to)}, true
}

// Bounds returns the component-wise minimum and maximum over all elements.
func (b *Buffer) Bounds() (min, max []float32) {
	return b.data.bounds(b.Type.Components())
}

// Encode writes the little-endian representation of b into dst, which must
// be at least ByteLength() bytes long.
func (b *Buffer) Encode(dst []byte) error {
	if len(dst) < b.ByteLength() {
		return errors.Errorf("destination too small: %d < %d", len(dst), b.ByteLength())
	}
	return b.data.encode(dst, b.Type)
}

// EncodeStrided writes element i at dst[i*stride:]. stride must be at least
// Type.ElementSize(); the gap between elements is left untouched.
func (b *Buffer) EncodeStrided(dst []byte, stride int) error {
	size := b.Type.ElementSize()
	if stride == size {
		return b.Encode(dst)
	}
	if stride < size {
		return errors.Errorf("stride %d is smaller than element size %d", stride, size)
	}
	if len(dst) < (b.Len()-1)*stride+size {
		return errors.Errorf("destination too small for %d elements", b.Len())
	}
	n := b.Type.Components()
	for i := 0; i < b.Len(); i++ {
		if err := b.data.gather(n, []int{i}).encode(dst[i*stride:], b.Type); err != nil {
			return err
		}
	}
	return nil
}

// Visitor receives the flat values of a buffer at their concrete component type.
type Visitor interface {
	Int8([]int8)
	Uint8([]uint8)
	Int16([]int16)
	Uint16([]uint16)
	Uint32([]uint32)
	Float32([]float32)
}

// Visit calls the method of v matching the component type of b.
func (b *Buffer) Visit(v Visitor) {
	switch d := b.data.(type) {
	case values[int8]:
		v.Int8(d)
	case values[uint8]:
		v.Uint8(d)
	case values[int16]:
		v.Int16(d)
	case values[uint16]:
		v.Uint16(d)
	case values[uint32]:
		v.Uint32(d)
	case values[float32]:
		v.Float32(d)
	}
}

// Ints converts integral component values to int. Float buffers are rejected.
func (b *Buffer) Ints() ([]int, bool) {
	var c intCollector
	b.Visit(&c)
	return c.out, c.ok
}

type intCollector struct {
	out []int
	ok  bool
}

func collectInts[T Component](c *intCollector, v []T) {
	c.out = make([]int, len(v))
	for i, x := range v {
		c.out[i] = int(x)
	}
	c.ok = true
}

func (c *intCollector) Int8(v []int8)     { collectInts(c, v) }
func (c *intCollector) Uint8(v []uint8)   { collectInts(c, v) }
func (c *intCollector) Int16(v []int16)   { collectInts(c, v) }
func (c *intCollector) Uint16(v []uint16) { collectInts(c, v) }
func (c *intCollector) Uint32(v []uint32) { collectInts(c, v) }
func (c *intCollector) Float32([]float32) {}
