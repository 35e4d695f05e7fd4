package converter

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/gltfgen/attrib"
	"github.com/binzume/gltfgen/diag"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Accessor names.
const (
	PositionDisplacementName = "displacements"
	NormalDisplacementName   = "normal_displacements"
	TangentDisplacementName  = "tangent_displacements"
	WeightsName              = "weights"
	TimeName                 = "time"
)

// DocumentBuilder appends typed arrays to the single binary buffer of a
// document and creates the buffer views and accessors describing them.
// Every Add method returns the index of the new accessor (or image).
type DocumentBuilder struct {
	Doc  *gltf.Document
	sink *diag.Sink
}

func NewDocumentBuilder(doc *gltf.Document, sink *diag.Sink) *DocumentBuilder {
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	}
	if sink == nil {
		sink = diag.New(nil)
	}
	return &DocumentBuilder{Doc: doc, sink: sink}
}

// alloc grows the buffer by n bytes starting at a 4 byte boundary.
func (b *DocumentBuilder) alloc(n int) (uint32, []byte) {
	buf := b.Doc.Buffers[0]
	pad := (4 - len(buf.Data)%4) % 4
	buf.Data = append(buf.Data, make([]byte, pad+n)...)
	offset := len(buf.Data) - n
	buf.ByteLength = uint32(len(buf.Data))
	return uint32(offset), buf.Data[offset:]
}

func (b *DocumentBuilder) addView(n, stride int, target gltf.Target) (uint32, []byte) {
	offset, dst := b.alloc(n)
	b.Doc.BufferViews = append(b.Doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: offset,
		ByteLength: uint32(n),
		ByteStride: uint32(stride),
		Target:     target,
	})
	return uint32(len(b.Doc.BufferViews) - 1), dst
}

func (b *DocumentBuilder) addAccessor(acc *gltf.Accessor) uint32 {
	b.Doc.Accessors = append(b.Doc.Accessors, acc)
	return uint32(len(b.Doc.Accessors) - 1)
}

// AddBuffer writes data into a new buffer view. Views of vertex attributes
// (gltf.TargetArrayBuffer) get a byte stride rounded up to 4.
func (b *DocumentBuilder) AddBuffer(name string, data *attrib.Buffer, target gltf.Target, bounds bool) uint32 {
	size := data.Type.ElementSize()
	stride := 0
	n := data.ByteLength()
	if target == gltf.TargetArrayBuffer {
		stride = (size + 3) &^ 3
		n = data.Len() * stride
	}
	view, dst := b.addView(n, stride, target)
	var err error
	if stride != 0 {
		err = data.EncodeStrided(dst, stride)
	} else {
		err = data.Encode(dst)
	}
	if err != nil {
		// dst is always sized for data
		panic(err)
	}
	at, ct := data.Type.GLTF()
	acc := &gltf.Accessor{
		Name:          name,
		BufferView:    gltf.Index(view),
		ComponentType: ct,
		Count:         uint32(data.Len()),
		Type:          at,
	}
	if bounds {
		acc.Min, acc.Max = data.Bounds()
	}
	return b.addAccessor(acc)
}

// AddIndices writes a triangle or point index list, as u16 when it fits.
func (b *DocumentBuilder) AddIndices(indices []uint32) uint32 {
	var max uint32
	for _, i := range indices {
		if i > max {
			max = i
		}
	}
	if max < math.MaxUint16 {
		short := make([]uint16, len(indices))
		for i, v := range indices {
			short[i] = uint16(v)
		}
		return b.AddBuffer("", attrib.New(attrib.Scalar, short), gltf.TargetElementArrayBuffer, false)
	}
	return b.AddBuffer("", attrib.New(attrib.Scalar, indices), gltf.TargetElementArrayBuffer, false)
}

func flatten3(v [][3]float32) []float32 {
	out := make([]float32, 0, len(v)*3)
	for _, p := range v {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

// AddVec3 writes positions or displacements with their bounds.
func (b *DocumentBuilder) AddVec3(name string, v [][3]float32) uint32 {
	return b.AddBuffer(name, attrib.New(attrib.Vec3, flatten3(v)), gltf.TargetArrayBuffer, true)
}

// AddAttribute writes a custom vertex attribute.
func (b *DocumentBuilder) AddAttribute(name string, data *attrib.Buffer) uint32 {
	return b.AddBuffer(name, data, gltf.TargetArrayBuffer, true)
}

func normalizable(c attrib.ComponentType) bool {
	return c == attrib.U8 || c == attrib.U16
}

// AddColor writes a COLOR_n attribute. Only Vec3 and Vec4 of u8, u16 or f32
// can be colors; anything else is reported and skipped.
func (b *DocumentBuilder) AddColor(name string, data *attrib.Buffer) (uint32, bool) {
	t := data.Type
	if (t.Shape != attrib.Vec3 && t.Shape != attrib.Vec4) || (t.Component != attrib.F32 && !normalizable(t.Component)) {
		b.sink.Reportf(name, "color attribute %q has unsupported type %v", name, t)
		return 0, false
	}
	acc := b.AddBuffer(name, data, gltf.TargetArrayBuffer, false)
	b.Doc.Accessors[acc].Normalized = normalizable(t.Component)
	return acc, true
}

// AddTexCoord writes a TEXCOORD_n attribute. Three component coordinates are
// narrowed to two.
func (b *DocumentBuilder) AddTexCoord(name string, data *attrib.Buffer) (uint32, bool) {
	uv, ok := data.Narrow(attrib.Vec2)
	if !ok || (data.Type.Shape != attrib.Vec2 && data.Type.Shape != attrib.Vec3) {
		b.sink.Reportf(name, "texture coordinate %q has type %v, expected Vec2 or Vec3", name, data.Type)
		return 0, false
	}
	acc := b.AddBuffer(name, uv, gltf.TargetArrayBuffer, false)
	b.Doc.Accessors[acc].Normalized = normalizable(uv.Type.Component)
	return acc, true
}

// AddTimes writes keyframe times in seconds.
func (b *DocumentBuilder) AddTimes(times []float32) uint32 {
	return b.AddBuffer(TimeName, attrib.New(attrib.Scalar, times), gltf.TargetNone, true)
}

// AddSparseWeights writes the morph weights of k targets over k+1
// keyframes: keyframe 0 is the base mesh and keyframe i+1 gives target i
// weight 1. Only the k ones are stored; everything else is the implicit zero.
func (b *DocumentBuilder) AddSparseWeights(k int) uint32 {
	indices := make([]uint32, k)
	values := make([]float32, k)
	for i := range indices {
		indices[i] = uint32(k*(i+1) + i)
		values[i] = 1
	}
	iv, dst := b.addView(4*k, 0, gltf.TargetNone)
	if err := attrib.New(attrib.Scalar, indices).Encode(dst); err != nil {
		panic(err)
	}
	vv, dst := b.addView(4*k, 0, gltf.TargetNone)
	if err := attrib.New(attrib.Scalar, values).Encode(dst); err != nil {
		panic(err)
	}
	return b.addAccessor(&gltf.Accessor{
		Name:          WeightsName,
		ComponentType: gltf.ComponentFloat,
		Count:         uint32((k + 1) * k),
		Type:          gltf.AccessorScalar,
		Min:           []float32{0},
		Max:           []float32{1},
		Sparse: &gltf.Sparse{
			Count:   uint32(k),
			Indices: gltf.SparseIndices{BufferView: iv, ComponentType: gltf.ComponentUint},
			Values:  gltf.SparseValues{BufferView: vv},
		},
	})
}

func imageMimeType(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png", true
	case ".jpg", ".jpeg":
		return "image/jpeg", true
	}
	return "", false
}

// AddImage copies a PNG or JPEG file into the buffer and returns the image index.
func (b *DocumentBuilder) AddImage(path string) (uint32, error) {
	mimeType, ok := imageMimeType(path)
	if !ok {
		return 0, errors.Errorf("unsupported image format: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	img, err := modeler.WriteImage(b.Doc, filepath.Base(path), mimeType, f)
	if err != nil {
		return 0, errors.Wrapf(err, "embed %s", path)
	}
	buf := b.Doc.Buffers[0]
	buf.ByteLength = uint32(len(buf.Data))
	return img, nil
}

// AddImageURI references an external image.
func (b *DocumentBuilder) AddImageURI(uri string) uint32 {
	b.Doc.Images = append(b.Doc.Images, &gltf.Image{Name: filepath.Base(uri), URI: filepath.ToSlash(uri)})
	return uint32(len(b.Doc.Images) - 1)
}
