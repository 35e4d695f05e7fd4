// Package transfer moves the attributes a conversion needs out of a loaded
// mesh into typed, export-ready buffers.
package transfer

import (
	"sort"

	"github.com/binzume/gltfgen/attrib"
	"github.com/binzume/gltfgen/diag"
	"github.com/binzume/gltfgen/mesh"
)

// Options selects what Clean extracts.
type Options struct {
	Attributes attrib.Spec
	Colors     attrib.Spec
	TexCoords  attrib.TexSpec
	// Normals and Tangents name the attributes exported as NORMAL (Vec3 f32)
	// and TANGENT (Vec4 f32). Empty disables them.
	Normals  string
	Tangents string
	// MaterialAttribute names an integer face attribute (vertex attribute for
	// point clouds) indexing the document material table.
	MaterialAttribute string
}

// Attribute is an extracted vertex attribute.
type Attribute struct {
	Name string
	Type attrib.Type
	Data *attrib.Buffer
}

// TexCoord is an extracted texture coordinate. Slot is the position of its
// declaration, used as the TEXCOORD_n index.
type TexCoord struct {
	Slot      int
	Name      string
	Component attrib.ComponentType
	Data      *attrib.Buffer // Vec2 or Vec3
}

// LocalGroup assigns faces to a material read from the input file.
type LocalGroup struct {
	Material mesh.LocalMaterial
	Faces    []int
}

// GlobalGroup assigns faces to an entry of the document material table.
type GlobalGroup struct {
	ID    int
	Faces []int
}

// MaterialIDs partitions the faces (points for point clouds) of a mesh by
// material. Exactly one of Local and Global is set.
type MaterialIDs struct {
	Local  []LocalGroup
	Global []GlobalGroup
}

// IsLocal reports whether the groups still refer to file-local materials.
func (m *MaterialIDs) IsLocal() bool {
	return m != nil && m.Local != nil
}

// Equal compares two assignments group by group. nil equals nil only.
func (m *MaterialIDs) Equal(o *MaterialIDs) bool {
	if m == nil || o == nil {
		return m == o
	}
	if len(m.Local) != len(o.Local) || len(m.Global) != len(o.Global) {
		return false
	}
	for i := range m.Local {
		if m.Local[i].Material != o.Local[i].Material || !equalInts(m.Local[i].Faces, o.Local[i].Faces) {
			return false
		}
	}
	for i := range m.Global {
		if m.Global[i].ID != o.Global[i].ID || !equalInts(m.Global[i].Faces, o.Global[i].Faces) {
			return false
		}
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AttribTransfer holds everything extracted from one mesh.
type AttribTransfer struct {
	Attribs     []Attribute
	Colors      []Attribute
	TexCoords   []TexCoord
	Normals     *attrib.Buffer
	Tangents    *attrib.Buffer
	MaterialIDs *MaterialIDs
}

var (
	normalType  = attrib.Type{Shape: attrib.Vec3, Component: attrib.F32}
	tangentType = attrib.Type{Shape: attrib.Vec4, Component: attrib.F32}
)

func validTexCoordComponent(c attrib.ComponentType) bool {
	return c == attrib.U8 || c == attrib.U16 || c == attrib.F32
}

func isTexCoordType(t attrib.Type, c attrib.ComponentType) bool {
	return t.Component == c && (t.Shape == attrib.Vec2 || t.Shape == attrib.Vec3)
}

// Clean extracts the attributes selected by opt from m and returns a mesh
// holding only positions and faces. m itself is not modified.
//
// Face-vertex texture coordinates, normals and tangents are made per-vertex
// first, splitting vertices where incident faces disagree. Declared
// attributes missing from the mesh are skipped silently; present ones with an
// unusable type are reported to sink and skipped.
func Clean(m *mesh.Mesh, opt Options, sink *diag.Sink) (*mesh.Mesh, *AttribTransfer) {
	if sink == nil {
		sink = diag.New(nil)
	}
	work := m.Clone()
	tr := &AttribTransfer{}

	// 1. per-vertex texture coordinates, normals and tangents
	type vertexAttr struct {
		name  string
		match func(attrib.Type) bool
		want  string
		store func(*attrib.Buffer)
	}
	var wanted []vertexAttr
	for slot, tc := range opt.TexCoords {
		tc, slot := tc, slot
		if !validTexCoordComponent(tc.Component) {
			if hasAttribute(work, tc.Name) {
				sink.Reportf(tc.Name, "texture coordinate component type %v is not one of u8, u16, f32", tc.Component)
			}
			continue
		}
		wanted = append(wanted, vertexAttr{
			name:  tc.Name,
			match: func(t attrib.Type) bool { return isTexCoordType(t, tc.Component) },
			want:  "Vec2(" + tc.Component.String() + ") or Vec3(" + tc.Component.String() + ")",
			store: func(b *attrib.Buffer) {
				tr.TexCoords = append(tr.TexCoords, TexCoord{Slot: slot, Name: tc.Name, Component: tc.Component, Data: b})
			},
		})
	}
	if opt.Normals != "" {
		wanted = append(wanted, vertexAttr{
			name:  opt.Normals,
			match: func(t attrib.Type) bool { return t == normalType },
			want:  normalType.String(),
			store: func(b *attrib.Buffer) { tr.Normals = b },
		})
	}
	if opt.Tangents != "" {
		wanted = append(wanted, vertexAttr{
			name:  opt.Tangents,
			match: func(t attrib.Type) bool { return t == tangentType },
			want:  tangentType.String(),
			store: func(b *attrib.Buffer) { tr.Tangents = b },
		})
	}
	if work.Kind == mesh.TriMesh {
		// split for every attribute before promoting any, so promoted buffers
		// all refer to the final vertex set
		for _, w := range wanted {
			if fv, ok := work.FaceVertex[w.name]; ok && w.match(fv.Type) {
				work.SplitVertices(w.name)
			}
		}
	}
	for _, w := range wanted {
		if fv, ok := work.FaceVertex[w.name]; ok && work.Kind == mesh.TriMesh {
			var b *attrib.Buffer
			var err error
			if w.match(fv.Type) {
				b, err = work.PromoteFaceVertex(w.name)
			}
			delete(work.FaceVertex, w.name)
			switch {
			case b == nil && err == nil:
				sink.Reportf(w.name, "attribute %q has type %v, expected %s", w.name, fv.Type, w.want)
			case err != nil:
				sink.Report(w.name, err.Error())
			default:
				w.store(b)
			}
		} else if b, ok := work.Vertex.Take(w.name); ok {
			if !w.match(b.Type) {
				sink.Reportf(w.name, "attribute %q has type %v, expected %s", w.name, b.Type, w.want)
				continue
			}
			w.store(b)
		}
	}

	// 2. general and color attributes
	take := func(spec attrib.Spec) []Attribute {
		var out []Attribute
		for _, e := range spec {
			b, ok := work.Vertex.Take(e.Name)
			if !ok {
				continue
			}
			if b.Type != e.Type {
				sink.Reportf(e.Name, "attribute %q has type %v, declared as %v", e.Name, b.Type, e.Type)
				continue
			}
			out = append(out, Attribute{Name: e.Name, Type: e.Type, Data: b})
		}
		return out
	}
	tr.Attribs = take(opt.Attributes)
	tr.Colors = take(opt.Colors)

	// 3. materials
	tr.MaterialIDs = materialIDs(work, opt.MaterialAttribute)

	// 4. drop the rest
	work.ClearAttributes()
	return work, tr
}

func hasAttribute(m *mesh.Mesh, name string) bool {
	_, v := m.Vertex[name]
	_, fv := m.FaceVertex[name]
	return v || fv
}

// materialIDs groups faces by the integer attribute name, falling back to
// the material table of the input file.
func materialIDs(m *mesh.Mesh, name string) *MaterialIDs {
	store := m.Face
	if m.Kind == mesh.PointCloud {
		store = m.Vertex
	}
	if b, ok := store[name]; ok && b.Type.Shape == attrib.Scalar {
		if ids, ok := b.Ints(); ok {
			return &MaterialIDs{Global: groupGlobal(ids)}
		}
	}
	if b, ok := store[mesh.MaterialAttribute]; ok && len(m.Materials) > 0 {
		if ids, ok := b.Ints(); ok {
			return groupLocal(ids, m.Materials)
		}
	}
	return nil
}

func groupGlobal(ids []int) []GlobalGroup {
	byID := map[int][]int{}
	for f, id := range ids {
		byID[id] = append(byID[id], f)
	}
	groups := make([]GlobalGroup, 0, len(byID))
	for id, faces := range byID {
		groups = append(groups, GlobalGroup{ID: id, Faces: faces})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}

func groupLocal(ids []int, materials []*mesh.LocalMaterial) *MaterialIDs {
	var groups []LocalGroup
	index := map[int]int{}
	for f, id := range ids {
		if id < 0 || id >= len(materials) {
			continue
		}
		g, ok := index[id]
		if !ok {
			g = len(groups)
			index[id] = g
			groups = append(groups, LocalGroup{Material: *materials[id]})
		}
		groups[g].Faces = append(groups[g].Faces, f)
	}
	if groups == nil {
		return nil
	}
	return &MaterialIDs{Local: groups}
}
