package converter

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/binzume/gltfgen/mesh"
	"github.com/binzume/gltfgen/transfer"
	"github.com/qmuntal/gltf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// CustomSemantic returns the attribute semantic of a custom attribute:
// "temperatureKelvin" and "temperature kelvin" both become "_TEMPERATURE_KELVIN".
func CustomSemantic(name string) string {
	var sb strings.Builder
	var prev rune
	rs := []rune(name)
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			// fooBar, foo2Bar and HTTPCode get a word break before the upper case letter
			acronymEnd := unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev) || acronymEnd) {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		case prev != '_' && sb.Len() > 0:
			sb.WriteByte('_')
			r = '_'
		default:
			r = prev
		}
		prev = r
	}
	return "_" + upper.String(strings.TrimRight(sb.String(), "_"))
}

// vertexAccessors holds the accessors shared by all primitives of a node.
type vertexAccessors struct {
	attributes map[string]uint32
	targets    []map[string]uint32
}

func (b *DocumentBuilder) writeVertexAttributes(n *Node) *vertexAccessors {
	tr := n.Transfer
	attrs := map[string]uint32{
		"POSITION": b.AddVec3("", n.Mesh.Positions),
	}
	if tr.Normals != nil {
		attrs["NORMAL"] = b.AddBuffer("", tr.Normals, gltf.TargetArrayBuffer, false)
	}
	if tr.Tangents != nil {
		attrs["TANGENT"] = b.AddBuffer("", tr.Tangents, gltf.TargetArrayBuffer, false)
	}
	color := 0
	for _, c := range tr.Colors {
		if acc, ok := b.AddColor(c.Name, c.Data); ok {
			attrs["COLOR_"+strconv.Itoa(color)] = acc
			color++
		}
	}
	for _, tc := range tr.TexCoords {
		if acc, ok := b.AddTexCoord(tc.Name, tc.Data); ok {
			attrs["TEXCOORD_"+strconv.Itoa(tc.Slot)] = acc
		}
	}
	for _, a := range tr.Attribs {
		attrs[CustomSemantic(a.Name)] = b.AddAttribute(a.Name, a.Data)
	}
	return &vertexAccessors{attributes: attrs, targets: b.writeMorphTargets(n.Morphs)}
}

// writeMorphTargets writes one target per morph. Normal and tangent
// displacements are included only when every morph has them, since all
// targets of a primitive must carry the same attributes.
func (b *DocumentBuilder) writeMorphTargets(morphs []Morph) []map[string]uint32 {
	normals, tangents := len(morphs) > 0, len(morphs) > 0
	for _, m := range morphs {
		normals = normals && m.Normal != nil
		tangents = tangents && m.Tangent != nil
	}
	var targets []map[string]uint32
	for _, m := range morphs {
		t := map[string]uint32{
			"POSITION": b.AddVec3(PositionDisplacementName, m.Position),
		}
		if normals {
			t["NORMAL"] = b.AddVec3(NormalDisplacementName, m.Normal)
		}
		if tangents {
			t["TANGENT"] = b.AddVec3(TangentDisplacementName, m.Tangent)
		}
		targets = append(targets, t)
	}
	return targets
}

// buildPrimitives makes one primitive per material group of the node, or a
// single primitive when the node has no material assignment. Point clouds
// always get a single unindexed primitive.
func (b *DocumentBuilder) buildPrimitives(n *Node, va *vertexAccessors, table *MaterialTable) []*gltf.Primitive {
	material := func(id int) *uint32 {
		ok, first := table.Has(id)
		if !ok {
			if first {
				b.sink.Reportf(n.Name, "Material ID %d was found but no materials were specified.", id)
			}
			return nil
		}
		return gltf.Index(uint32(id))
	}
	newPrimitive := func() *gltf.Primitive {
		return &gltf.Primitive{
			Attributes: va.attributes,
			Mode:       gltf.PrimitiveTriangles,
			Targets:    va.targets,
		}
	}

	var groups []transfer.GlobalGroup
	if n.Transfer.MaterialIDs != nil {
		groups = n.Transfer.MaterialIDs.Global
	}

	if n.Mesh.Kind == mesh.PointCloud {
		p := newPrimitive()
		p.Mode = gltf.PrimitivePoints
		if len(groups) > 0 {
			p.Material = material(groups[0].ID)
		} else if len(table.Materials) > 0 {
			p.Material = gltf.Index(0)
		}
		return []*gltf.Primitive{p}
	}

	if len(groups) == 0 {
		p := newPrimitive()
		p.Indices = gltf.Index(b.AddIndices(n.Mesh.Indices()))
		if len(table.Materials) > 0 {
			p.Material = gltf.Index(0)
		}
		return []*gltf.Primitive{p}
	}

	var primitives []*gltf.Primitive
	for _, g := range groups {
		indices := make([]uint32, 0, len(g.Faces)*3)
		for _, f := range g.Faces {
			face := n.Mesh.Faces[f]
			indices = append(indices, face[0], face[1], face[2])
		}
		p := newPrimitive()
		p.Indices = gltf.Index(b.AddIndices(indices))
		p.Material = material(g.ID)
		primitives = append(primitives, p)
	}
	return primitives
}
