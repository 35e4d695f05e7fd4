package converter

import (
	"path/filepath"
	"strconv"

	"github.com/binzume/gltfgen/attrib"
	"github.com/binzume/gltfgen/config"
	"github.com/binzume/gltfgen/diag"
	"github.com/qmuntal/gltf"
)

// ExportOptions controls document level output.
type ExportOptions struct {
	Generator string
	// EmbedImages copies images found through input materials into the
	// buffer. Otherwise they are referenced relative to OutputDir.
	EmbedImages bool
	OutputDir   string
}

// Convert segments frames sorted by (name, frame) into nodes and exports them.
func Convert(frames []*Frame, cfg *config.Config, opt ExportOptions, sink *diag.Sink) (*gltf.Document, error) {
	if len(frames) == 0 {
		return nil, ErrNoMeshes
	}
	table := NewMaterialTable(cfg)
	nodes := IntoNodes(frames, table, SegmentOptions{
		MorphNormals:  cfg.MorphNormals,
		MorphTangents: cfg.MorphTangents,
	})
	return Export(nodes, table, cfg, opt, sink)
}

// Export builds a document with one node and mesh per Node and a single
// animation driving all of them.
func Export(nodes []*Node, table *MaterialTable, cfg *config.Config, opt ExportOptions, sink *diag.Sink) (*gltf.Document, error) {
	if len(nodes) == 0 {
		return nil, ErrNoMeshes
	}
	doc := gltf.NewDocument()
	if opt.Generator != "" {
		doc.Asset.Generator = opt.Generator
	}
	b := NewDocumentBuilder(doc, sink)

	for _, n := range nodes {
		if len(n.Transfer.Colors) > 0 || len(n.Transfer.TexCoords) > 0 {
			table.EnsureDefault()
			break
		}
	}

	dt := cfg.Dt()
	anim := &gltf.Animation{Name: "animation"}
	for i, n := range nodes {
		va := b.writeVertexAttributes(n)
		m := &gltf.Mesh{Name: n.Name, Primitives: b.buildPrimitives(n, va, table)}
		if len(n.Morphs) > 0 {
			var targetNames []string
			for _, morph := range n.Morphs {
				targetNames = append(targetNames, strconv.Itoa(morph.Frame))
			}
			m.Extras = map[string]interface{}{"targetNames": targetNames}
		}
		doc.Meshes = append(doc.Meshes, m)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:     n.Name,
			Mesh:     gltf.Index(uint32(len(doc.Meshes) - 1)),
			Rotation: [4]float32{0, 0, 0, 1},
			Scale:    [3]float32{1, 1, 1},
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(i))

		b.addMorphChannel(anim, uint32(i), n, dt)
		if cfg.InsertVanishingFrames {
			hideAfter := i+1 < len(nodes) && nodes[i+1].Name == n.Name
			b.addVisibilityChannel(anim, uint32(i), n, hideAfter, dt)
		}
	}
	if len(anim.Channels) > 0 {
		doc.Animations = append(doc.Animations, anim)
	}

	b.writeMaterials(table, opt)
	return doc, nil
}

func (b *DocumentBuilder) addChannel(anim *gltf.Animation, node uint32, path gltf.TRSProperty, sampler *gltf.AnimationSampler) {
	anim.Samplers = append(anim.Samplers, sampler)
	anim.Channels = append(anim.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(anim.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: path,
		},
	})
}

// addMorphChannel animates the morph weights of a node so that each morph
// is fully applied at its frame.
func (b *DocumentBuilder) addMorphChannel(anim *gltf.Animation, node uint32, n *Node, dt float32) {
	if len(n.Morphs) == 0 {
		return
	}
	times := []float32{float32(n.FirstFrame) * dt}
	for _, m := range n.Morphs {
		times = append(times, float32(m.Frame)*dt)
	}
	b.addChannel(anim, node, gltf.TRSWeights, &gltf.AnimationSampler{
		Input:         gltf.Index(b.AddTimes(times)),
		Output:        gltf.Index(b.AddSparseWeights(len(n.Morphs))),
		Interpolation: gltf.InterpolationLinear,
	})
}

// addVisibilityChannel scales a node to zero one frame before its first
// frame and, if hideAfter is set, one frame after its last frame.
func (b *DocumentBuilder) addVisibilityChannel(anim *gltf.Animation, node uint32, n *Node, hideAfter bool, dt float32) {
	var times, scales []float32
	if n.FirstFrame > 0 {
		times = append(times, float32(n.FirstFrame-1)*dt)
		scales = append(scales, 0, 0, 0)
	}
	times = append(times, float32(n.FirstFrame)*dt)
	scales = append(scales, 1, 1, 1)
	if hideAfter {
		times = append(times, float32(n.LastFrame()+1)*dt)
		scales = append(scales, 0, 0, 0)
	}
	if len(times) == 1 {
		return
	}
	b.addChannel(anim, node, gltf.TRSScale, &gltf.AnimationSampler{
		Input:         gltf.Index(b.AddTimes(times)),
		Output:        gltf.Index(b.AddBuffer("", attrib.New(attrib.Vec3, scales), gltf.TargetNone, false)),
		Interpolation: gltf.InterpolationStep,
	})
}

func (b *DocumentBuilder) writeImage(img config.ImageInfo, opt ExportOptions) (uint32, bool) {
	if img.Source == config.ImageEmbed || img.Source == config.ImageAuto && opt.EmbedImages {
		i, err := b.AddImage(img.Path)
		if err != nil {
			b.sink.Reportf(img.Path, "texture skipped: %v", err)
			return 0, false
		}
		return i, true
	}
	uri := img.Path
	if img.Source == config.ImageAuto && opt.OutputDir != "" {
		if rel, err := filepath.Rel(opt.OutputDir, uri); err == nil {
			uri = rel
		}
	}
	return b.AddImageURI(uri), true
}

// writeMaterials writes textures, one sampler per texture, and materials.
// Materials referring to a texture that could not be written lose it.
func (b *DocumentBuilder) writeMaterials(table *MaterialTable, opt ExportOptions) {
	doc := b.Doc
	textures := make([]int, len(table.Textures))
	for i, t := range table.Textures {
		textures[i] = -1
		img, ok := b.writeImage(t.Image, opt)
		if !ok {
			continue
		}
		sampler, err := t.Sampler()
		if err != nil {
			b.sink.Reportf(t.Image.Path, "default sampler used: %v", err)
			sampler = &gltf.Sampler{}
		}
		doc.Samplers = append(doc.Samplers, sampler)
		doc.Textures = append(doc.Textures, &gltf.Texture{
			Sampler: gltf.Index(uint32(len(doc.Samplers) - 1)),
			Source:  gltf.Index(img),
		})
		textures[i] = len(doc.Textures) - 1
	}

	for _, mat := range table.Materials {
		color := mat.BaseColor
		mf, rf := mat.Metallic, mat.Roughness
		mm := &gltf.Material{
			Name: mat.Name,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &color,
				MetallicFactor:  &mf,
				RoughnessFactor: &rf,
			},
		}
		if color[3] < 0.99 {
			mm.AlphaMode = gltf.AlphaBlend
		}
		if ref := mat.BaseTexture; ref != nil {
			if ref.Index >= 0 && ref.Index < len(textures) && textures[ref.Index] >= 0 {
				mm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{
					Index:    uint32(textures[ref.Index]),
					TexCoord: uint32(ref.TexCoord),
				}
			} else {
				b.sink.Reportf(mat.Name, "material %q refers to missing texture %d", mat.Name, ref.Index)
			}
		}
		doc.Materials = append(doc.Materials, mm)
	}
}
