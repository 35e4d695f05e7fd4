package converter

import (
	"sort"

	"github.com/binzume/gltfgen/config"
	"github.com/binzume/gltfgen/mesh"
	"github.com/binzume/gltfgen/transfer"
)

// MaterialTable is the document-wide list of materials and textures.
// Configured entries come first; materials read from input files and the
// images they reference are appended as they are discovered.
type MaterialTable struct {
	Materials []config.MaterialInfo
	Textures  []config.TextureInfo

	auto     config.TextureInfo
	useAuto  bool
	local    map[mesh.LocalMaterial]int
	images   map[string]int
	reported map[int]bool
}

func NewMaterialTable(cfg *config.Config) *MaterialTable {
	t := &MaterialTable{
		Materials: append([]config.MaterialInfo(nil), cfg.Materials...),
		local:     map[mesh.LocalMaterial]int{},
		images:    map[string]int{},
		reported:  map[int]bool{},
	}
	for _, tex := range cfg.Textures {
		if tex.Image.Source != config.ImageAuto {
			t.Textures = append(t.Textures, tex)
		}
	}
	t.auto, t.useAuto = cfg.AutoTextures()
	return t
}

// PromoteLocal registers the materials of ids in the table and returns the
// same face grouping keyed by table index. Groups whose materials end up at
// the same index are merged.
func (t *MaterialTable) PromoteLocal(ids *transfer.MaterialIDs) *transfer.MaterialIDs {
	if !ids.IsLocal() {
		return ids
	}
	byID := map[int][]int{}
	for _, g := range ids.Local {
		id := t.register(g.Material)
		byID[id] = append(byID[id], g.Faces...)
	}
	groups := make([]transfer.GlobalGroup, 0, len(byID))
	for id, faces := range byID {
		sort.Ints(faces)
		groups = append(groups, transfer.GlobalGroup{ID: id, Faces: faces})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return &transfer.MaterialIDs{Global: groups}
}

func (t *MaterialTable) register(m mesh.LocalMaterial) int {
	if id, ok := t.local[m]; ok {
		return id
	}
	info := config.DefaultMaterial()
	info.Name = m.Name
	info.BaseColor = m.BaseColor
	if m.Texture != "" && t.useAuto {
		info.BaseTexture = &config.TextureRef{Index: t.image(m.Texture)}
	}
	id := len(t.Materials)
	t.Materials = append(t.Materials, info)
	t.local[m] = id
	return id
}

func (t *MaterialTable) image(path string) int {
	if i, ok := t.images[path]; ok {
		return i
	}
	tex := t.auto
	tex.Image = config.ImageInfo{Source: config.ImageAuto, Path: path}
	i := len(t.Textures)
	t.Textures = append(t.Textures, tex)
	t.images[path] = i
	return i
}

// EnsureDefault appends the default material if the table is empty.
func (t *MaterialTable) EnsureDefault() {
	if len(t.Materials) == 0 {
		m := config.DefaultMaterial()
		m.Name = "Default"
		t.Materials = append(t.Materials, m)
	}
}

// Has reports whether id is a valid material index. A missing id is reported
// to the caller only the first time it is seen.
func (t *MaterialTable) Has(id int) (ok bool, first bool) {
	if id >= 0 && id < len(t.Materials) {
		return true, false
	}
	first = !t.reported[id]
	t.reported[id] = true
	return false, first
}
