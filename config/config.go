// Package config holds the conversion settings and their sources: built-in
// defaults, a YAML (or JSON) file and command-line flags.
package config

import (
	"strings"

	"github.com/binzume/gltfgen/attrib"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// Config holds all conversion settings.
type Config struct {
	FPS      int     `yaml:"fps"`
	TimeStep float32 `yaml:"time_step,omitempty"` // overrides FPS when set
	Step     int     `yaml:"step"`

	Reverse               bool `yaml:"reverse"`
	InvertTets            bool `yaml:"invert_tets"`
	InsertVanishingFrames bool `yaml:"insert_vanishing_frames"`

	Attributes    attrib.Spec    `yaml:"attributes"`
	Colors        attrib.Spec    `yaml:"colors"`
	TexCoords     attrib.TexSpec `yaml:"texcoords"`
	Normals       string         `yaml:"normals"`
	Tangents      string         `yaml:"tangents"`
	MorphNormals  bool           `yaml:"morph_normals"`
	MorphTangents bool           `yaml:"morph_tangents"`

	MaterialAttribute string         `yaml:"material_attribute"`
	Materials         []MaterialInfo `yaml:"materials"`
	Textures          []TextureInfo  `yaml:"textures"`

	Workers  int    `yaml:"workers"` // 0 uses GOMAXPROCS
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// TextureRef binds a material to a texture and a TEXCOORD slot.
type TextureRef struct {
	Index    int `yaml:"index"`
	TexCoord int `yaml:"texcoord"`
}

type MaterialInfo struct {
	Name        string      `yaml:"name"`
	BaseColor   [4]float32  `yaml:"base_color,flow"`
	BaseTexture *TextureRef `yaml:"base_texture,omitempty"`
	Metallic    float32     `yaml:"metallic"`
	Roughness   float32     `yaml:"roughness"`
}

func DefaultMaterial() MaterialInfo {
	return MaterialInfo{
		BaseColor: [4]float32{0.5, 0.5, 0.5, 1},
		Roughness: 0.5,
	}
}

func (m *MaterialInfo) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain MaterialInfo
	p := plain(DefaultMaterial())
	if err := unmarshal(&p); err != nil {
		return err
	}
	*m = MaterialInfo(p)
	return nil
}

type ImageSource int

const (
	// ImageAuto stands for every image referenced by input material files.
	ImageAuto ImageSource = iota
	// ImageURI images are referenced by a relative URI.
	ImageURI
	// ImageEmbed images are copied into the binary buffer.
	ImageEmbed
)

type ImageInfo struct {
	Source ImageSource
	Path   string
}

func (i ImageInfo) MarshalYAML() (interface{}, error) {
	switch i.Source {
	case ImageURI:
		return map[string]string{"uri": i.Path}, nil
	case ImageEmbed:
		return map[string]string{"embed": i.Path}, nil
	}
	return "auto", nil
}

func (i *ImageInfo) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		if !strings.EqualFold(s, "auto") {
			return errors.Errorf("unknown image source %q", s)
		}
		*i = ImageInfo{Source: ImageAuto}
		return nil
	}
	var m struct {
		URI   string `yaml:"uri"`
		Embed string `yaml:"embed"`
	}
	if err := unmarshal(&m); err != nil {
		return err
	}
	switch {
	case m.URI != "" && m.Embed != "":
		return errors.New("image must have either uri or embed")
	case m.URI != "":
		*i = ImageInfo{Source: ImageURI, Path: m.URI}
	case m.Embed != "":
		*i = ImageInfo{Source: ImageEmbed, Path: m.Embed}
	default:
		return errors.New("image needs a uri or embed path")
	}
	return nil
}

type TextureInfo struct {
	Image     ImageInfo `yaml:"image"`
	WrapS     string    `yaml:"wrap_s,omitempty"`
	WrapT     string    `yaml:"wrap_t,omitempty"`
	MagFilter string    `yaml:"mag_filter,omitempty"`
	MinFilter string    `yaml:"min_filter,omitempty"`
}

var wrapModes = map[string]gltf.WrappingMode{
	"":                gltf.WrapRepeat,
	"repeat":          gltf.WrapRepeat,
	"clamp_to_edge":   gltf.WrapClampToEdge,
	"clamped_to_edge": gltf.WrapClampToEdge,
	"mirrored_repeat": gltf.WrapMirroredRepeat,
}

var magFilters = map[string]gltf.MagFilter{
	"nearest": gltf.MagNearest,
	"linear":  gltf.MagLinear,
}

var minFilters = map[string]gltf.MinFilter{
	"nearest":                gltf.MinNearest,
	"linear":                 gltf.MinLinear,
	"nearest_mipmap_nearest": gltf.MinNearestMipMapNearest,
	"linear_mipmap_nearest":  gltf.MinLinearMipMapNearest,
	"nearest_mipmap_linear":  gltf.MinNearestMipMapLinear,
	"linear_mipmap_linear":   gltf.MinLinearMipMapLinear,
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

// Sampler returns the glTF sampler described by t.
func (t TextureInfo) Sampler() (*gltf.Sampler, error) {
	s := &gltf.Sampler{}
	var ok bool
	if s.WrapS, ok = wrapModes[normalizeName(t.WrapS)]; !ok {
		return nil, errors.Errorf("unknown wrap_s %q", t.WrapS)
	}
	if s.WrapT, ok = wrapModes[normalizeName(t.WrapT)]; !ok {
		return nil, errors.Errorf("unknown wrap_t %q", t.WrapT)
	}
	if t.MagFilter != "" {
		if s.MagFilter, ok = magFilters[normalizeName(t.MagFilter)]; !ok {
			return nil, errors.Errorf("unknown mag_filter %q", t.MagFilter)
		}
	}
	if t.MinFilter != "" {
		if s.MinFilter, ok = minFilters[normalizeName(t.MinFilter)]; !ok {
			return nil, errors.Errorf("unknown min_filter %q", t.MinFilter)
		}
	}
	return s, nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		FPS:               24,
		Step:              1,
		TexCoords:         attrib.TexSpec{{Name: "uv", Component: attrib.F32}},
		Normals:           "N",
		MaterialAttribute: "mtl_id",
		Textures:          []TextureInfo{{Image: ImageInfo{Source: ImageAuto}}},
		LogLevel:          "info",
	}
}

// Dt returns the time between two consecutive frames in seconds.
func (c *Config) Dt() float32 {
	if c.TimeStep > 0 {
		return c.TimeStep
	}
	return 1 / float32(c.FPS)
}

// AutoTextures reports whether images referenced by input materials should
// be picked up, and returns the texture settings to use for them.
func (c *Config) AutoTextures() (TextureInfo, bool) {
	for _, t := range c.Textures {
		if t.Image.Source == ImageAuto {
			return t, true
		}
	}
	return TextureInfo{}, false
}

func (c *Config) Validate() error {
	if c.TimeStep < 0 {
		return errors.New("time_step must be positive")
	}
	if c.TimeStep == 0 && c.FPS <= 0 {
		return errors.New("fps must be positive")
	}
	if c.Step < 1 {
		return errors.New("step must be at least 1")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	for i, t := range c.Textures {
		if _, err := t.Sampler(); err != nil {
			return errors.Wrapf(err, "texture %d", i)
		}
	}
	return nil
}
