package config

import (
	"flag"

	"github.com/binzume/gltfgen/attrib"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Flags are the command-line overrides. Only flags given on the command line
// are applied.
type Flags struct {
	fs *flag.FlagSet

	config            string
	fps               int
	timeStep          float64
	step              int
	reverse           bool
	invertTets        bool
	vanishing         bool
	attributes        string
	colors            string
	texcoords         string
	normals           string
	tangents          string
	morphNormals      bool
	morphTangents     bool
	materialAttribute string
	materials         string
	textures          string
	workers           int
	logLevel          string
	logFile           string
	quiet             bool
}

// RegisterFlags defines the configuration flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.config, "config", "", "YAML or JSON configuration file")
	fs.IntVar(&f.fps, "fps", 24, "frames per second")
	fs.Float64Var(&f.timeStep, "time-step", 0, "seconds between frames (overrides -fps)")
	fs.IntVar(&f.step, "step", 1, "read every n-th frame")
	fs.BoolVar(&f.reverse, "r", false, "reverse polygon orientation")
	fs.BoolVar(&f.invertTets, "invert-tets", false, "invert tetrahedron orientation")
	fs.BoolVar(&f.vanishing, "vanishing-frames", false, "hide meshes outside their frame range")
	fs.StringVar(&f.attributes, "a", "", `custom attributes, e.g. '{"pressure": f32, "v": Vec3(f32)}'`)
	fs.StringVar(&f.colors, "c", "", `color attributes, e.g. '{"Cd": Vec3(f32)}'`)
	fs.StringVar(&f.texcoords, "u", "", `texture coordinate attributes, e.g. '{"uv": f32}'`)
	fs.StringVar(&f.normals, "normals", "N", "normal attribute name")
	fs.StringVar(&f.tangents, "tangents", "", "tangent attribute name")
	fs.BoolVar(&f.morphNormals, "morph-normals", false, "animate normals")
	fs.BoolVar(&f.morphTangents, "morph-tangents", false, "animate tangents")
	fs.StringVar(&f.materialAttribute, "e", "mtl_id", "material id attribute on faces")
	fs.StringVar(&f.materials, "m", "", `materials, e.g. '[{name: red, base_color: [1, 0, 0, 1]}]'`)
	fs.StringVar(&f.textures, "x", "", `textures, e.g. '[{image: {embed: ./checker.png}}, {image: auto}]'`)
	fs.IntVar(&f.workers, "j", 0, "number of loader workers (0: all CPUs)")
	fs.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&f.logFile, "log-file", "", "also write logs to this file")
	fs.BoolVar(&f.quiet, "q", false, "only log errors")
	return f
}

// ConfigPath returns the -config flag.
func (f *Flags) ConfigPath() string {
	return f.config
}

// unmarshalList accepts either a YAML sequence or a single mapping.
func unmarshalList[T any](src string) ([]T, error) {
	var list []T
	if err := yaml.Unmarshal([]byte(src), &list); err == nil {
		return list, nil
	}
	var one T
	if err := yaml.Unmarshal([]byte(src), &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}

// Apply copies the flags that were set on the command line into cfg.
func (f *Flags) Apply(cfg *Config) error {
	var err error
	f.fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "fps":
			cfg.FPS = f.fps
		case "time-step":
			cfg.TimeStep = float32(f.timeStep)
		case "step":
			cfg.Step = f.step
		case "r":
			cfg.Reverse = f.reverse
		case "invert-tets":
			cfg.InvertTets = f.invertTets
		case "vanishing-frames":
			cfg.InsertVanishingFrames = f.vanishing
		case "a":
			cfg.Attributes, err = attrib.ParseSpec(f.attributes)
		case "c":
			cfg.Colors, err = attrib.ParseSpec(f.colors)
		case "u":
			cfg.TexCoords, err = attrib.ParseTexSpec(f.texcoords)
		case "normals":
			cfg.Normals = f.normals
		case "tangents":
			cfg.Tangents = f.tangents
		case "morph-normals":
			cfg.MorphNormals = f.morphNormals
		case "morph-tangents":
			cfg.MorphTangents = f.morphTangents
		case "e":
			cfg.MaterialAttribute = f.materialAttribute
		case "m":
			cfg.Materials, err = unmarshalList[MaterialInfo](f.materials)
		case "x":
			cfg.Textures, err = unmarshalList[TextureInfo](f.textures)
		case "j":
			cfg.Workers = f.workers
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "log-file":
			cfg.LogFile = f.logFile
		case "q":
			if f.quiet {
				cfg.LogLevel = "error"
			}
		}
		if err != nil {
			err = errors.Wrapf(err, "flag -%s", fl.Name)
		}
	})
	return err
}
