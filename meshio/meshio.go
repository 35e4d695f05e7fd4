// Package meshio reads mesh files into mesh.Mesh values.
package meshio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/gltfgen/diag"
	"github.com/binzume/gltfgen/mesh"
	"github.com/pkg/errors"
)

// Default attribute names assigned by the loaders.
const (
	TexCoordAttribute = "uv"
	NormalAttribute   = "N"
)

// FormatError reports a file that could be read but not understood.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

type Options struct {
	// Reverse flips every face after loading.
	Reverse bool
	// InvertTets flips surfaces extracted from tetrahedral meshes.
	InvertTets bool
	// Sink receives problems that do not stop loading, such as a missing
	// MTL library. Nil discards them.
	Sink *diag.Sink
}

// Load reads path as a polygon mesh, a tetrahedral mesh (surface only) or a
// point cloud, in that order of preference. Errors opening the file are
// returned as is; content it cannot decode yields a *FormatError.
func Load(path string, opt Options) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sink := opt.Sink
	if sink == nil {
		sink = diag.New(nil)
	}
	var m *mesh.Mesh
	var tets bool
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		p := NewObjParser(f, path)
		p.Sink = sink
		m, err = p.Parse()
	case ".vtk":
		m, tets, err = ParseVTK(f, sink)
	case ".mqo":
		m, err = NewMqoParser(f, path).Parse()
	case ".mqoz":
		m, err = parseMQOZ(path)
	default:
		err = errors.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	if err := m.Validate(); err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	if tets && opt.InvertTets {
		m.Reverse()
	}
	if opt.Reverse {
		m.Reverse()
	}
	return m, nil
}

func openSibling(base string) func(name string) (io.ReadCloser, error) {
	return func(name string) (io.ReadCloser, error) {
		if filepath.IsAbs(name) {
			return os.Open(name)
		}
		return os.Open(filepath.Join(filepath.Dir(base), name))
	}
}
