package gltfutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/binary"
)

// IsBinary reports whether path should be written as a .glb container:
// the extension is .glb or missing.
func IsBinary(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".glb" || ext == ""
}

// OutputPath returns path with the .glb extension added when it has none.
func OutputPath(path string) string {
	if filepath.Ext(path) == "" {
		return path + ".glb"
	}
	return path
}

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// Save writes doc to path. A .glb path gets a single binary container; any
// other extension gets a JSON file and a sibling .bin file with the same
// base name.
func Save(doc *gltf.Document, path string) error {
	path = OutputPath(path)
	binary := IsBinary(path)
	if len(doc.Buffers) > 0 {
		if binary {
			doc.Buffers[0].URI = ""
		} else {
			doc.Buffers[0].URI = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".bin"
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if binary {
		err = WriteBinary(doc, f)
	} else {
		e := gltf.NewEncoder(f).WithWriteHandler(&gltf.RelativeFileHandler{Dir: filepath.Dir(path)})
		e.AsBinary = false
		err = e.Encode(doc)
	}
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return f.Close()
}

// WriteBinary writes doc as a .glb container. Buffer 0 becomes the BIN chunk.
func WriteBinary(doc *gltf.Document, w io.Writer) error {
	if len(doc.Buffers) > 0 {
		doc.Buffers[0].URI = ""
	}
	e := gltf.NewEncoder(w)
	e.AsBinary = true
	return e.Encode(doc)
}

// ReadFloats decodes a float accessor into count*components values. Sparse
// accessors are expanded; an accessor without a buffer view reads as zeros.
func ReadFloats(doc *gltf.Document, index uint32) ([]float32, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range", index)
	}
	acr := doc.Accessors[index]
	if acr.ComponentType != gltf.ComponentFloat {
		return nil, errors.Errorf("accessor %d is not float", index)
	}
	n := int(acr.Type.Components())
	out := make([]float32, int(acr.Count)*n)
	if acr.BufferView != nil {
		data, stride, err := viewData(doc, *acr.BufferView, acr.ByteOffset)
		if err != nil {
			return nil, err
		}
		if stride == 0 || int(stride) == n*4 {
			err = binary.Read(data, 0, out)
		} else {
			for i := 0; i < int(acr.Count) && err == nil; i++ {
				err = binary.Read(data[i*int(stride):], 0, out[i*n:(i+1)*n])
			}
		}
		if err != nil {
			return nil, errors.Wrapf(err, "accessor %d", index)
		}
	}
	if s := acr.Sparse; s != nil {
		indices := make([]uint32, s.Count)
		data, _, err := viewData(doc, s.Indices.BufferView, s.Indices.ByteOffset)
		if err != nil {
			return nil, err
		}
		switch s.Indices.ComponentType {
		case gltf.ComponentUbyte:
			v := make([]uint8, s.Count)
			err = binary.Read(data, 0, v)
			for i := range v {
				indices[i] = uint32(v[i])
			}
		case gltf.ComponentUshort:
			v := make([]uint16, s.Count)
			err = binary.Read(data, 0, v)
			for i := range v {
				indices[i] = uint32(v[i])
			}
		default:
			err = binary.Read(data, 0, indices)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "sparse indices of accessor %d", index)
		}
		values := make([]float32, int(s.Count)*n)
		data, _, err = viewData(doc, s.Values.BufferView, s.Values.ByteOffset)
		if err != nil {
			return nil, err
		}
		if err := binary.Read(data, 0, values); err != nil {
			return nil, errors.Wrapf(err, "sparse values of accessor %d", index)
		}
		for i, at := range indices {
			if int(at) >= int(acr.Count) {
				return nil, errors.Errorf("sparse index %d out of range in accessor %d", at, index)
			}
			copy(out[int(at)*n:int(at+1)*n], values[i*n:(i+1)*n])
		}
	}
	return out, nil
}

func viewData(doc *gltf.Document, view, offset uint32) ([]byte, uint32, error) {
	if int(view) >= len(doc.BufferViews) {
		return nil, 0, errors.Errorf("buffer view %d out of range", view)
	}
	bv := doc.BufferViews[view]
	if int(bv.Buffer) >= len(doc.Buffers) {
		return nil, 0, errors.Errorf("buffer %d out of range", bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if int(end) > len(data) || offset > bv.ByteLength {
		return nil, 0, errors.Errorf("buffer view %d exceeds its buffer", view)
	}
	return data[bv.ByteOffset+offset : end], bv.ByteStride, nil
}
