package meshio

import (
	"bufio"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/binzume/gltfgen/attrib"
	"github.com/binzume/gltfgen/diag"
	"github.com/binzume/gltfgen/geom"
	"github.com/binzume/gltfgen/mesh"
	"github.com/pkg/errors"
)

// ObjParser reads Wavefront OBJ files and their MTL libraries.
type ObjParser struct {
	name string
	r    io.Reader
	Open func(name string) (io.ReadCloser, error)
	Sink *diag.Sink

	library map[string]*mesh.LocalMaterial
}

func NewObjParser(r io.Reader, path string) *ObjParser {
	p := &ObjParser{name: path, r: r, Sink: diag.New(nil), library: map[string]*mesh.LocalMaterial{}}
	if path != "" {
		p.Open = openSibling(path)
	}
	return p
}

type objCorner struct {
	v, vt, vn int
}

func parseFloats(fields []string, n int) ([3]float32, error) {
	var v [3]float32
	if len(fields) < n {
		return v, errors.Errorf("expected %d numbers, got %d", n, len(fields))
	}
	for i := 0; i < len(fields) && i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(f)
	}
	return v, nil
}

// objIndex resolves a 1-based (or negative, relative) OBJ index.
func objIndex(s string, count int) (int, error) {
	if s == "" {
		return -1, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i += count
	} else {
		i--
	}
	if i < 0 || i >= count {
		return 0, errors.Errorf("index %s out of range", s)
	}
	return i, nil
}

func (p *ObjParser) Parse() (*mesh.Mesh, error) {
	var positions, texcoords, normals [][3]float32
	var faces [][3]uint32
	var corners []objCorner
	var faceMaterial []uint32
	var materials []*mesh.LocalMaterial
	materialIndex := map[string]int{}
	current := -1
	uvDim := 2

	sc := bufio.NewScanner(p.r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		var err error
		switch fields[0] {
		case "v":
			var v [3]float32
			v, err = parseFloats(fields[1:], 3)
			positions = append(positions, v)
		case "vt":
			var v [3]float32
			v, err = parseFloats(fields[1:], 1)
			if len(fields) > 3 {
				uvDim = 3
			}
			texcoords = append(texcoords, v)
		case "vn":
			var v [3]float32
			v, err = parseFloats(fields[1:], 3)
			normals = append(normals, v)
		case "f":
			poly := make([]objCorner, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				idx := strings.Split(tok, "/")
				var c objCorner
				c.vt, c.vn = -1, -1
				if c.v, err = objIndex(idx[0], len(positions)); err == nil && c.v < 0 {
					err = errors.New("missing vertex index")
				}
				if err == nil && len(idx) > 1 {
					c.vt, err = objIndex(idx[1], len(texcoords))
				}
				if err == nil && len(idx) > 2 {
					c.vn, err = objIndex(idx[2], len(normals))
				}
				if err != nil {
					break
				}
				poly = append(poly, c)
			}
			if err != nil {
				break
			}
			for _, tri := range triangulate(positions, poly) {
				faces = append(faces, [3]uint32{uint32(poly[tri[0]].v), uint32(poly[tri[1]].v), uint32(poly[tri[2]].v)})
				corners = append(corners, poly[tri[0]], poly[tri[1]], poly[tri[2]])
				faceMaterial = append(faceMaterial, uint32(current))
			}
		case "mtllib":
			// a missing library leaves materials with default colors
			lib := strings.Join(fields[1:], " ")
			if err := p.readMtlLib(lib); err != nil {
				p.Sink.Reportf(p.name, "mtllib %s: %v", lib, err)
			}
		case "usemtl":
			name := strings.Join(fields[1:], " ")
			i, ok := materialIndex[name]
			if !ok {
				i = len(materials)
				materialIndex[name] = i
				materials = append(materials, p.material(name))
			}
			current = i
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(faces) == 0 {
		if len(positions) == 0 {
			return nil, errors.New("no vertices")
		}
		return mesh.NewPointCloud(positions), nil
	}

	m := mesh.NewTriMesh(positions, faces)
	if len(texcoords) > 0 {
		uv := make([]float32, 0, len(corners)*uvDim)
		for _, c := range corners {
			var v [3]float32
			if c.vt >= 0 {
				v = texcoords[c.vt]
			}
			uv = append(uv, v[:uvDim]...)
		}
		shape := attrib.Vec2
		if uvDim == 3 {
			shape = attrib.Vec3
		}
		m.FaceVertex[TexCoordAttribute] = attrib.New(shape, uv)
	}
	if len(normals) > 0 {
		n := make([]float32, 0, len(corners)*3)
		for _, c := range corners {
			var v [3]float32
			if c.vn >= 0 {
				v = normals[c.vn]
			}
			n = append(n, v[:]...)
		}
		m.FaceVertex[NormalAttribute] = attrib.New(attrib.Vec3, n)
	}
	if len(materials) > 0 {
		fallback := -1
		for i, mi := range faceMaterial {
			if int32(mi) >= 0 {
				continue
			}
			if fallback < 0 {
				fallback = len(materials)
				materials = append(materials, p.material(""))
			}
			faceMaterial[i] = uint32(fallback)
		}
		m.Face[mesh.MaterialAttribute] = attrib.New(attrib.Scalar, faceMaterial)
		m.Materials = materials
	}
	return m, nil
}

func triangulate(positions [][3]float32, poly []objCorner) [][3]int {
	if len(poly) == 3 {
		return [][3]int{{0, 1, 2}}
	}
	corners := make([]int, len(poly))
	for i, c := range poly {
		corners[i] = c.v
	}
	return geom.Triangulate(positions, corners)
}

func (p *ObjParser) material(name string) *mesh.LocalMaterial {
	if m, ok := p.library[name]; ok {
		return m
	}
	return &mesh.LocalMaterial{Name: name, BaseColor: [4]float32{1, 1, 1, 1}}
}

func (p *ObjParser) readMtlLib(name string) error {
	if p.Open == nil {
		return errors.New("no file system")
	}
	r, err := p.Open(name)
	if err != nil {
		return err
	}
	defer r.Close()

	dir := filepath.Dir(name)
	if p.name != "" {
		dir = filepath.Join(filepath.Dir(p.name), dir)
	}
	var cur *mesh.LocalMaterial
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "newmtl" {
			cur = &mesh.LocalMaterial{Name: strings.Join(fields[1:], " "), BaseColor: [4]float32{1, 1, 1, 1}}
			p.library[cur.Name] = cur
			continue
		}
		if cur == nil {
			continue
		}
		switch fields[0] {
		case "Kd":
			if c, err := parseFloats(fields[1:], 3); err == nil {
				copy(cur.BaseColor[:3], c[:])
			}
		case "d":
			if c, err := parseFloats(fields[1:], 1); err == nil {
				cur.BaseColor[3] = c[0]
			}
		case "Tr":
			if c, err := parseFloats(fields[1:], 1); err == nil {
				cur.BaseColor[3] = 1 - c[0]
			}
		case "map_Kd":
			// options such as -s precede the file name
			tex := fields[len(fields)-1]
			if !filepath.IsAbs(tex) {
				tex = filepath.Join(dir, tex)
			}
			cur.Texture = tex
		}
	}
	return sc.Err()
}
