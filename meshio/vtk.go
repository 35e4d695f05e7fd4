package meshio

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/binzume/gltfgen/attrib"
	"github.com/binzume/gltfgen/diag"
	"github.com/binzume/gltfgen/mesh"
	"github.com/pkg/errors"
)

// VTK cell types
const (
	vtkVertex       = 1
	vtkPolyVertex   = 2
	vtkTriangle     = 5
	vtkTriangleStip = 6
	vtkPolygon      = 7
	vtkQuad         = 9
	vtkTetra        = 10
)

type vtkTokens struct {
	f    []string
	pos  int
	sink *diag.Sink
}

func (t *vtkTokens) more() bool { return t.pos < len(t.f) }

func (t *vtkTokens) peek() string {
	if t.pos < len(t.f) {
		return t.f[t.pos]
	}
	return ""
}

func (t *vtkTokens) next() (string, error) {
	if t.pos >= len(t.f) {
		return "", io.ErrUnexpectedEOF
	}
	t.pos++
	return t.f[t.pos-1], nil
}

func (t *vtkTokens) int() (int, error) {
	s, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func (t *vtkTokens) float() (float64, error) {
	s, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

type vtkCells struct {
	cells [][]uint32
	types []int
}

type vtkData struct {
	points [][3]float32
	cells  vtkCells
	point  mesh.Attributes
	cell   mesh.Attributes
}

// ParseVTK reads a legacy ASCII VTK file holding POLYDATA or an
// UNSTRUCTURED_GRID. tets reports whether the mesh is the surface of a
// tetrahedral mesh. Values stored in a different type than declared are
// reported to sink.
func ParseVTK(r io.Reader, sink *diag.Sink) (m *mesh.Mesh, tets bool, err error) {
	if sink == nil {
		sink = diag.New(nil)
	}
	br := bufio.NewReader(r)
	var header [3]string
	for i := range header {
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return nil, false, errors.Wrap(err, "vtk header")
		}
		header[i] = strings.TrimSpace(line)
	}
	if !strings.HasPrefix(strings.ToLower(header[0]), "# vtk datafile") {
		return nil, false, errors.New("not a vtk file")
	}
	if !strings.EqualFold(header[2], "ASCII") {
		return nil, false, errors.Errorf("unsupported vtk encoding %q", header[2])
	}
	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, false, err
	}
	d, err := parseVTKBody(&vtkTokens{f: strings.Fields(string(rest)), sink: sink})
	if err != nil {
		return nil, false, err
	}
	m, tets = d.build()
	return m, tets, nil
}

func parseVTKBody(t *vtkTokens) (*vtkData, error) {
	d := &vtkData{point: mesh.Attributes{}, cell: mesh.Attributes{}}
	target := d.point
	count := 0
	for t.more() {
		kw, _ := t.next()
		var err error
		switch strings.ToUpper(kw) {
		case "DATASET":
			var kind string
			kind, err = t.next()
			if err == nil && kind != "POLYDATA" && kind != "UNSTRUCTURED_GRID" {
				err = errors.Errorf("unsupported dataset %s", kind)
			}
		case "POINTS":
			err = d.readPoints(t)
		case "POLYGONS", "TRIANGLE_STRIPS", "VERTICES", "LINES":
			var cells [][]uint32
			cells, err = readCells(t)
			typ := map[string]int{"POLYGONS": vtkPolygon, "TRIANGLE_STRIPS": vtkTriangleStip, "VERTICES": vtkPolyVertex}[strings.ToUpper(kw)]
			for _, c := range cells {
				d.cells.cells = append(d.cells.cells, c)
				d.cells.types = append(d.cells.types, typ)
			}
		case "CELLS":
			d.cells.cells, err = readCells(t)
		case "CELL_TYPES":
			var n int
			if n, err = t.int(); err == nil {
				d.cells.types = make([]int, n)
				for i := 0; i < n && err == nil; i++ {
					d.cells.types[i], err = t.int()
				}
			}
		case "POINT_DATA":
			target = d.point
			count, err = t.int()
		case "CELL_DATA":
			target = d.cell
			count, err = t.int()
		case "SCALARS":
			err = readScalars(t, target, count)
		case "VECTORS", "NORMALS":
			err = readArray(t, target, count, 3)
		case "TEXTURE_COORDINATES":
			var name, typ string
			var n int
			if name, err = t.next(); err == nil {
				if n, err = t.int(); err == nil {
					if typ, err = t.next(); err == nil {
						err = readValues(t, target, name, typ, count, n)
					}
				}
			}
		case "FIELD":
			err = readField(t, target)
		case "METADATA":
			skipMetadata(t)
		default:
			err = errors.Errorf("unexpected keyword %q", kw)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "vtk %s", kw)
		}
	}
	if d.points == nil {
		return nil, errors.New("vtk file has no points")
	}
	return d, nil
}

func (d *vtkData) readPoints(t *vtkTokens) error {
	n, err := t.int()
	if err != nil {
		return err
	}
	if _, err := t.next(); err != nil { // data type
		return err
	}
	d.points = make([][3]float32, n)
	for i := range d.points {
		for k := 0; k < 3; k++ {
			f, err := t.float()
			if err != nil {
				return err
			}
			d.points[i][k] = float32(f)
		}
	}
	return nil
}

// readCells reads both the classic "n size" list and the OFFSETS/CONNECTIVITY layout.
func readCells(t *vtkTokens) ([][]uint32, error) {
	n, err := t.int()
	if err != nil {
		return nil, err
	}
	if _, err := t.int(); err != nil {
		return nil, err
	}
	if strings.ToUpper(t.peek()) == "OFFSETS" {
		t.pos += 2
		offsets := make([]int, n)
		for i := range offsets {
			if offsets[i], err = t.int(); err != nil {
				return nil, err
			}
		}
		if kw, _ := t.next(); strings.ToUpper(kw) != "CONNECTIVITY" {
			return nil, errors.Errorf("expected CONNECTIVITY, got %q", kw)
		}
		t.pos++
		cells := make([][]uint32, 0, n)
		for i := 0; i+1 < n; i++ {
			c := make([]uint32, offsets[i+1]-offsets[i])
			for k := range c {
				v, err := t.int()
				if err != nil {
					return nil, err
				}
				c[k] = uint32(v)
			}
			cells = append(cells, c)
		}
		return cells, nil
	}
	cells := make([][]uint32, n)
	for i := range cells {
		k, err := t.int()
		if err != nil {
			return nil, err
		}
		cells[i] = make([]uint32, k)
		for j := range cells[i] {
			v, err := t.int()
			if err != nil {
				return nil, err
			}
			cells[i][j] = uint32(v)
		}
	}
	return cells, nil
}

func skipMetadata(t *vtkTokens) {
	for t.more() {
		switch strings.ToUpper(t.peek()) {
		case "POINT_DATA", "CELL_DATA", "SCALARS", "VECTORS", "NORMALS", "FIELD", "CELLS", "CELL_TYPES", "POLYGONS", "VERTICES":
			return
		}
		t.pos++
	}
}

func readScalars(t *vtkTokens, target mesh.Attributes, count int) error {
	name, err := t.next()
	if err != nil {
		return err
	}
	typ, err := t.next()
	if err != nil {
		return err
	}
	n := 1
	if _, err := strconv.Atoi(t.peek()); err == nil {
		n, _ = t.int()
	}
	if strings.EqualFold(t.peek(), "LOOKUP_TABLE") {
		t.pos += 2
	}
	return readValues(t, target, name, typ, count, n)
}

func readArray(t *vtkTokens, target mesh.Attributes, count, n int) error {
	name, err := t.next()
	if err != nil {
		return err
	}
	typ, err := t.next()
	if err != nil {
		return err
	}
	return readValues(t, target, name, typ, count, n)
}

func readField(t *vtkTokens, target mesh.Attributes) error {
	if _, err := t.next(); err != nil { // field data name
		return err
	}
	arrays, err := t.int()
	if err != nil {
		return err
	}
	for i := 0; i < arrays; i++ {
		name, err := t.next()
		if err != nil {
			return err
		}
		n, err := t.int()
		if err != nil {
			return err
		}
		tuples, err := t.int()
		if err != nil {
			return err
		}
		typ, err := t.next()
		if err != nil {
			return err
		}
		if err := readValues(t, target, name, typ, tuples, n); err != nil {
			return err
		}
	}
	return nil
}

var vtkShapes = map[int]attrib.Shape{1: attrib.Scalar, 2: attrib.Vec2, 3: attrib.Vec3, 4: attrib.Vec4, 9: attrib.Mat3, 16: attrib.Mat4}

func readValues(t *vtkTokens, target mesh.Attributes, name, typ string, count, n int) error {
	raw := make([]float64, count*n)
	for i := range raw {
		v, err := t.float()
		if err != nil {
			return errors.Wrapf(err, "attribute %q", name)
		}
		raw[i] = v
	}
	shape, ok := vtkShapes[n]
	if !ok {
		return nil // no matching element shape
	}
	b := vtkBuffer(shape, typ, raw)
	if signedInt(typ) && b.Type.Component == attrib.F32 {
		t.sink.Reportf(name, "attribute %q has negative %s values, stored as f32", name, typ)
	}
	target[name] = b
	return nil
}

func signedInt(typ string) bool {
	typ = strings.ToLower(typ)
	return typ == "int" || typ == "long" || typ == "vtkidtype"
}

// vtkBuffer picks the narrowest component type holding typ. 32-bit integer
// arrays become u32, or f32 if any value is negative.
func vtkBuffer(shape attrib.Shape, typ string, raw []float64) *attrib.Buffer {
	switch strings.ToLower(typ) {
	case "char":
		return attrib.New(shape, convert[int8](raw))
	case "unsigned_char", "bit":
		return attrib.New(shape, convert[uint8](raw))
	case "short":
		return attrib.New(shape, convert[int16](raw))
	case "unsigned_short":
		return attrib.New(shape, convert[uint16](raw))
	case "unsigned_int", "unsigned_long", "vtkidtype", "int", "long":
		for _, v := range raw {
			if v < 0 {
				return attrib.New(shape, convert[float32](raw))
			}
		}
		return attrib.New(shape, convert[uint32](raw))
	}
	return attrib.New(shape, convert[float32](raw))
}

func convert[T attrib.Component](raw []float64) []T {
	out := make([]T, len(raw))
	for i, v := range raw {
		out[i] = T(v)
	}
	return out
}

// build picks the richest representation present: polygons, then
// tetrahedra, then points.
func (d *vtkData) build() (*mesh.Mesh, bool) {
	var faces [][3]uint32
	var faceCell []int
	var tets [][4]uint32
	for i, c := range d.cells.cells {
		typ := vtkPolygon
		if i < len(d.cells.types) {
			typ = d.cells.types[i]
		}
		switch {
		case typ == vtkTetra && len(c) == 4:
			tets = append(tets, [4]uint32{c[0], c[1], c[2], c[3]})
		case typ == vtkTriangleStip:
			for k := 0; k+2 < len(c); k++ {
				if k%2 == 0 {
					faces = append(faces, [3]uint32{c[k], c[k+1], c[k+2]})
				} else {
					faces = append(faces, [3]uint32{c[k+1], c[k], c[k+2]})
				}
				faceCell = append(faceCell, i)
			}
		case typ == vtkTriangle || typ == vtkPolygon || typ == vtkQuad:
			for k := 1; k+1 < len(c); k++ {
				faces = append(faces, [3]uint32{c[0], c[k], c[k+1]})
				faceCell = append(faceCell, i)
			}
		}
	}
	if len(faces) > 0 {
		m := mesh.NewTriMesh(d.points, faces)
		for n, b := range d.point {
			m.Vertex[n] = b
		}
		for n, b := range d.cell {
			if b.Len() == len(d.cells.cells) {
				m.Face[n] = b.Gather(faceCell)
			}
		}
		return m, false
	}
	if len(tets) > 0 {
		return mesh.SurfaceFromTets(d.points, tets, d.point), true
	}
	m := mesh.NewPointCloud(d.points)
	for n, b := range d.point {
		m.Vertex[n] = b
	}
	return m, false
}
