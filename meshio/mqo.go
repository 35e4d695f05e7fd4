package meshio

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/binzume/gltfgen/attrib"
	"github.com/binzume/gltfgen/mesh"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// MqoParser reads Metasequoia documents. Visible objects are merged into a
// single mesh; faces with fewer than three vertices are dropped.
type MqoParser struct {
	name string
	r    io.Reader
	s    scanner.Scanner

	materials []*mesh.LocalMaterial
	positions [][3]float32
	faces     [][3]uint32
	faceMat   []uint32
	uv        []float32
	hasUV     bool
}

func NewMqoParser(r io.Reader, path string) *MqoParser {
	return &MqoParser{name: path, r: r}
}

type backSlashReplacer struct{}

func (backSlashReplacer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	n := copy(dst, src)
	for i := 0; i < n; i++ {
		if dst[i] == '\\' {
			dst[i] = '/'
		}
	}
	if n < len(src) {
		err = transform.ErrShortDst
	}
	return n, n, err
}

func (backSlashReplacer) Reset() {}

// detectCodePage wraps r with a Shift_JIS decoder unless the header says utf8.
func (p *MqoParser) detectCodePage() {
	buf := make([]byte, 128)
	n, _ := io.ReadFull(p.r, buf)
	p.r = io.MultiReader(bytes.NewReader(buf[:n]), p.r)
	if matched, _ := regexp.Match(`CodePage\s+utf8`, buf[:n]); !matched {
		p.r = transform.NewReader(p.r, transform.Chain(japanese.ShiftJIS.NewDecoder(), backSlashReplacer{}))
	}
}

func (p *MqoParser) readFloat() float32 {
	tok := p.s.Scan()
	var sign float32 = 1
	if p.s.TokenText() == "-" {
		tok = p.s.Scan()
		sign = -1
	}
	if tok != scanner.Int && tok != scanner.Float {
		p.s.ErrorCount++
		return 0
	}
	n, _ := strconv.ParseFloat(p.s.TokenText(), 32)
	return float32(n) * sign
}

func (p *MqoParser) readInt() int {
	if p.s.Scan() != scanner.Int {
		p.s.ErrorCount++
		return 0
	}
	n, _ := strconv.Atoi(p.s.TokenText())
	return n
}

func (p *MqoParser) readStr() string {
	p.s.Scan()
	return strings.Trim(p.s.TokenText(), "\"")
}

func (p *MqoParser) skip(t string) {
	p.s.Scan()
	if p.s.TokenText() != t {
		p.s.ErrorCount++
	}
}

// procAttrs reads "name(args...)" pairs up to the end of the current line.
func (p *MqoParser) procAttrs(handlers map[string]func()) {
	line := p.s.Pos().Line
	for tok := p.s.Scan(); line == p.s.Pos().Line && tok != scanner.EOF; tok = p.s.Scan() {
		if handler, ok := handlers[p.s.TokenText()]; ok {
			p.skip("(")
			handler()
			p.skip(")")
		} else {
			p.skip("(")
			for tok := p.s.Scan(); line == p.s.Pos().Line && tok != scanner.EOF; tok = p.s.Scan() {
				if p.s.TokenText() == ")" {
					break
				}
			}
		}
		for p.s.Peek() == ' ' || p.s.Peek() == '\t' {
			p.s.Next()
		}
		if p.s.Peek() == '\r' || p.s.Peek() == '\n' || p.s.Peek() == scanner.EOF {
			break
		}
	}
}

func (p *MqoParser) skipBlock() {
	for tok := p.s.Scan(); tok != scanner.EOF; tok = p.s.Scan() {
		switch p.s.TokenText() {
		case "}":
			return
		case "{":
			p.skipBlock()
		}
	}
}

func (p *MqoParser) procArray(elem func(i int)) {
	n := p.readInt()
	p.skip("{")
	for i := 0; i < n; i++ {
		elem(i)
	}
	p.skip("}")
}

func (p *MqoParser) procObj(handlers map[string]func()) {
	p.skip("{")
	for tok := p.s.Scan(); tok != scanner.EOF; tok = p.s.Scan() {
		if p.s.TokenText() == "}" {
			break
		}
		if p.s.TokenText() == "{" {
			p.skipBlock()
		}
		if handler, ok := handlers[p.s.TokenText()]; ok {
			handler()
		}
	}
}

func (p *MqoParser) readMaterial() *mesh.LocalMaterial {
	m := &mesh.LocalMaterial{Name: p.readStr(), BaseColor: [4]float32{1, 1, 1, 1}}
	p.procAttrs(map[string]func(){
		"col": func() {
			m.BaseColor = [4]float32{p.readFloat(), p.readFloat(), p.readFloat(), p.readFloat()}
		},
		"tex": func() {
			tex := p.readStr()
			if tex != "" && !filepath.IsAbs(tex) {
				tex = filepath.Join(filepath.Dir(p.name), tex)
			}
			m.Texture = tex
		},
	})
	return m
}

type mqoFace struct {
	verts    []int
	material int
	uvs      [][2]float32
}

func (p *MqoParser) readObject() {
	p.readStr()
	var vertexes [][3]float32
	var faces []mqoFace
	visible := true
	p.procObj(map[string]func(){
		"visible": func() { visible = p.readInt() > 0 },
		"vertex": func() {
			p.procArray(func(i int) {
				vertexes = append(vertexes, [3]float32{p.readFloat(), p.readFloat(), p.readFloat()})
			})
		},
		"face": func() {
			p.procArray(func(i int) {
				f := mqoFace{material: -1}
				vn := p.readInt()
				p.procAttrs(map[string]func(){
					"V": func() {
						f.verts = make([]int, vn)
						for k := range f.verts {
							f.verts[k] = p.readInt()
						}
					},
					"M": func() { f.material = p.readInt() },
					"UV": func() {
						f.uvs = make([][2]float32, vn)
						for k := range f.uvs {
							f.uvs[k] = [2]float32{p.readFloat(), p.readFloat()}
						}
					},
				})
				faces = append(faces, f)
			})
		},
	})
	if !visible {
		return
	}

	base := len(p.positions)
	p.positions = append(p.positions, vertexes...)
	for _, f := range faces {
		if len(f.verts) < 3 {
			continue
		}
		// faces are clockwise; emit a counter-clockwise fan
		for k := 1; k+1 < len(f.verts); k++ {
			corners := [3]int{k + 1, k, 0}
			var tri [3]uint32
			for c, at := range corners {
				v := f.verts[at]
				if v < 0 || v >= len(vertexes) {
					p.s.ErrorCount++
					v = 0
				}
				tri[c] = uint32(base + v)
				var uv [2]float32
				if f.uvs != nil {
					uv = f.uvs[at]
					p.hasUV = true
				}
				p.uv = append(p.uv, uv[0], uv[1])
			}
			p.faces = append(p.faces, tri)
			p.faceMat = append(p.faceMat, uint32(int32(f.material)))
		}
	}
}

func (p *MqoParser) Parse() (*mesh.Mesh, error) {
	p.detectCodePage()
	p.s.Init(p.r)
	p.s.Error = func(s *scanner.Scanner, msg string) {}
	if p.name != "" {
		p.s.Filename = p.name
	}

loop:
	for tok := p.s.Scan(); tok != scanner.EOF; tok = p.s.Scan() {
		if tok != scanner.Ident {
			continue
		}
		switch p.s.TokenText() {
		case "Material":
			p.procArray(func(i int) {
				p.materials = append(p.materials, p.readMaterial())
			})
		case "Object":
			p.readObject()
		case "Thumbnail":
			// Thumbnail <w> <h> <bpp> <format> <size> { ... }
			for i := 0; i < 5; i++ {
				p.s.Scan()
			}
			p.skip("{")
			p.skipBlock()
		case "Eof":
			break loop
		}
	}
	if p.s.ErrorCount > 0 {
		return nil, errors.Errorf("parse error (count:%d)", p.s.ErrorCount)
	}
	if len(p.faces) == 0 {
		if len(p.positions) == 0 {
			return nil, errors.New("no vertices")
		}
		return mesh.NewPointCloud(p.positions), nil
	}

	m := mesh.NewTriMesh(p.positions, p.faces)
	if p.hasUV {
		m.FaceVertex[TexCoordAttribute] = attrib.New(attrib.Vec2, p.uv)
	}
	if len(p.materials) > 0 {
		fallback := -1
		for i, mi := range p.faceMat {
			if int(mi) < len(p.materials) {
				continue
			}
			if fallback < 0 {
				fallback = len(p.materials)
				p.materials = append(p.materials, &mesh.LocalMaterial{BaseColor: [4]float32{1, 1, 1, 1}})
			}
			p.faceMat[i] = uint32(fallback)
		}
		m.Face[mesh.MaterialAttribute] = attrib.New(attrib.Scalar, p.faceMat)
		m.Materials = p.materials
	}
	return m, nil
}

// parseMQOZ reads the first .mqo entry of a zip archive.
func parseMQOZ(path string) (*mesh.Mesh, error) {
	z, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer z.Close()
	for _, f := range z.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".mqo") {
			r, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer r.Close()
			return NewMqoParser(r, path).Parse()
		}
	}
	return nil, errors.New("no .mqo entry in archive")
}
