package attrib

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Entry declares one named attribute.
type Entry struct {
	Name string
	Type Type
}

// Spec is an ordered name to type mapping. Order decides COLOR_n numbering.
type Spec []Entry

// TexEntry declares one texture coordinate attribute. Its position in the
// TexSpec is the TEXCOORD slot.
type TexEntry struct {
	Name      string
	Component ComponentType
}

// TexSpec is an ordered name to component type mapping.
type TexSpec []TexEntry

// Lookup returns the declared type of name.
func (s Spec) Lookup(name string) (Type, bool) {
	for _, e := range s {
		if e.Name == name {
			return e.Type, true
		}
	}
	return Type{}, false
}

func (s Spec) MarshalYAML() (interface{}, error) {
	m := make(yaml.MapSlice, 0, len(s))
	for _, e := range s {
		m = append(m, yaml.MapItem{Key: e.Name, Value: e.Type.String()})
	}
	return m, nil
}

func (s *Spec) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var m yaml.MapSlice
	if err := unmarshal(&m); err != nil {
		return err
	}
	out := make(Spec, 0, len(m))
	for _, item := range m {
		name := fmt.Sprint(item.Key)
		t, err := ParseType(fmt.Sprint(item.Value))
		if err != nil {
			return errors.Wrapf(err, "attribute %q", name)
		}
		out = append(out, Entry{Name: name, Type: t})
	}
	*s = out
	return nil
}

func (s TexSpec) MarshalYAML() (interface{}, error) {
	m := make(yaml.MapSlice, 0, len(s))
	for _, e := range s {
		m = append(m, yaml.MapItem{Key: e.Name, Value: e.Component.String()})
	}
	return m, nil
}

func (s *TexSpec) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var m yaml.MapSlice
	if err := unmarshal(&m); err != nil {
		return err
	}
	out := make(TexSpec, 0, len(m))
	for _, item := range m {
		name := fmt.Sprint(item.Key)
		c, err := ParseComponentType(fmt.Sprint(item.Value))
		if err != nil {
			return errors.Wrapf(err, "texture coordinate %q", name)
		}
		out = append(out, TexEntry{Name: name, Component: c})
	}
	*s = out
	return nil
}

// ParseSpec parses a YAML (or JSON) mapping such as `{"pressure": f32, "v": Vec3(f32)}`.
func ParseSpec(src string) (Spec, error) {
	var s Spec
	if err := yaml.Unmarshal([]byte(src), &s); err != nil {
		return nil, errors.Wrap(err, "parse attribute map")
	}
	return s, nil
}

// ParseTexSpec parses a YAML (or JSON) mapping such as `{"uv": f32}`.
func ParseTexSpec(src string) (TexSpec, error) {
	var s TexSpec
	if err := yaml.Unmarshal([]byte(src), &s); err != nil {
		return nil, errors.Wrap(err, "parse texture coordinate map")
	}
	return s, nil
}
