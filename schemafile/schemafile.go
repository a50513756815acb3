// Package schemafile provides loading and parsing of YAML record-type
// declarations. Schema files declare named types, their flags, and their
// fields, and are handed to the dynamic type builder, so a fleet of plain
// record types can live in configuration instead of code.
//
// A schema file looks like:
//
//	types:
//	  - name: Point
//	    order: true
//	    fields:
//	      - name: x
//	      - name: y
//	        default: 0
//	  - name: Point3D
//	    order: true
//	    bases: [Point]
//	    fields:
//	      - name: z
//	        default: 0
//
// Bases resolve against earlier declarations in the same file first, then
// against the registry package, so files can extend types registered by
// code.
package schemafile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/record"
	"github.com/zero-day-ai/record/registry"
)

// File is the root of a parsed schema file.
type File struct {
	Types []TypeDecl `yaml:"types"`
}

// TypeDecl declares one record type: name, bases, type-level flags, and
// fields. Flag defaults match record.NewType (init, repr, eq, match_args
// default to true).
type TypeDecl struct {
	Name        string      `yaml:"name"`
	Bases       []string    `yaml:"bases,omitempty"`
	Frozen      bool        `yaml:"frozen,omitempty"`
	Eq          *bool       `yaml:"eq,omitempty"`
	Order       bool        `yaml:"order,omitempty"`
	UnsafeHash  bool        `yaml:"unsafe_hash,omitempty"`
	Init        *bool       `yaml:"init,omitempty"`
	Repr        *bool       `yaml:"repr,omitempty"`
	MatchArgs   *bool       `yaml:"match_args,omitempty"`
	KwOnly      bool        `yaml:"kw_only,omitempty"`
	Slots       bool        `yaml:"slots,omitempty"`
	WeakrefSlot bool        `yaml:"weakref_slot,omitempty"`
	Fields      []FieldDecl `yaml:"fields"`
}

// FieldDecl declares one field. Marker selects the field category:
// "any" (the default), "init-only", "class-attr", or "kw-only-boundary".
// Factory names a builtin default factory, "list" or "map", since literal
// container defaults are rejected by the collector.
type FieldDecl struct {
	Name     string         `yaml:"name"`
	Marker   string         `yaml:"marker,omitempty"`
	Default  *Value         `yaml:"default,omitempty"`
	Factory  string         `yaml:"factory,omitempty"`
	Init     *bool          `yaml:"init,omitempty"`
	Repr     *bool          `yaml:"repr,omitempty"`
	Compare  *bool          `yaml:"compare,omitempty"`
	Hash     *bool          `yaml:"hash,omitempty"`
	KwOnly   bool           `yaml:"kw_only,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// Value wraps an arbitrary YAML scalar or composite so that an absent
// default and an explicit null default stay distinguishable.
type Value struct {
	V any
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	return node.Decode(&v.V)
}

// Resolver maps a base-type name to a built record type.
type Resolver func(name string) (*record.Type, bool)

// Parse decodes schema-file YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("schemafile: parsing: %w", err)
	}
	if len(f.Types) == 0 {
		return nil, fmt.Errorf("schemafile: no types declared")
	}
	for _, td := range f.Types {
		if td.Name == "" {
			return nil, fmt.Errorf("schemafile: type declaration without a name")
		}
	}
	return &f, nil
}

// Load reads a schema file from disk and builds every declared type, in
// declaration order, resolving bases against earlier declarations and the
// registry.
func Load(path string) ([]*record.Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Build(f, registry.Lookup)
}

// Build materializes every declared type through the dynamic builder.
// Bases resolve against earlier declarations in the same file first, then
// through resolve (which may be nil).
func Build(f *File, resolve Resolver) ([]*record.Type, error) {
	built := map[string]*record.Type{}
	out := make([]*record.Type, 0, len(f.Types))

	for _, td := range f.Types {
		opts, err := typeOptions(td, built, resolve)
		if err != nil {
			return nil, err
		}

		specs := make([]any, 0, len(td.Fields))
		for _, fd := range td.Fields {
			spec, err := fieldSpec(td.Name, fd)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}

		t, err := record.MakeType(td.Name, specs, opts...)
		if err != nil {
			return nil, fmt.Errorf("schemafile: building type %s: %w", td.Name, err)
		}
		built[td.Name] = t
		out = append(out, t)
	}
	return out, nil
}

// typeOptions translates a declaration's flags and bases into TypeOptions.
func typeOptions(td TypeDecl, built map[string]*record.Type, resolve Resolver) ([]record.TypeOption, error) {
	var opts []record.TypeOption
	if td.Init != nil {
		opts = append(opts, record.WithTypeInit(*td.Init))
	}
	if td.Repr != nil {
		opts = append(opts, record.WithTypeRepr(*td.Repr))
	}
	if td.Eq != nil {
		opts = append(opts, record.WithEq(*td.Eq))
	}
	if td.MatchArgs != nil {
		opts = append(opts, record.WithMatchArgs(*td.MatchArgs))
	}
	if td.Order {
		opts = append(opts, record.WithOrder(true))
	}
	if td.UnsafeHash {
		opts = append(opts, record.WithUnsafeHash(true))
	}
	if td.Frozen {
		opts = append(opts, record.WithFrozen(true))
	}
	if td.KwOnly {
		opts = append(opts, record.WithTypeKwOnly(true))
	}
	if td.Slots {
		opts = append(opts, record.WithSlots(true))
	}
	if td.WeakrefSlot {
		opts = append(opts, record.WithWeakrefSlot(true))
	}

	for _, baseName := range td.Bases {
		base, ok := built[baseName]
		if !ok && resolve != nil {
			base, ok = resolve(baseName)
		}
		if !ok {
			return nil, fmt.Errorf("schemafile: type %s: unknown base %q", td.Name, baseName)
		}
		opts = append(opts, record.WithBases(base))
	}
	return opts, nil
}

// fieldSpec translates one field declaration.
func fieldSpec(typeName string, fd FieldDecl) (record.FieldSpec, error) {
	if fd.Name == "" {
		return record.FieldSpec{}, fmt.Errorf("schemafile: type %s: field without a name", typeName)
	}

	var marker record.Marker
	switch fd.Marker {
	case "", "any":
		marker = record.Any
	case "init-only":
		marker = record.InitOnly
	case "class-attr":
		marker = record.ClassAttr
	case "kw-only-boundary":
		marker = record.KWOnly
	default:
		return record.FieldSpec{}, fmt.Errorf("schemafile: type %s, field %s: unknown marker %q",
			typeName, fd.Name, fd.Marker)
	}

	var opts []record.FieldOption
	if fd.Default != nil {
		opts = append(opts, record.WithDefault(fd.Default.V))
	}
	if fd.Factory != "" {
		factory, err := builtinFactory(fd.Factory)
		if err != nil {
			return record.FieldSpec{}, fmt.Errorf("schemafile: type %s, field %s: %w", typeName, fd.Name, err)
		}
		opts = append(opts, record.WithFactory(factory))
	}
	if fd.Init != nil {
		opts = append(opts, record.WithInit(*fd.Init))
	}
	if fd.Repr != nil {
		opts = append(opts, record.WithRepr(*fd.Repr))
	}
	if fd.Compare != nil {
		opts = append(opts, record.WithCompare(*fd.Compare))
	}
	if fd.Hash != nil {
		opts = append(opts, record.WithHash(*fd.Hash))
	}
	if fd.KwOnly {
		opts = append(opts, record.WithKwOnly(true))
	}
	if fd.Metadata != nil {
		opts = append(opts, record.WithMetadata(fd.Metadata))
	}
	return record.F(fd.Name, marker, opts...), nil
}

// builtinFactory resolves the named default factory.
func builtinFactory(name string) (func() any, error) {
	switch name {
	case "list":
		return func() any { return []any{} }, nil
	case "map":
		return func() any { return map[string]any{} }, nil
	default:
		return nil, fmt.Errorf("unknown factory %q", name)
	}
}
