package record

import (
	"fmt"
	"maps"
	"reflect"
)

// missingType is the type of the Missing sentinel. It is unexported so the
// sentinel stays a singleton.
type missingType struct{}

func (*missingType) String() string { return "MISSING" }

// Missing is the process-wide sentinel distinguishing "no default was
// supplied" from any real value, including nil. Compare against it by
// identity: v == record.Missing.
var Missing = &missingType{}

// FieldKind is the category tag of a collected field.
type FieldKind int

const (
	// RegularField is an ordinary stored field.
	RegularField FieldKind = iota

	// InitOnlyField participates in construction and the post-init hook
	// but is never stored and never listed by Fields().
	InitOnlyField

	// ClassAttrField is excluded from the schema entirely and remains an
	// ordinary type-level value.
	ClassAttrField
)

// String returns the category name.
func (k FieldKind) String() string {
	switch k {
	case RegularField:
		return "field"
	case InitOnlyField:
		return "init-only"
	case ClassAttrField:
		return "class-attr"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Marker is a field's type marker. The engine does not validate values
// against markers; it only recognizes the marker categories that change
// how a declared member is collected.
type Marker int

const (
	// NoMarker means the member carries no type marker. A member with no
	// marker and a plain default value becomes a class attribute; a
	// member with no marker and field-builder options is a schema error.
	NoMarker Marker = iota

	// Any is the unconstrained marker for a regular field.
	Any

	// InitOnly marks an initialization-only variable.
	InitOnly

	// ClassAttr marks a non-field class attribute.
	ClassAttr

	// KWOnly is the keyword-only boundary marker. It produces no field;
	// every member declared after it is keyword-only.
	KWOnly
)

// String returns the marker name.
func (m Marker) String() string {
	switch m {
	case NoMarker:
		return "none"
	case Any:
		return "any"
	case InitOnly:
		return "init-only"
	case ClassAttr:
		return "class-attr"
	case KWOnly:
		return "kw-only-boundary"
	default:
		return fmt.Sprintf("Marker(%d)", int(m))
	}
}

// FieldSpec is one declared member of a type: a name, a type marker, and
// optional field-builder settings. Build specs with F; the zero value is
// not valid.
type FieldSpec struct {
	name     string
	marker   Marker
	def      any
	factory  func() any
	init     bool
	repr     bool
	compare  bool
	hash     *bool
	kwOnly   bool
	metadata map[string]any

	// defaultSet and builderSet track which option groups were applied,
	// for the no-marker collection rules.
	defaultSet bool
	builderSet bool
}

// FieldOption configures a FieldSpec.
type FieldOption func(*FieldSpec)

// F builds a field specification for one declared member.
//
// The marker selects the member's category: Any for a regular field,
// InitOnly for an initialization-only variable, ClassAttr for a non-field
// class attribute, KWOnly for the keyword-only boundary. Flags default to
// init=true, repr=true, compare=true, hash inherited from compare.
func F(name string, marker Marker, opts ...FieldOption) FieldSpec {
	s := FieldSpec{
		name:    name,
		marker:  marker,
		def:     Missing,
		init:    true,
		repr:    true,
		compare: true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithDefault sets a literal default value. Mutually exclusive with
// WithFactory; supplying both is a schema error at type build time.
func WithDefault(v any) FieldOption {
	return func(s *FieldSpec) {
		s.def = v
		s.defaultSet = true
	}
}

// WithFactory sets a zero-argument default producer. The factory is
// invoked once per construction that omits the field, so every instance
// gets a fresh value.
func WithFactory(fn func() any) FieldOption {
	return func(s *FieldSpec) {
		s.factory = fn
		s.builderSet = true
	}
}

// WithInit controls whether the field is a constructor parameter.
// Fields with init=false are assigned from their default, or by the
// post-init hook.
func WithInit(include bool) FieldOption {
	return func(s *FieldSpec) {
		s.init = include
		s.builderSet = true
	}
}

// WithRepr controls whether the field appears in the textual
// representation.
func WithRepr(include bool) FieldOption {
	return func(s *FieldSpec) {
		s.repr = include
		s.builderSet = true
	}
}

// WithCompare controls whether the field participates in equality and
// ordering.
func WithCompare(include bool) FieldOption {
	return func(s *FieldSpec) {
		s.compare = include
		s.builderSet = true
	}
}

// WithHash forces the field into (true) or out of (false) the hash
// projection. Unset, the field follows its compare flag.
func WithHash(include bool) FieldOption {
	return func(s *FieldSpec) {
		v := include
		s.hash = &v
		s.builderSet = true
	}
}

// WithKwOnly makes the field keyword-only: it must be supplied by name
// and never positionally.
func WithKwOnly(kwOnly bool) FieldOption {
	return func(s *FieldSpec) {
		s.kwOnly = kwOnly
		s.builderSet = true
	}
}

// WithMetadata attaches an opaque key-value mapping to the field. The
// mapping is copied in and ignored by every derived operation.
func WithMetadata(md map[string]any) FieldOption {
	return func(s *FieldSpec) {
		s.metadata = maps.Clone(md)
		s.builderSet = true
	}
}

// Name returns the declared member name.
func (s FieldSpec) Name() string { return s.name }

// Marker returns the declared type marker.
func (s FieldSpec) Marker() Marker { return s.marker }

// Field is one collected, validated field descriptor. Fields are immutable
// after the schema is built.
type Field struct {
	name     string
	def      any
	factory  func() any
	init     bool
	repr     bool
	compare  bool
	hash     *bool
	kwOnly   bool
	metadata map[string]any
	kind     FieldKind
}

// Name returns the field name, unique within its schema.
func (f Field) Name() string { return f.name }

// Default returns the literal default value, or Missing when the field
// has none.
func (f Field) Default() any { return f.def }

// Factory returns the default factory, or nil when the field has none.
func (f Field) Factory() func() any { return f.factory }

// HasDefault reports whether the field carries a literal default or a
// default factory.
func (f Field) HasDefault() bool { return f.def != Missing || f.factory != nil }

// Init reports whether the field is a constructor parameter.
func (f Field) Init() bool { return f.init }

// Repr reports whether the field appears in the representation.
func (f Field) Repr() bool { return f.repr }

// Compare reports whether the field participates in equality and
// ordering.
func (f Field) Compare() bool { return f.compare }

// Hash returns the explicit hash flag, or nil when the field inherits
// its hash inclusion from Compare.
func (f Field) Hash() *bool {
	if f.hash == nil {
		return nil
	}
	v := *f.hash
	return &v
}

// KwOnly reports whether the field must be supplied by name.
func (f Field) KwOnly() bool { return f.kwOnly }

// Kind returns the field's category tag.
func (f Field) Kind() FieldKind { return f.kind }

// Metadata returns a copy of the field's opaque metadata mapping. The
// result is never nil.
func (f Field) Metadata() map[string]any {
	if f.metadata == nil {
		return map[string]any{}
	}
	return maps.Clone(f.metadata)
}

// String returns a compact descriptor rendering for debugging.
func (f Field) String() string {
	return fmt.Sprintf("Field(name=%s, kind=%s, default=%v, init=%t, repr=%t, compare=%t, kw_only=%t)",
		f.name, f.kind, f.def, f.init, f.repr, f.compare, f.kwOnly)
}

// effectiveHash resolves the tri-state hash flag: the explicit setting if
// present, else the compare flag.
func (f Field) effectiveHash() bool {
	if f.hash != nil {
		return *f.hash
	}
	return f.compare
}

// mutableDefault reports whether v belongs to a known-mutable container
// category. Such literal defaults would be shared across every instance,
// so the collector rejects them in favor of a factory.
func mutableDefault(v any) bool {
	if v == nil || v == Missing {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Map:
		return true
	default:
		return false
	}
}
