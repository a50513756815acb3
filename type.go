package record

import (
	"fmt"
	"strings"
)

// hashMode selects the synthesized hash behavior, resolved once at type
// build time from the eq/frozen/unsafe-hash flags.
type hashMode int

const (
	hashIdentity hashMode = iota
	hashDisabled
	hashSynthesized
)

// InitValues carries the initialization-only parameter values passed to a
// post-init hook. The values are never stored on the instance; the hook is
// the only place they are observable.
type InitValues map[string]any

// PostInitFunc is the post-construction hook. It runs after every init
// parameter and every defaulted init=false field has been assigned, and
// may assign further fields through inst.Set even on frozen types.
type PostInitFunc func(inst *Instance, initOnly InitValues) error

// typeConfig holds the type-level flags while a Type is being built.
type typeConfig struct {
	init        bool
	repr        bool
	eq          bool
	order       bool
	unsafeHash  bool
	frozen      bool
	matchArgs   bool
	kwOnly      bool
	slots       bool
	weakrefSlot bool
	bases       []*Type
	postInit    PostInitFunc
}

// TypeOption configures a Type under construction.
type TypeOption func(*typeConfig)

// WithTypeInit controls generation of the constructor parameter list.
// With init=false the constructor accepts no arguments and every field
// must be covered by a default or the post-init hook.
func WithTypeInit(generate bool) TypeOption {
	return func(c *typeConfig) { c.init = generate }
}

// WithTypeRepr controls generation of the field-listing representation.
// With repr=false, String renders only the type name.
func WithTypeRepr(generate bool) TypeOption {
	return func(c *typeConfig) { c.repr = generate }
}

// WithEq controls generation of field-wise equality. With eq=false,
// equality falls back to instance identity.
func WithEq(generate bool) TypeOption {
	return func(c *typeConfig) { c.eq = generate }
}

// WithOrder enables the ordering comparisons (Cmp, Less, ...). Requires
// eq; order without eq is a schema error.
func WithOrder(generate bool) TypeOption {
	return func(c *typeConfig) { c.order = generate }
}

// WithUnsafeHash forces a synthesized hash even when the eq/frozen rule
// table would disable hashing.
func WithUnsafeHash(force bool) TypeOption {
	return func(c *typeConfig) { c.unsafeHash = force }
}

// WithFrozen makes every instance immutable after construction.
func WithFrozen(frozen bool) TypeOption {
	return func(c *typeConfig) { c.frozen = frozen }
}

// WithMatchArgs controls generation of the positional match-argument
// list exposed by Type.MatchArgs.
func WithMatchArgs(generate bool) TypeOption {
	return func(c *typeConfig) { c.matchArgs = generate }
}

// WithTypeKwOnly makes every declared field keyword-only, as if each were
// positioned after the keyword-only boundary.
func WithTypeKwOnly(kwOnly bool) TypeOption {
	return func(c *typeConfig) { c.kwOnly = kwOnly }
}

// WithSlots restricts instances to exactly the declared fields: assigning
// any undeclared attribute is a storage violation.
func WithSlots(slots bool) TypeOption {
	return func(c *typeConfig) { c.slots = slots }
}

// WithWeakrefSlot reserves the weak-reference slot on instances. Valid
// only together with WithSlots.
func WithWeakrefSlot(enable bool) TypeOption {
	return func(c *typeConfig) { c.weakrefSlot = enable }
}

// WithBases declares the base types whose schemas this type extends,
// nearest first. Every base must already be a built Type.
func WithBases(bases ...*Type) TypeOption {
	return func(c *typeConfig) { c.bases = append(c.bases, bases...) }
}

// WithPostInit sets the post-construction hook. Without an explicit hook
// the nearest base's hook is inherited.
func WithPostInit(fn PostInitFunc) TypeOption {
	return func(c *typeConfig) { c.postInit = fn }
}

// Type is a schema-bearing type descriptor: the validated, ordered field
// list plus the type-level flags, with the synthesized operations hanging
// off its instances. A Type is built once by NewType and is immutable and
// safe for concurrent use thereafter.
type Type struct {
	name string

	// fields holds regular and init-only descriptors in declaration
	// order, base fields first. Class attributes live in classAttrs.
	fields []Field

	// slotIndex maps regular field names to their storage slot.
	slotIndex map[string]int

	// fieldIndex maps every field name (regular and init-only) to its
	// position in fields.
	fieldIndex map[string]int

	classAttrs map[string]any
	postInit   PostInitFunc
	matchArgs  []string
	doc        string

	init        bool
	repr        bool
	eq          bool
	order       bool
	frozen      bool
	kwOnly      bool
	slots       bool
	weakrefSlot bool
	hashing     hashMode
	numSlots    int
}

// NewType collects the declared members into a validated schema and
// produces the type descriptor carrying the synthesized operations.
//
// Members are collected in declaration order; with WithBases, inherited
// fields precede the declaring type's own, and redeclaring an inherited
// name overrides the descriptor in the ancestor's position. Every schema
// invariant violation is reported as a KindSchema *Error.
func NewType(name string, members []FieldSpec, opts ...TypeOption) (*Type, error) {
	if name == "" {
		return nil, schemaErr(name, "", "type name must not be empty")
	}

	cfg := typeConfig{init: true, repr: true, eq: true, matchArgs: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.order && !cfg.eq {
		return nil, schemaErr(name, "", "order requires eq")
	}
	if cfg.weakrefSlot && !cfg.slots {
		return nil, schemaErr(name, "", "weakref_slot requires slots")
	}

	t := &Type{
		name:        name,
		slotIndex:   map[string]int{},
		fieldIndex:  map[string]int{},
		classAttrs:  map[string]any{},
		init:        cfg.init,
		repr:        cfg.repr,
		eq:          cfg.eq,
		order:       cfg.order,
		frozen:      cfg.frozen,
		kwOnly:      cfg.kwOnly,
		slots:       cfg.slots,
		weakrefSlot: cfg.weakrefSlot,
	}

	// Inheritance merge: most distant base first, so the final order is
	// base-before-derived. Bases are given nearest-first.
	for i := len(cfg.bases) - 1; i >= 0; i-- {
		base := cfg.bases[i]
		if base == nil {
			return nil, schemaErr(name, "", "nil base type")
		}
		if base.frozen != cfg.frozen {
			return nil, schemaErr(name, "",
				"cannot inherit %s type %s into %s type",
				frozenWord(base.frozen), base.name, frozenWord(cfg.frozen))
		}
		for _, f := range base.fields {
			t.mergeField(f)
		}
		for k, v := range base.classAttrs {
			t.classAttrs[k] = v
		}
	}

	// Hook resolution: own hook wins, else nearest base's.
	t.postInit = cfg.postInit
	if t.postInit == nil {
		for _, base := range cfg.bases {
			if base.postInit != nil {
				t.postInit = base.postInit
				break
			}
		}
	}

	// Own member collection.
	seenBoundary := false
	own := map[string]bool{}
	for _, m := range members {
		if m.name == "" {
			return nil, schemaErr(name, "", "field name must not be empty")
		}
		if own[m.name] {
			return nil, schemaErr(name, m.name, "duplicate field")
		}

		switch m.marker {
		case KWOnly:
			if m.defaultSet || m.builderSet {
				return nil, schemaErr(name, m.name, "keyword-only boundary takes no default or options")
			}
			if seenBoundary {
				return nil, schemaErr(name, m.name, "duplicate keyword-only boundary")
			}
			seenBoundary = true
			continue

		case NoMarker:
			if m.builderSet {
				return nil, schemaErr(name, m.name, "field options require a type marker")
			}
			if !m.defaultSet {
				return nil, schemaErr(name, m.name, "member has no type marker")
			}
			// A plain value with no marker is an ordinary class-level
			// attribute, not a field.
			own[m.name] = true
			t.classAttrs[m.name] = m.def
			continue

		case ClassAttr:
			own[m.name] = true
			if m.defaultSet {
				t.classAttrs[m.name] = m.def
			} else {
				t.classAttrs[m.name] = nil
			}
			continue
		}

		f, err := buildField(name, m, seenBoundary || cfg.kwOnly)
		if err != nil {
			return nil, err
		}
		own[m.name] = true
		t.mergeField(f)
	}

	if err := t.validateOrder(); err != nil {
		return nil, err
	}

	// Storage layout: regular fields only, in schema order.
	for i := range t.fields {
		if t.fields[i].kind == RegularField {
			t.slotIndex[t.fields[i].name] = t.numSlots
			t.numSlots++
		}
	}

	if cfg.matchArgs {
		// Non-nil even when empty, so MatchArgs distinguishes "generated
		// with no positional parameters" from WithMatchArgs(false).
		t.matchArgs = []string{}
		for _, f := range t.fields {
			if f.init && !f.kwOnly {
				t.matchArgs = append(t.matchArgs, f.name)
			}
		}
	}

	t.hashing = resolveHashMode(cfg)
	t.doc = t.buildDoc()
	return t, nil
}

// mergeField appends a field, or replaces an inherited field of the same
// name in place. Position is preserved, content is overridden, which is
// what keeps the defaulted-field ordering check honest under inheritance.
func (t *Type) mergeField(f Field) {
	if i, ok := t.fieldIndex[f.name]; ok {
		t.fields[i] = f
		return
	}
	t.fieldIndex[f.name] = len(t.fields)
	t.fields = append(t.fields, f)
}

// buildField validates one declared member and produces its descriptor.
func buildField(typeName string, m FieldSpec, kwOnly bool) (Field, error) {
	if m.defaultSet && m.factory != nil {
		return Field{}, schemaErr(typeName, m.name, "cannot specify both default and default factory")
	}
	if m.defaultSet && mutableDefault(m.def) {
		return Field{}, schemaErr(typeName, m.name,
			"mutable default %T is not allowed: use a default factory", m.def)
	}

	kind := RegularField
	if m.marker == InitOnly {
		kind = InitOnlyField
	}

	return Field{
		name:     m.name,
		def:      m.def,
		factory:  m.factory,
		init:     m.init,
		repr:     m.repr,
		compare:  m.compare,
		hash:     m.hash,
		kwOnly:   m.kwOnly || kwOnly,
		metadata: m.metadata,
		kind:     kind,
	}, nil
}

// validateOrder enforces the constructor-signature invariant: once a
// positional parameter has a default, every later positional parameter
// needs one too. Keyword-only fields are exempt, they are never
// positional.
func (t *Type) validateOrder() error {
	defaulted := ""
	for _, f := range t.fields {
		if !f.init || f.kwOnly {
			continue
		}
		if f.HasDefault() {
			defaulted = f.name
			continue
		}
		if defaulted != "" {
			return schemaErr(t.name, f.name,
				"non-default field follows defaulted field %q", defaulted)
		}
	}
	return nil
}

// resolveHashMode applies the eq/frozen/unsafe-hash rule table.
func resolveHashMode(cfg typeConfig) hashMode {
	switch {
	case cfg.unsafeHash:
		return hashSynthesized
	case !cfg.eq:
		return hashIdentity
	case cfg.frozen:
		return hashSynthesized
	default:
		return hashDisabled
	}
}

// buildDoc renders the generated signature documentation, in the shape
// Name(a, b=1, *, c).
func (t *Type) buildDoc() string {
	var b strings.Builder
	b.WriteString(t.name)
	b.WriteByte('(')
	wrote := false
	starred := false
	for _, f := range t.fields {
		if !f.init {
			continue
		}
		if wrote {
			b.WriteString(", ")
		}
		if f.kwOnly && !starred {
			b.WriteString("*, ")
			starred = true
		}
		b.WriteString(f.name)
		if f.def != Missing {
			fmt.Fprintf(&b, "=%v", f.def)
		} else if f.factory != nil {
			b.WriteString("=...")
		}
		wrote = true
	}
	b.WriteByte(')')
	return b.String()
}

func frozenWord(frozen bool) string {
	if frozen {
		return "frozen"
	}
	return "non-frozen"
}

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// Doc returns the generated signature documentation for the type.
func (t *Type) Doc() string { return t.doc }

// Frozen reports whether instances are immutable after construction.
func (t *Type) Frozen() bool { return t.frozen }

// Ordered reports whether the ordering comparisons are synthesized.
func (t *Type) Ordered() bool { return t.order }

// Slots reports whether instance storage is restricted to the declared
// fields.
func (t *Type) Slots() bool { return t.slots }

// WeakrefSlot reports whether the weak-reference slot is reserved.
func (t *Type) WeakrefSlot() bool { return t.weakrefSlot }

// MatchArgs returns the names of the positional constructor parameters,
// or nil when the type was built with WithMatchArgs(false).
func (t *Type) MatchArgs() []string {
	if t.matchArgs == nil {
		return nil
	}
	out := make([]string, len(t.matchArgs))
	copy(out, t.matchArgs)
	return out
}

// ClassAttr returns a type-level non-field attribute by name.
func (t *Type) ClassAttr(name string) (any, bool) {
	v, ok := t.classAttrs[name]
	return v, ok
}

// recordFields returns the introspectable descriptors: regular fields
// only, in stable base-first declaration order.
func (t *Type) recordFields() []Field {
	out := make([]Field, 0, t.numSlots)
	for _, f := range t.fields {
		if f.kind == RegularField {
			out = append(out, f)
		}
	}
	return out
}
