package record

import (
	"fmt"
	"weak"
)

// Instance is one value of a schema-bearing Type. Instances are created
// by the synthesized constructor (Type.New or Type.Build) and carry the
// derived operations: String, Equal, Cmp, Hash, and attribute access
// through Get, Set, and Delete.
//
// Instances are not synchronized; callers coordinate concurrent mutation
// of non-frozen instances themselves.
type Instance struct {
	typ *Type

	// slots holds the regular field values in storage order. An unset
	// slot holds the Missing sentinel; field values cannot themselves be
	// Missing.
	slots []any

	// extra holds undeclared attributes, nil for restricted-storage
	// types.
	extra map[string]any

	// constructed flips once construction (including the post-init hook)
	// completes; after that the immutability enforcer applies.
	constructed bool
}

// New constructs an instance from positional arguments only. It is
// shorthand for Build(pos, nil).
func (t *Type) New(pos ...any) (*Instance, error) {
	return t.Build(pos, nil)
}

// Build constructs an instance from positional and named arguments.
//
// The parameter list is every init field (regular and init-only) in
// schema order; keyword-only fields must appear in named. Omitted
// parameters take their default, with default factories producing a
// fresh value per call. After all init parameters are assigned, init=false
// fields with defaults are assigned, then the post-init hook runs with
// the init-only values. Any regular field still unset after the hook is a
// construction error, as is any extra, duplicate, or missing argument.
//
// On a type built with WithTypeInit(false) there is no parameter list at
// all: arguments are rejected, defaults and factories are applied, and
// the post-init hook is responsible for every remaining field.
func (t *Type) Build(pos []any, named map[string]any) (*Instance, error) {
	if !t.init && (len(pos) > 0 || len(named) > 0) {
		return nil, buildErr(t.name, "", "type does not define a constructor signature")
	}

	var positional []Field
	for _, f := range t.fields {
		if f.init && !f.kwOnly {
			positional = append(positional, f)
		}
	}
	if len(pos) > len(positional) {
		return nil, buildErr(t.name, "",
			"takes %d positional arguments but %d were given", len(positional), len(pos))
	}

	assigned := map[string]any{}
	for i, v := range pos {
		assigned[positional[i].name] = v
	}
	for name, v := range named {
		i, ok := t.fieldIndex[name]
		if !ok {
			return nil, buildErr(t.name, name, "unexpected keyword argument")
		}
		f := t.fields[i]
		if !f.init {
			return nil, buildErr(t.name, name, "field cannot be set through the constructor")
		}
		if _, dup := assigned[name]; dup {
			return nil, buildErr(t.name, name, "got multiple values for argument")
		}
		assigned[name] = v
	}

	inst := &Instance{typ: t, slots: make([]any, t.numSlots)}
	for i := range inst.slots {
		inst.slots[i] = Missing
	}
	if !t.slots {
		inst.extra = map[string]any{}
	}

	// Fields outside the parameter list (init=false fields, and every
	// field when the type has no constructor signature) take their default
	// when they have one; the post-init hook covers the rest.
	initOnly := InitValues{}
	for _, f := range t.fields {
		v, ok := assigned[f.name]
		if !ok {
			switch {
			case f.factory != nil:
				v = f.factory()
			case f.def != Missing:
				v = f.def
			case t.init && f.init:
				return nil, buildErr(t.name, f.name, "missing required argument")
			default:
				continue
			}
		}
		if f.kind == InitOnlyField {
			initOnly[f.name] = v
			continue
		}
		inst.slots[t.slotIndex[f.name]] = v
	}

	if t.postInit != nil {
		if err := t.postInit(inst, initOnly); err != nil {
			return nil, &Error{
				Op:   "Type.Build",
				Kind: KindConstruction,
				Type: t.name,
				Err:  err,
			}
		}
	}

	for name, i := range t.slotIndex {
		if inst.slots[i] == Missing {
			return nil, buildErr(t.name, name, "field was not initialized")
		}
	}

	inst.constructed = true
	return inst, nil
}

// Type returns the instance's schema-bearing type descriptor.
func (x *Instance) Type() *Type { return x.typ }

// Get returns the named attribute: a declared field value, an undeclared
// instance attribute, or a type-level class attribute, in that lookup
// order. Unknown names fail with a KindAttribute error.
func (x *Instance) Get(name string) (any, error) {
	if i, ok := x.typ.slotIndex[name]; ok {
		v := x.slots[i]
		if v == Missing {
			return nil, attrErr("Instance.Get", x.typ.name, name, "field is not set")
		}
		return v, nil
	}
	if x.extra != nil {
		if v, ok := x.extra[name]; ok {
			return v, nil
		}
	}
	if v, ok := x.typ.classAttrs[name]; ok {
		return v, nil
	}
	return nil, attrErr("Instance.Get", x.typ.name, name, "no such attribute")
}

// MustGet returns the named attribute and panics on failure. Intended for
// code paths where the field is known to exist.
func (x *Instance) MustGet(name string) any {
	v, err := x.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Set assigns the named attribute. On frozen types every assignment after
// construction fails with a *FrozenInstanceError; on restricted-storage
// types assignment outside the declared fields is a storage violation.
// The constructor and the post-init hook use the same path and are exempt
// from the frozen check.
func (x *Instance) Set(name string, value any) error {
	if x.constructed && x.typ.frozen {
		return &FrozenInstanceError{Type: x.typ.name, Field: name}
	}
	if i, ok := x.typ.slotIndex[name]; ok {
		x.slots[i] = value
		return nil
	}
	if x.typ.slots {
		return &Error{
			Op:      "Instance.Set",
			Kind:    KindStorage,
			Type:    x.typ.name,
			Field:   name,
			Message: "attribute is not among the declared slots",
			Err:     ErrAttribute,
		}
	}
	x.extra[name] = value
	return nil
}

// Delete removes the named attribute. Frozen types reject deletion the
// same way they reject assignment.
func (x *Instance) Delete(name string) error {
	if x.constructed && x.typ.frozen {
		return &FrozenInstanceError{Type: x.typ.name, Field: name}
	}
	if i, ok := x.typ.slotIndex[name]; ok {
		if x.slots[i] == Missing {
			return attrErr("Instance.Delete", x.typ.name, name, "field is not set")
		}
		x.slots[i] = Missing
		return nil
	}
	if x.extra != nil {
		if _, ok := x.extra[name]; ok {
			delete(x.extra, name)
			return nil
		}
	}
	return attrErr("Instance.Delete", x.typ.name, name, "no such attribute")
}

// Has reports whether the named attribute is currently set.
func (x *Instance) Has(name string) bool {
	_, err := x.Get(name)
	return err == nil
}

// WeakRef returns a weak pointer to the instance. Restricted-storage
// types allow this only when built with WithWeakrefSlot.
func (x *Instance) WeakRef() (weak.Pointer[Instance], error) {
	if x.typ.slots && !x.typ.weakrefSlot {
		return weak.Pointer[Instance]{}, &Error{
			Op:      "Instance.WeakRef",
			Kind:    KindStorage,
			Type:    x.typ.name,
			Message: "type does not reserve a weak-reference slot",
		}
	}
	return weak.Make(x), nil
}

// fieldValue returns a regular field's current value, or the Missing
// sentinel when the field has been deleted since construction. Derived
// operations must treat Missing as an unset attribute, never as a value.
func (x *Instance) fieldValue(name string) any {
	return x.slots[x.typ.slotIndex[name]]
}

var _ fmt.Stringer = (*Instance)(nil)
