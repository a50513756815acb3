package record

import "encoding/json"

// typeKey is the JSON member carrying the record type name, used by the
// registry package to reconstruct instances.
const typeKey = "$type"

// MarshalJSON encodes the instance as a JSON object of field name/value
// pairs plus a "$type" member naming its record type. Nested instances
// encode the same way. Initialization-only values are never stored and
// therefore never serialized; a field deleted since construction is an
// attribute error.
func (x *Instance) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, x.typ.numSlots+1)
	out[typeKey] = x.typ.name
	for name, i := range x.typ.slotIndex {
		if x.slots[i] == Missing {
			return nil, attrErr("Instance.MarshalJSON", x.typ.name, name, "field is not set")
		}
		out[name] = x.slots[i]
	}
	return json.Marshal(out)
}

// FromMap reconstructs an instance from field name/value pairs, restoring
// stored state directly rather than re-running the constructor, the way a
// generic serializer restores an object. Every declared field must be
// present; the "$type" member and unknown keys are ignored for
// restricted-storage types and kept as undeclared attributes otherwise.
// Frozen and restricted-storage types round-trip like any other.
func (t *Type) FromMap(state map[string]any) (*Instance, error) {
	inst := &Instance{typ: t, slots: make([]any, t.numSlots)}
	for i := range inst.slots {
		inst.slots[i] = Missing
	}
	if !t.slots {
		inst.extra = map[string]any{}
	}

	for name, v := range state {
		if name == typeKey {
			continue
		}
		if i, ok := t.slotIndex[name]; ok {
			inst.slots[i] = v
			continue
		}
		if inst.extra != nil {
			inst.extra[name] = v
		}
	}

	for name, i := range t.slotIndex {
		if inst.slots[i] == Missing {
			return nil, &Error{
				Op:      "Type.FromMap",
				Kind:    KindConstruction,
				Type:    t.name,
				Field:   name,
				Message: "missing field value",
			}
		}
	}

	inst.constructed = true
	return inst, nil
}
