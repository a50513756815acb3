package record

// MakeType builds a schema-bearing type at runtime from a loose list of
// field specifications. Each element of specs is either a bare field name
// (string, given the unconstrained Any marker) or a FieldSpec built with
// F. Bases and type flags come in through the usual TypeOptions; the
// schema is collected and validated exactly as NewType does, so the
// produced type is behaviorally indistinguishable from one declared
// directly.
func MakeType(name string, specs []any, opts ...TypeOption) (*Type, error) {
	members := make([]FieldSpec, 0, len(specs))
	for _, s := range specs {
		switch v := s.(type) {
		case string:
			members = append(members, F(v, Any))
		case FieldSpec:
			members = append(members, v)
		default:
			return nil, schemaErr(name, "", "invalid field specification of type %T", s)
		}
	}
	return NewType(name, members, opts...)
}
