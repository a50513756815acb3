package record

// Fields returns the ordered field descriptors of x's schema, where x is
// a *Type or an *Instance. The order is stable and equals declaration
// order, base fields first. Initialization-only variables and class
// attributes never appear. Anything else fails with ErrNotRecord.
func Fields(x any) ([]Field, error) {
	t, ok := typeOf(x)
	if !ok {
		return nil, &Error{
			Op:   "Fields",
			Kind: KindConversion,
			Err:  ErrNotRecord,
		}
	}
	return t.recordFields(), nil
}

// IsRecord reports whether x is a schema-bearing Type or an Instance of
// one. It is a total predicate and never fails.
func IsRecord(x any) bool {
	_, ok := typeOf(x)
	return ok
}

// typeOf resolves x to its schema-bearing type descriptor.
func typeOf(x any) (*Type, bool) {
	switch v := x.(type) {
	case *Type:
		if v != nil {
			return v, true
		}
	case *Instance:
		if v != nil {
			return v.typ, true
		}
	}
	return nil, false
}
