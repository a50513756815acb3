package record

import "reflect"

// Pair is one field name/value entry handed to a MapFactory in schema
// order.
type Pair struct {
	Key   string
	Value any
}

// MapFactory builds the mapping for AsMapFunc from ordered field pairs.
// It is applied at every nesting level, so custom mapping types propagate
// through nested records.
type MapFactory func(pairs []Pair) any

// defaultMapFactory builds a plain map[string]any.
func defaultMapFactory(pairs []Pair) any {
	m := make(map[string]any, len(pairs))
	for _, p := range pairs {
		m[p.Key] = p.Value
	}
	return m
}

// AsMap deeply projects the instance to a map keyed by field name.
// Nested record instances become nested maps; slices, arrays, and maps
// are rebuilt with each element projected; everything else is carried
// as-is. The caller is responsible for not aliasing mutable leaves it
// cares about.
func AsMap(x *Instance) (map[string]any, error) {
	out, err := AsMapFunc(x, defaultMapFactory)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

// AsMapFunc is AsMap with a pluggable map constructor.
func AsMapFunc(x *Instance, factory MapFactory) (any, error) {
	if x == nil {
		return nil, &Error{
			Op:   "AsMap",
			Kind: KindConversion,
			Err:  ErrNotRecord,
		}
	}
	return projectInstance("AsMap", x, factory)
}

// AsSlice deeply projects the instance to an ordered sequence of field
// values, with nested record instances becoming nested sequences.
func AsSlice(x *Instance) ([]any, error) {
	if x == nil {
		return nil, &Error{
			Op:   "AsSlice",
			Kind: KindConversion,
			Err:  ErrNotRecord,
		}
	}
	out, err := projectInstance("AsSlice", x, nil)
	if err != nil {
		return nil, err
	}
	return out.([]any), nil
}

// projectInstance projects one instance: map form when factory is
// non-nil, sequence form otherwise. A field deleted since construction
// is an attribute error, at any nesting level.
func projectInstance(op string, x *Instance, factory MapFactory) (any, error) {
	fields := x.typ.recordFields()
	if factory != nil {
		pairs := make([]Pair, 0, len(fields))
		for _, f := range fields {
			v := x.fieldValue(f.name)
			if v == Missing {
				return nil, attrErr(op, x.typ.name, f.name, "field is not set")
			}
			pv, err := projectValue(op, v, factory)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, Pair{Key: f.name, Value: pv})
		}
		return factory(pairs), nil
	}
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		v := x.fieldValue(f.name)
		if v == Missing {
			return nil, attrErr(op, x.typ.name, f.name, "field is not set")
		}
		pv, err := projectValue(op, v, factory)
		if err != nil {
			return nil, err
		}
		out = append(out, pv)
	}
	return out, nil
}

// projectValue recursively unwraps one value: record instances project
// per projectInstance, known container categories are rebuilt with each
// element projected, anything else is returned as-is.
func projectValue(op string, v any, factory MapFactory) (any, error) {
	if inst, ok := v.(*Instance); ok {
		return projectInstance(op, inst, factory)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			pv, err := projectValue(op, rv.Index(i).Interface(), factory)
			if err != nil {
				return nil, err
			}
			out[i] = pv
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				pv, err := projectValue(op, iter.Value().Interface(), factory)
				if err != nil {
					return nil, err
				}
				out[iter.Key().String()] = pv
			}
			return out, nil
		}
		out := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pv, err := projectValue(op, iter.Value().Interface(), factory)
			if err != nil {
				return nil, err
			}
			out[iter.Key().Interface()] = pv
		}
		return out, nil
	default:
		return v, nil
	}
}

// Replace builds a new instance of x's exact type from x's current field
// values merged with the named overrides, by invoking the ordinary
// constructor in full. The post-init hook re-runs; init-only parameters
// without defaults must appear in overrides, since their values are never
// stored on x. Naming an init=false field, or any unknown name, fails.
func Replace(x *Instance, overrides map[string]any) (*Instance, error) {
	if x == nil {
		return nil, &Error{
			Op:   "Replace",
			Kind: KindConversion,
			Err:  ErrNotRecord,
		}
	}
	t := x.typ

	named := map[string]any{}
	consumed := map[string]bool{}
	for _, f := range t.fields {
		v, overridden := overrides[f.name]
		if overridden {
			if !f.init {
				return nil, &Error{
					Op:      "Replace",
					Kind:    KindReplace,
					Type:    t.name,
					Field:   f.name,
					Message: "field is excluded from the constructor and cannot be overridden",
				}
			}
			named[f.name] = v
			consumed[f.name] = true
			continue
		}
		switch {
		case f.kind == InitOnlyField:
			if !f.HasDefault() {
				return nil, &Error{
					Op:      "Replace",
					Kind:    KindReplace,
					Type:    t.name,
					Field:   f.name,
					Message: "init-only field is not stored and must be re-supplied",
				}
			}
		case f.init:
			v := x.fieldValue(f.name)
			if v == Missing {
				return nil, attrErr("Replace", t.name, f.name, "field is not set")
			}
			named[f.name] = v
		}
	}

	for name := range overrides {
		if !consumed[name] {
			return nil, &Error{
				Op:      "Replace",
				Kind:    KindReplace,
				Type:    t.name,
				Field:   name,
				Message: "unknown field",
			}
		}
	}

	return t.Build(nil, named)
}
