package record

import (
	"errors"
	"fmt"
	"hash/maphash"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// hashSeed is the process-wide seed for synthesized and identity hashes.
// Hash values are stable within one process only.
var hashSeed = maphash.MakeSeed()

// String renders the instance as Name(field1=value1, ...) over the
// repr-included fields in schema order. A field deleted since
// construction renders as <unset>.
//
// Rendering is cycle-guarded: while an instance is being rendered, any
// nested occurrence of the same instance (for example through a container
// field that contains the instance itself) renders as "..." instead of
// recursing. The guard is a per-call visited set, so the operation is
// reentrant and safe under concurrent rendering of shared structures.
func (x *Instance) String() string {
	return x.render(map[*Instance]bool{})
}

func (x *Instance) render(seen map[*Instance]bool) string {
	if !x.typ.repr {
		return fmt.Sprintf("<%s instance>", x.typ.name)
	}
	if seen[x] {
		return "..."
	}
	seen[x] = true
	defer delete(seen, x)

	var b strings.Builder
	b.WriteString(x.typ.name)
	b.WriteByte('(')
	wrote := false
	for _, f := range x.typ.fields {
		if f.kind != RegularField || !f.repr {
			continue
		}
		if wrote {
			b.WriteString(", ")
		}
		b.WriteString(f.name)
		b.WriteByte('=')
		if v := x.fieldValue(f.name); v == Missing {
			b.WriteString("<unset>")
		} else {
			b.WriteString(renderValue(v, seen))
		}
		wrote = true
	}
	b.WriteByte(')')
	return b.String()
}

// renderValue renders one field value, recursing into nested instances
// and containers with the shared visited set.
func renderValue(v any, seen map[*Instance]bool) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case *Instance:
		return val.render(seen)
	case string:
		return strconv.Quote(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = renderValue(rv.Index(i).Interface(), seen)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Map:
		parts := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			parts = append(parts,
				renderValue(iter.Key().Interface(), seen)+": "+renderValue(iter.Value().Interface(), seen))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// EqualTo is the raw synthesized equality. It reports ErrNotComparable
// when the operand is nil or an instance of a different produced type,
// and an attribute error when a compare-included field has been deleted;
// the caller decides the fallback. For types built with WithEq(false)
// equality degrades to instance identity.
func (x *Instance) EqualTo(y *Instance) (bool, error) {
	if y == nil || x.typ != y.typ {
		return false, &Error{
			Op:   "Instance.EqualTo",
			Kind: KindComparison,
			Type: x.typ.name,
			Err:  ErrNotComparable,
		}
	}
	if !x.typ.eq {
		return x == y, nil
	}
	for _, f := range x.typ.fields {
		if f.kind != RegularField || !f.compare {
			continue
		}
		xv, yv := x.fieldValue(f.name), y.fieldValue(f.name)
		if xv == Missing || yv == Missing {
			return false, attrErr("Instance.EqualTo", x.typ.name, f.name, "field is not set")
		}
		if !valueEqual(xv, yv) {
			return false, nil
		}
	}
	return true, nil
}

// Equal reports whether x equals y, falling back to identity when the
// synthesized equality reports not-comparable. This mirrors the host
// fallback a caller would apply: different produced types never compare
// equal unless they are the same instance. Any other equality failure,
// such as a deleted field, reports false.
func (x *Instance) Equal(y *Instance) bool {
	eq, err := x.EqualTo(y)
	if err != nil {
		return errors.Is(err, ErrNotComparable) && x == y
	}
	return eq
}

// Cmp compares x and y lexicographically over the compare-included fields
// in schema order, returning -1, 0, or +1. It fails with ErrNotOrdered on
// types built without WithOrder, and with ErrNotComparable when y is an
// instance of a different produced type.
func (x *Instance) Cmp(y *Instance) (int, error) {
	if !x.typ.order {
		return 0, &Error{
			Op:   "Instance.Cmp",
			Kind: KindComparison,
			Type: x.typ.name,
			Err:  ErrNotOrdered,
		}
	}
	if y == nil || x.typ != y.typ {
		return 0, &Error{
			Op:   "Instance.Cmp",
			Kind: KindComparison,
			Type: x.typ.name,
			Err:  ErrNotComparable,
		}
	}
	for _, f := range x.typ.fields {
		if f.kind != RegularField || !f.compare {
			continue
		}
		xv, yv := x.fieldValue(f.name), y.fieldValue(f.name)
		if xv == Missing || yv == Missing {
			return 0, attrErr("Instance.Cmp", x.typ.name, f.name, "field is not set")
		}
		c, err := compareValues(xv, yv)
		if err != nil {
			return 0, &Error{
				Op:    "Instance.Cmp",
				Kind:  KindComparison,
				Type:  x.typ.name,
				Field: f.name,
				Err:   err,
			}
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

// Less reports x < y under the synthesized ordering.
func (x *Instance) Less(y *Instance) (bool, error) {
	c, err := x.Cmp(y)
	return c < 0, err
}

// LessEqual reports x <= y under the synthesized ordering.
func (x *Instance) LessEqual(y *Instance) (bool, error) {
	c, err := x.Cmp(y)
	return c <= 0, err
}

// Greater reports x > y under the synthesized ordering.
func (x *Instance) Greater(y *Instance) (bool, error) {
	c, err := x.Cmp(y)
	return c > 0, err
}

// GreaterEqual reports x >= y under the synthesized ordering.
func (x *Instance) GreaterEqual(y *Instance) (bool, error) {
	c, err := x.Cmp(y)
	return c >= 0, err
}

// Hash projects the instance to a uint64 according to the
// eq/frozen/unsafe-hash rule table resolved at type build time:
//
//   - eq=false: identity hash, regardless of frozen
//   - eq=true, frozen=true: synthesized from the hash-included fields
//   - eq=true, frozen=false: hashing disabled, fails with ErrUnhashable
//   - unsafe_hash=true: synthesized, overriding the disabled case
//
// A field is hash-included when its explicit hash flag is set, else when
// its compare flag is. Equal instances hash equal within one process.
func (x *Instance) Hash() (uint64, error) {
	switch x.typ.hashing {
	case hashIdentity:
		return maphash.Comparable(hashSeed, x), nil
	case hashDisabled:
		return 0, &Error{
			Op:   "Instance.Hash",
			Kind: KindHash,
			Type: x.typ.name,
			Err:  ErrUnhashable,
		}
	}

	var h maphash.Hash
	h.SetSeed(hashSeed)
	h.WriteString(x.typ.name)
	for _, f := range x.typ.fields {
		if f.kind != RegularField || !f.effectiveHash() {
			continue
		}
		v := x.fieldValue(f.name)
		if v == Missing {
			return 0, attrErr("Instance.Hash", x.typ.name, f.name, "field is not set")
		}
		if err := hashValue(&h, v); err != nil {
			return 0, &Error{
				Op:    "Instance.Hash",
				Kind:  KindHash,
				Type:  x.typ.name,
				Field: f.name,
				Err:   err,
			}
		}
	}
	return h.Sum64(), nil
}

// hashValue folds one field value into the hash state. Known-mutable
// container categories have no hash projection.
func hashValue(h *maphash.Hash, v any) error {
	switch val := v.(type) {
	case nil:
		h.WriteString("<nil>;")
		return nil
	case *Instance:
		hv, err := val.Hash()
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "rec:%d;", hv)
		return nil
	case string:
		h.WriteString("str:")
		h.WriteString(val)
		h.WriteByte(';')
		return nil
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Map, reflect.Func:
		return ErrUnhashable
	default:
		fmt.Fprintf(h, "%T:%v;", v, v)
		return nil
	}
}

// valueEqual compares two field values. Nested instances compare through
// their own synthesized equality; everything else through deep equality.
func valueEqual(a, b any) bool {
	if ai, ok := a.(*Instance); ok {
		bi, ok := b.(*Instance)
		return ok && ai.Equal(bi)
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders two field values: numerics by value (mixed int and
// float promote to float), strings and bools naturally, slices and arrays
// lexicographically, nested instances through their own Cmp. Anything
// else is not comparable.
func compareValues(a, b any) (int, error) {
	if ai, ok := a.(*Instance); ok {
		bi, ok := b.(*Instance)
		if !ok {
			return 0, ErrNotComparable
		}
		return ai.Cmp(bi)
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, ErrNotComparable
		}
		return strings.Compare(av, bv), nil
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, ErrNotComparable
		}
		return boolCmp(av, bv), nil
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !ra.IsValid() || !rb.IsValid() {
		return 0, ErrNotComparable
	}
	if na, aNum := numericValue(ra); aNum {
		if nb, bNum := numericValue(rb); bNum {
			return floatCmp(na, nb), nil
		}
		return 0, ErrNotComparable
	}

	if (ra.Kind() == reflect.Slice || ra.Kind() == reflect.Array) &&
		(rb.Kind() == reflect.Slice || rb.Kind() == reflect.Array) {
		n := ra.Len()
		if rb.Len() < n {
			n = rb.Len()
		}
		for i := 0; i < n; i++ {
			c, err := compareValues(ra.Index(i).Interface(), rb.Index(i).Interface())
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return c, nil
			}
		}
		return intCmp(ra.Len(), rb.Len()), nil
	}

	return 0, ErrNotComparable
}

func numericValue(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	default:
		return 1
	}
}

func floatCmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func intCmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
