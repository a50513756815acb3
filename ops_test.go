package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquality(t *testing.T) {
	point := mustType(t, "Point", []FieldSpec{F("x", Any), F("y", Any)})

	a, err := point.New(1, 2)
	require.NoError(t, err)
	b, err := point.New(1, 2)
	require.NoError(t, err)
	c, err := point.New(3, 4)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestEqualityExcludesNonCompareFields(t *testing.T) {
	typ := mustType(t, "T", []FieldSpec{
		F("id", Any),
		F("cache", Any, WithCompare(false), WithDefault(0)),
	})

	a, err := typ.New(1, 10)
	require.NoError(t, err)
	b, err := typ.New(1, 99)
	require.NoError(t, err)
	assert.True(t, a.Equal(b), "compare=false fields must not affect equality")
}

func TestCrossTypeComparisonNotComparable(t *testing.T) {
	p1 := mustType(t, "P1", []FieldSpec{F("x", Any)})
	p2 := mustType(t, "P2", []FieldSpec{F("x", Any)})

	a, err := p1.New(1)
	require.NoError(t, err)
	b, err := p2.New(1)
	require.NoError(t, err)

	// The raw operation reports not-comparable rather than false.
	_, err = a.EqualTo(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotComparable)

	// The convenience form applies the identity fallback.
	assert.False(t, a.Equal(b))
}

func TestEqDisabledFallsBackToIdentity(t *testing.T) {
	typ := mustType(t, "NoEq", []FieldSpec{F("x", Any)}, WithEq(false))

	a, err := typ.New(1)
	require.NoError(t, err)
	b, err := typ.New(1)
	require.NoError(t, err)

	assert.False(t, a.Equal(b), "eq=false compares by identity")
	assert.True(t, a.Equal(a))
}

func TestOrdering(t *testing.T) {
	ordered := mustType(t, "Ordered", []FieldSpec{
		F("a", Any),
		F("b", Any),
	}, WithOrder(true))

	mk := func(a, b int) *Instance {
		x, err := ordered.New(a, b)
		require.NoError(t, err)
		return x
	}

	tests := []struct {
		name           string
		x, y           *Instance
		lt, le, gt, ge bool
	}{
		{"less by second field", mk(1, 2), mk(1, 3), true, true, false, false},
		{"greater by second field", mk(1, 3), mk(1, 2), false, false, true, true},
		{"less by first field", mk(0, 9), mk(1, 0), true, true, false, false},
		{"equal", mk(1, 2), mk(1, 2), false, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt, err := tt.x.Less(tt.y)
			require.NoError(t, err)
			le, err := tt.x.LessEqual(tt.y)
			require.NoError(t, err)
			gt, err := tt.x.Greater(tt.y)
			require.NoError(t, err)
			ge, err := tt.x.GreaterEqual(tt.y)
			require.NoError(t, err)

			assert.Equal(t, tt.lt, lt)
			assert.Equal(t, tt.le, le)
			assert.Equal(t, tt.gt, gt)
			assert.Equal(t, tt.ge, ge)
		})
	}
}

func TestOrderingErrors(t *testing.T) {
	unordered := mustType(t, "U", []FieldSpec{F("x", Any)})
	ordered := mustType(t, "O", []FieldSpec{F("x", Any)}, WithOrder(true))

	a, err := unordered.New(1)
	require.NoError(t, err)
	b, err := unordered.New(2)
	require.NoError(t, err)
	_, err = a.Cmp(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotOrdered)

	c, err := ordered.New(1)
	require.NoError(t, err)
	_, err = c.Cmp(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotComparable)
}

func TestOrderingMixedStringFields(t *testing.T) {
	typ := mustType(t, "Named", []FieldSpec{F("name", Any)}, WithOrder(true))

	a, err := typ.New("alpha")
	require.NoError(t, err)
	b, err := typ.New("beta")
	require.NoError(t, err)

	lt, err := a.Less(b)
	require.NoError(t, err)
	assert.True(t, lt)
}

func TestHashRuleTable(t *testing.T) {
	mkInstance := func(t *testing.T, opts ...TypeOption) (*Instance, *Instance) {
		t.Helper()
		typ := mustType(t, "H", []FieldSpec{F("a", Any), F("b", Any)}, opts...)
		x, err := typ.New(1, 2)
		require.NoError(t, err)
		y, err := typ.New(1, 2)
		require.NoError(t, err)
		return x, y
	}

	t.Run("default flags are unhashable", func(t *testing.T) {
		x, _ := mkInstance(t)
		_, err := x.Hash()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnhashable)
	})

	t.Run("frozen synthesizes a stable hash", func(t *testing.T) {
		x, y := mkInstance(t, WithFrozen(true))
		hx, err := x.Hash()
		require.NoError(t, err)
		hy, err := y.Hash()
		require.NoError(t, err)
		assert.Equal(t, hx, hy, "equal instances hash equal")

		again, err := x.Hash()
		require.NoError(t, err)
		assert.Equal(t, hx, again, "hash is stable across calls")
	})

	t.Run("eq disabled hashes by identity", func(t *testing.T) {
		x, y := mkInstance(t, WithEq(false))
		hx, err := x.Hash()
		require.NoError(t, err)
		sameAgain, err := x.Hash()
		require.NoError(t, err)
		assert.Equal(t, hx, sameAgain)
		_ = y
	})

	t.Run("unsafe hash overrides the disabled case", func(t *testing.T) {
		x, y := mkInstance(t, WithUnsafeHash(true))
		hx, err := x.Hash()
		require.NoError(t, err)
		hy, err := y.Hash()
		require.NoError(t, err)
		assert.Equal(t, hx, hy)
	})
}

func TestPerFieldHashOverride(t *testing.T) {
	// "b" is excluded from the hash but still compared; "salt" is hashed
	// but never compared.
	typ := mustType(t, "H", []FieldSpec{
		F("a", Any),
		F("b", Any, WithHash(false)),
		F("salt", Any, WithCompare(false), WithHash(true)),
	}, WithFrozen(true))

	x, err := typ.New(1, 2, "s")
	require.NoError(t, err)
	y, err := typ.New(1, 99, "s")
	require.NoError(t, err)
	z, err := typ.New(1, 2, "other")
	require.NoError(t, err)

	hx, err := x.Hash()
	require.NoError(t, err)
	hy, err := y.Hash()
	require.NoError(t, err)
	hz, err := z.Hash()
	require.NoError(t, err)

	assert.Equal(t, hx, hy, "hash=false field must not contribute")
	assert.NotEqual(t, hx, hz, "hash=true field must contribute")
}

func TestHashRejectsMutableFieldValues(t *testing.T) {
	typ := mustType(t, "H", []FieldSpec{
		F("items", Any),
	}, WithFrozen(true))

	x, err := typ.New([]any{1, 2})
	require.NoError(t, err)
	_, err = x.Hash()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnhashable)
}

func TestNestedInstanceHash(t *testing.T) {
	inner := mustType(t, "Inner", []FieldSpec{F("v", Any)}, WithFrozen(true))
	outer := mustType(t, "Outer", []FieldSpec{F("inner", Any)}, WithFrozen(true))

	i1, err := inner.New(42)
	require.NoError(t, err)
	i2, err := inner.New(42)
	require.NoError(t, err)

	o1, err := outer.New(i1)
	require.NoError(t, err)
	o2, err := outer.New(i2)
	require.NoError(t, err)

	h1, err := o1.Hash()
	require.NoError(t, err)
	h2, err := o2.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestRepr(t *testing.T) {
	typ := mustType(t, "User", []FieldSpec{
		F("name", Any),
		F("age", Any),
		F("secret", Any, WithRepr(false), WithDefault("")),
	})

	x, err := typ.New("ada", 36)
	require.NoError(t, err)
	assert.Equal(t, `User(name="ada", age=36)`, x.String())
}

func TestReprNested(t *testing.T) {
	inner := mustType(t, "Inner", []FieldSpec{F("value", Any)})
	outer := mustType(t, "Outer", []FieldSpec{F("name", Any), F("inner", Any)})

	i, err := inner.New(42)
	require.NoError(t, err)
	o, err := outer.New("test", i)
	require.NoError(t, err)

	assert.Equal(t, `Outer(name="test", inner=Inner(value=42))`, o.String())
}

func TestReprContainers(t *testing.T) {
	typ := mustType(t, "Bag", []FieldSpec{F("items", Any), F("index", Any)})

	x, err := typ.New([]any{1, "two"}, map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `Bag(items=[1, "two"], index={"a": 1})`, x.String())
}

func TestTypeReprDisabled(t *testing.T) {
	typ := mustType(t, "Quiet", []FieldSpec{F("x", Any)}, WithTypeRepr(false))
	x, err := typ.New(1)
	require.NoError(t, err)
	assert.Equal(t, "<Quiet instance>", x.String())
}

func TestSelfReferentialReprTerminates(t *testing.T) {
	typ := mustType(t, "Node", []FieldSpec{F("children", Any)})

	n, err := typ.New([]any{})
	require.NoError(t, err)
	require.NoError(t, n.Set("children", []any{n}))

	s := n.String()
	assert.True(t, strings.HasPrefix(s, "Node("), "rendering must terminate")
	assert.Contains(t, s, "...", "the cyclic occurrence renders a placeholder")
	assert.Equal(t, "Node(children=[...])", s)
}

func TestMutualCycleReprTerminates(t *testing.T) {
	typ := mustType(t, "Link", []FieldSpec{F("next", Any, WithDefault(nil))})

	a, err := typ.New()
	require.NoError(t, err)
	b, err := typ.New()
	require.NoError(t, err)
	require.NoError(t, a.Set("next", b))
	require.NoError(t, b.Set("next", a))

	assert.Equal(t, "Link(next=Link(next=...))", a.String())

	// The in-progress marks are cleared once rendering completes.
	assert.Equal(t, "Link(next=Link(next=...))", a.String())
}

func TestOperationsAfterDelete(t *testing.T) {
	typ := mustType(t, "Box", []FieldSpec{
		F("a", Any),
		F("b", Any),
	}, WithOrder(true), WithUnsafeHash(true))

	x, err := typ.New(1, 2)
	require.NoError(t, err)
	y, err := typ.New(1, 2)
	require.NoError(t, err)
	require.NoError(t, x.Delete("b"))

	assert.Equal(t, "Box(a=1, b=<unset>)", x.String())

	_, err = x.EqualTo(y)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttribute)
	assert.False(t, x.Equal(y), "a deleted field never compares equal")
	assert.False(t, y.Equal(x))

	_, err = x.Cmp(y)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttribute)

	_, err = x.Hash()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttribute)
}
