package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructionErrors(t *testing.T) {
	typ := mustType(t, "T", []FieldSpec{
		F("a", Any),
		F("b", Any, WithDefault(2)),
		F("frozen_out", Any, WithInit(false), WithDefault(0)),
	})

	tests := []struct {
		name    string
		pos     []any
		named   map[string]any
		wantMsg string
	}{
		{
			name:    "missing required argument",
			wantMsg: "missing required argument",
		},
		{
			name:    "too many positional",
			pos:     []any{1, 2, 3},
			wantMsg: "positional",
		},
		{
			name:    "unexpected keyword",
			pos:     []any{1},
			named:   map[string]any{"nope": 1},
			wantMsg: "unexpected keyword",
		},
		{
			name:    "init excluded field via constructor",
			pos:     []any{1},
			named:   map[string]any{"frozen_out": 9},
			wantMsg: "cannot be set through the constructor",
		},
		{
			name:    "duplicate positional and keyword",
			pos:     []any{1},
			named:   map[string]any{"a": 1},
			wantMsg: "multiple values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := typ.Build(tt.pos, tt.named)
			require.Error(t, err)
			assert.ErrorIs(t, err, &Error{Kind: KindConstruction})
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDefaultFactoryFreshPerCall(t *testing.T) {
	typ := mustType(t, "Bag", []FieldSpec{
		F("items", Any, WithFactory(func() any { return map[string]any{} })),
	})

	a, err := typ.New()
	require.NoError(t, err)
	b, err := typ.New()
	require.NoError(t, err)

	am := a.MustGet("items").(map[string]any)
	bm := b.MustGet("items").(map[string]any)

	am["k"] = 1
	assert.Empty(t, bm, "factory values must not be shared across instances")
}

func TestPostInitHookAndInitOnly(t *testing.T) {
	typ := mustType(t, "Scaled", []FieldSpec{
		F("value", Any),
		F("scaled", Any, WithInit(false)),
		F("factor", InitOnly, WithDefault(2)),
	}, WithPostInit(func(inst *Instance, initOnly InitValues) error {
		v := inst.MustGet("value").(int)
		return inst.Set("scaled", v*initOnly["factor"].(int))
	}))

	x, err := typ.New(10)
	require.NoError(t, err)
	assert.Equal(t, 20, x.MustGet("scaled"))

	y, err := typ.Build([]any{10}, map[string]any{"factor": 3})
	require.NoError(t, err)
	assert.Equal(t, 30, y.MustGet("scaled"))

	// Initialization-only values are never stored.
	_, err = x.Get("factor")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttribute)

	// And never introspected.
	fields, err := Fields(typ)
	require.NoError(t, err)
	assert.Equal(t, []string{"value", "scaled"}, fieldNames(fields))
}

func TestInitExcludedFieldWithoutAssignmentFails(t *testing.T) {
	typ := mustType(t, "T", []FieldSpec{
		F("a", Any),
		F("derived", Any, WithInit(false)),
	})

	_, err := typ.New(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, &Error{Kind: KindConstruction})
	assert.Contains(t, err.Error(), "derived")
}

func TestPostInitErrorPropagates(t *testing.T) {
	sentinel := errors.New("bad value")
	typ := mustType(t, "T", []FieldSpec{
		F("a", Any),
	}, WithPostInit(func(inst *Instance, _ InitValues) error {
		return sentinel
	}))

	_, err := typ.New(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorIs(t, err, &Error{Kind: KindConstruction})
}

func TestPostInitInheritedFromBase(t *testing.T) {
	base := mustType(t, "Base", []FieldSpec{
		F("n", Any),
		F("doubled", Any, WithInit(false)),
	}, WithPostInit(func(inst *Instance, _ InitValues) error {
		return inst.Set("doubled", inst.MustGet("n").(int)*2)
	}))

	derived := mustType(t, "Derived", []FieldSpec{
		F("extra", Any, WithDefault(0)),
	}, WithBases(base))

	x, err := derived.New(21)
	require.NoError(t, err)
	assert.Equal(t, 42, x.MustGet("doubled"))
}

func TestFrozenInstance(t *testing.T) {
	typ := mustType(t, "Frozen", []FieldSpec{
		F("x", Any),
		F("y", Any),
	}, WithFrozen(true))

	x, err := typ.New(1, 2)
	require.NoError(t, err)

	err = x.Set("x", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrozenInstance)
	assert.ErrorIs(t, err, ErrAttribute, "frozen violations are attribute errors too")

	var fe *FrozenInstanceError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Frozen", fe.Type)
	assert.Equal(t, "x", fe.Field)

	err = x.Delete("y")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrozenInstance)

	// Values are untouched after the rejected mutations.
	assert.Equal(t, 1, x.MustGet("x"))
	assert.Equal(t, 2, x.MustGet("y"))

	// Undeclared attributes are rejected the same way.
	err = x.Set("z", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrozenInstance)
}

func TestFrozenAllowsHookAssignment(t *testing.T) {
	typ := mustType(t, "Frozen", []FieldSpec{
		F("a", Any),
		F("total", Any, WithInit(false)),
	}, WithFrozen(true), WithPostInit(func(inst *Instance, _ InitValues) error {
		return inst.Set("total", inst.MustGet("a").(int)+1)
	}))

	x, err := typ.New(41)
	require.NoError(t, err)
	assert.Equal(t, 42, x.MustGet("total"))
}

func TestNonFrozenMutation(t *testing.T) {
	typ := mustType(t, "Plain", []FieldSpec{F("x", Any)})

	x, err := typ.New(1)
	require.NoError(t, err)

	require.NoError(t, x.Set("x", 5))
	assert.Equal(t, 5, x.MustGet("x"))

	// Absent restricted storage, undeclared attributes are accepted.
	require.NoError(t, x.Set("color", "red"))
	assert.Equal(t, "red", x.MustGet("color"))
	assert.True(t, x.Has("color"))

	require.NoError(t, x.Delete("color"))
	assert.False(t, x.Has("color"))

	require.NoError(t, x.Delete("x"))
	_, err = x.Get("x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttribute)
}

func TestSlotsRestrictStorage(t *testing.T) {
	typ := mustType(t, "Slotted", []FieldSpec{
		F("x", Any),
		F("y", Any),
	}, WithSlots(true))

	x, err := typ.New(1, 2)
	require.NoError(t, err)

	require.NoError(t, x.Set("x", 10))
	assert.Equal(t, 10, x.MustGet("x"))

	err = x.Set("z", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, &Error{Kind: KindStorage})
	assert.ErrorIs(t, err, ErrAttribute)
	assert.Contains(t, err.Error(), "z")
}

func TestSlotsWithFrozen(t *testing.T) {
	typ := mustType(t, "Locked", []FieldSpec{
		F("x", Any),
	}, WithSlots(true), WithFrozen(true))

	x, err := typ.New(1)
	require.NoError(t, err)
	assert.Equal(t, 1, x.MustGet("x"))

	err = x.Set("x", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrozenInstance)
}

func TestWeakRef(t *testing.T) {
	plain := mustType(t, "Plain", []FieldSpec{F("x", Any)})
	slotted := mustType(t, "Slotted", []FieldSpec{F("x", Any)}, WithSlots(true))
	weakable := mustType(t, "Weakable", []FieldSpec{F("x", Any)},
		WithSlots(true), WithWeakrefSlot(true))

	p, err := plain.New(1)
	require.NoError(t, err)
	wp, err := p.WeakRef()
	require.NoError(t, err)
	assert.Same(t, p, wp.Value())

	s, err := slotted.New(1)
	require.NoError(t, err)
	_, err = s.WeakRef()
	require.Error(t, err)
	assert.ErrorIs(t, err, &Error{Kind: KindStorage})

	w, err := weakable.New(1)
	require.NoError(t, err)
	ww, err := w.WeakRef()
	require.NoError(t, err)
	assert.Same(t, w, ww.Value())
}

func TestTypeInitDisabled(t *testing.T) {
	typ := mustType(t, "NoCtor", []FieldSpec{
		F("a", Any, WithDefault(1)),
	}, WithTypeInit(false))

	x, err := typ.New()
	require.NoError(t, err)
	assert.Equal(t, 1, x.MustGet("a"))

	_, err = typ.New(5)
	require.Error(t, err)
	assert.ErrorIs(t, err, &Error{Kind: KindConstruction})
}

func TestTypeInitDisabledHookInitializes(t *testing.T) {
	typ := mustType(t, "Custom", []FieldSpec{
		F("x", Any),
		F("label", Any, WithDefault("none")),
	},
		WithTypeInit(false),
		WithPostInit(func(inst *Instance, _ InitValues) error {
			return inst.Set("x", 7)
		}))

	x, err := typ.New()
	require.NoError(t, err)
	assert.Equal(t, 7, x.MustGet("x"))
	assert.Equal(t, "none", x.MustGet("label"))

	// Without a hook a no-default field stays uncovered.
	bare := mustType(t, "Bare", []FieldSpec{F("x", Any)}, WithTypeInit(false))
	_, err = bare.New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "was not initialized")
}
