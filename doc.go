// Package record synthesizes plain structured-data types from declarative
// schemas at runtime.
//
// Given an ordered list of named fields, each with optional defaults,
// default factories, and per-field flags, the package builds an immutable
// Type descriptor and derives the standard bundle of operations for its
// instances: construction, textual representation, equality, ordering, hash
// projection, immutability enforcement, restricted storage, structural
// conversion, and copy-with-overrides. It exists to eliminate hand-written
// boilerplate for record-like data while keeping the semantics of every
// derived operation precise and inspectable.
//
// # Core Concepts
//
//   - Type: the schema-bearing type descriptor, built once and immutable
//   - Field: one field's name, default behavior, and operation flags
//   - Instance: a value of a Type, created by the synthesized constructor
//   - Markers: field categories (Any, InitOnly, ClassAttr, KWOnly boundary)
//   - Missing: the process-wide "no default supplied" sentinel
//
// # Declaring a Type
//
// Types are declared with NewType from a list of field specifications:
//
//	point, err := record.NewType("Point", []record.FieldSpec{
//		record.F("x", record.Any),
//		record.F("y", record.Any, record.WithDefault(0)),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	p, err := point.New(1, 2)
//	fmt.Println(p) // Point(x=1, y=2)
//
// Field behavior is controlled with functional options (WithDefault,
// WithFactory, WithInit, WithRepr, WithCompare, WithHash, WithKwOnly,
// WithMetadata), and type behavior with type options (WithFrozen,
// WithOrder, WithSlots, WithBases, WithPostInit, ...).
//
// # Derived Operations
//
// Every instance carries the operations its schema enables:
//
//	a, _ := point.New(1, 2)
//	b, _ := point.New(1, 2)
//	a.Equal(b)        // true: same type, equal compare fields
//	a.String()        // "Point(x=1, y=2)"
//	record.AsMap(a)   // map[string]any{"x": 1, "y": 2}
//	record.Replace(a, map[string]any{"y": 9})
//
// Ordering (Cmp, Less, ...) requires WithOrder(true); hashing follows the
// eq/frozen/unsafe-hash rule table documented on Instance.Hash.
//
// # Immutability and Restricted Storage
//
// WithFrozen(true) makes every instance immutable after construction: Set
// and Delete fail with a FrozenInstanceError. WithSlots(true) restricts
// instances to exactly the declared fields, rejecting undeclared attribute
// assignment. WithWeakrefSlot(true), valid only with slots, reserves the
// ability to take weak references via Instance.WeakRef.
//
// # Inheritance
//
// WithBases composes schemas: inherited fields precede the declaring
// type's own, and redeclaring an inherited name overrides the descriptor
// in the ancestor's position. Frozenness must be uniform across a
// hierarchy.
//
// # Thread Safety
//
// A Type is immutable after NewType returns and safe for unsynchronized
// concurrent reads. Instances are not synchronized; callers coordinate
// concurrent mutation of a non-frozen instance themselves. The
// representation cycle guard is scoped to a single top-level String call,
// so concurrent rendering of overlapping structures is safe.
//
// # Errors
//
// All failures surface as *Error values with a Kind (KindSchema,
// KindConstruction, KindStorage, KindConversion, KindReplace,
// KindAttribute, KindComparison, KindHash) wrapping sentinel errors usable
// with errors.Is, except immutability violations, which are the dedicated
// *FrozenInstanceError type. See errors.go for the full taxonomy.
//
// # Subpackages
//
//   - registry: process-local named-type registry and JSON reconstruction
//   - schemafile: YAML type declarations feeding the dynamic builder
package record
