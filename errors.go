package record

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrNotRecord indicates a value that is neither a schema-bearing
	// Type nor an Instance was passed where one is required.
	ErrNotRecord = errors.New("not a record type or instance")

	// ErrAttribute indicates an attribute lookup, assignment, or deletion
	// failed. FrozenInstanceError matches this sentinel as well.
	ErrAttribute = errors.New("attribute error")

	// ErrFrozenInstance indicates a mutation was attempted on an instance
	// of a frozen type after construction.
	ErrFrozenInstance = errors.New("frozen instance")

	// ErrUnhashable indicates hashing is disabled for the type, or a
	// field value has no hash projection (slices, maps, functions).
	ErrUnhashable = errors.New("unhashable")

	// ErrNotComparable indicates the two operands cannot be compared:
	// they are instances of different produced types, or their field
	// values have no common comparison.
	ErrNotComparable = errors.New("operands not comparable")

	// ErrNotOrdered indicates an ordering comparison was requested on a
	// type built without order.
	ErrNotOrdered = errors.New("type does not define an ordering")
)

// Error kinds categorize failures by the stage that produced them.
const (
	// KindSchema represents build-time schema validation failures,
	// fatal to type construction.
	KindSchema = "schema"

	// KindConstruction represents constructor argument failures.
	KindConstruction = "construction"

	// KindStorage represents assignment outside a restricted-storage
	// type's declared slots.
	KindStorage = "storage"

	// KindConversion represents structural-conversion failures.
	KindConversion = "conversion"

	// KindReplace represents copy-with-overrides failures.
	KindReplace = "replace"

	// KindAttribute represents attribute access failures on instances.
	KindAttribute = "attribute"

	// KindComparison represents equality or ordering requests the type
	// cannot satisfy.
	KindComparison = "comparison"

	// KindHash represents hash requests the type cannot satisfy.
	KindHash = "hash"
)

// Error is a structured error type that wraps underlying errors with the
// operation that failed, the failure kind, and the offending type and
// field names where known.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
type Error struct {
	// Op is the operation that failed (e.g., "NewType", "Instance.Set").
	Op string

	// Kind categorizes the error (e.g., KindSchema, KindConstruction).
	Kind string

	// Type is the name of the record type involved, if known.
	Type string

	// Field is the name of the field involved, if known.
	Field string

	// Message is a human-readable description of the failure.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface, returning a formatted message
// that includes the operation, kind, and offending type/field.
func (e *Error) Error() string {
	msg := fmt.Sprintf("record: %s (%s)", e.Op, e.Kind)
	if e.Type != "" {
		msg += ": type " + e.Type
	}
	if e.Field != "" {
		msg += ", field " + e.Field
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, allowing errors.Is() and
// errors.As() to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison against
// another *Error by Kind (and Op, when the target sets one).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && e.Kind != t.Kind {
		return false
	}
	if t.Op != "" && e.Op != t.Op {
		return false
	}
	return t.Kind != "" || t.Op != ""
}

// FrozenInstanceError reports an assignment or deletion on an instance of
// a frozen type after construction. It matches both ErrFrozenInstance and
// the generic ErrAttribute through errors.Is.
type FrozenInstanceError struct {
	// Type is the name of the frozen record type.
	Type string

	// Field is the attribute whose mutation was rejected.
	Field string
}

// Error implements the error interface.
func (e *FrozenInstanceError) Error() string {
	return fmt.Sprintf("record: cannot assign to field %q of frozen type %s", e.Field, e.Type)
}

// Is reports a match against ErrFrozenInstance and ErrAttribute, so that
// callers treating frozen violations as a subtype of attribute errors can
// use errors.Is with either sentinel.
func (e *FrozenInstanceError) Is(target error) bool {
	return target == ErrFrozenInstance || target == ErrAttribute
}

// schemaErr builds a KindSchema error for NewType-time validation failures.
func schemaErr(typeName, fieldName, format string, args ...any) *Error {
	return &Error{
		Op:      "NewType",
		Kind:    KindSchema,
		Type:    typeName,
		Field:   fieldName,
		Message: fmt.Sprintf(format, args...),
	}
}

// buildErr builds a KindConstruction error for constructor failures.
func buildErr(typeName, fieldName, format string, args ...any) *Error {
	return &Error{
		Op:      "Type.Build",
		Kind:    KindConstruction,
		Type:    typeName,
		Field:   fieldName,
		Message: fmt.Sprintf(format, args...),
	}
}

// attrErr builds a KindAttribute error wrapping ErrAttribute.
func attrErr(op, typeName, fieldName, format string, args ...any) *Error {
	return &Error{
		Op:      op,
		Kind:    KindAttribute,
		Type:    typeName,
		Field:   fieldName,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrAttribute,
	}
}
