// Package registry provides a process-local registry of named record
// types, plus JSON reconstruction of record instances by registered type
// name.
//
// The registry exists so that serialized instances, which carry only
// their type name and field values, can be rebuilt into instances of the
// right schema-bearing type. It is in-process only: nothing persists
// across restarts, and a fresh process must re-register its types before
// decoding.
//
// # Usage
//
// Register a type once, typically right after building it:
//
//	point, _ := record.NewType("Point", []record.FieldSpec{
//		record.F("x", record.Any),
//		record.F("y", record.Any),
//	})
//	registry.Register(point)
//
//	data, _ := json.Marshal(p) // {"$type":"Point","x":1,"y":2}
//	back, _ := registry.Unmarshal(data)
//
// # Thread Safety
//
// All operations are safe for concurrent use from multiple goroutines.
// The registry uses sync.RWMutex for efficient concurrent access.
package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/zero-day-ai/record"
)

var (
	mu    sync.RWMutex
	types = map[string]*record.Type{}
)

// Register adds a record type to the registry under its own name.
// Registering a second type under an existing name fails; use Unregister
// first to replace one deliberately.
func Register(t *record.Type) error {
	if t == nil {
		return fmt.Errorf("registry: nil type")
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := types[t.Name()]; exists {
		return fmt.Errorf("registry: type %q already registered", t.Name())
	}
	types[t.Name()] = t
	return nil
}

// Lookup returns the registered type with the given name.
func Lookup(name string) (*record.Type, bool) {
	mu.RLock()
	defer mu.RUnlock()

	t, ok := types[name]
	return t, ok
}

// Unregister removes the named type. Removing an unknown name is a no-op.
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()

	delete(types, name)
}

// Names returns the sorted names of all registered types.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(types))
	for name := range types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Reset clears the registry. Intended for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	types = map[string]*record.Type{}
}

// Unmarshal reconstructs a record instance from JSON produced by
// Instance.MarshalJSON. The object's "$type" member selects the
// registered type; nested objects carrying "$type" are reconstructed
// recursively, so records containing records round-trip intact.
func Unmarshal(data []byte) (*record.Instance, error) {
	var state map[string]any
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("registry: decoding instance: %w", err)
	}
	return Decode(state)
}

// Decode reconstructs a record instance from an already-parsed state map,
// as produced by unmarshalling Instance.MarshalJSON output.
func Decode(state map[string]any) (*record.Instance, error) {
	name, ok := state["$type"].(string)
	if !ok {
		return nil, fmt.Errorf("registry: state carries no $type member")
	}
	t, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("registry: type %q is not registered", name)
	}

	restored := make(map[string]any, len(state))
	for k, v := range state {
		rv, err := decodeValue(v)
		if err != nil {
			return nil, err
		}
		restored[k] = rv
	}
	return t.FromMap(restored)
}

// decodeValue rebuilds nested instances inside parsed JSON values.
func decodeValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if _, nested := val["$type"]; nested {
			return Decode(val)
		}
		out := make(map[string]any, len(val))
		for k, elem := range val {
			dv, err := decodeValue(elem)
			if err != nil {
				return nil, err
			}
			out[k] = dv
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			dv, err := decodeValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil
	default:
		return v, nil
	}
}
