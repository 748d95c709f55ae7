//go:build !cgo

package graph

import "fmt"

// Open returns an empty store for the named backend. KuzuDB needs cgo, so
// this build only offers the in-memory map store.
func Open(backend string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemStore(), nil
	case BackendKuzu:
		return nil, fmt.Errorf("%w: %s requires a cgo build", ErrBackendUnavailable, backend)
	default:
		return nil, fmt.Errorf("graph: unknown backend %q", backend)
	}
}
