//go:build cgo

package graph

import "fmt"

// Open returns an empty store for the named backend. An empty name selects
// the in-memory map store.
func Open(backend string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemStore(), nil
	case BackendKuzu:
		return NewKuzuStore()
	default:
		return nil, fmt.Errorf("graph: unknown backend %q", backend)
	}
}
