// Package graph holds the per-run process graph: steps linked in workflow
// order, the roles that perform them and the clusters they fall into.
package graph

import (
	"context"
	"errors"
	"io"
)

// Store is the interface for the process graph backend.
// Implementations: KuzuStore (cgo builds), MemStore.
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	AddStep(ctx context.Context, node StepNode) error
	AddRole(ctx context.Context, node RoleNode) error
	AddCluster(ctx context.Context, node ClusterNode) error
	AddEdge(ctx context.Context, edge Edge) error

	// Read operations. Steps come back in workflow order, roles by name,
	// clusters by id.
	Steps(ctx context.Context) ([]StepNode, error)
	Roles(ctx context.Context) ([]RoleNode, error)
	Clusters(ctx context.Context) ([]ClusterNode, error)

	// Handoffs lists FOLLOWS edges whose endpoints have different roles,
	// in workflow order.
	Handoffs(ctx context.Context) ([]Handoff, error)

	// Downstream returns the step IDs reachable from stepID along FOLLOWS
	// edges within maxDepth hops, nearest first.
	Downstream(ctx context.Context, stepID string, maxDepth int) ([]string, error)

	Stats(ctx context.Context) (*GraphStats, error)
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendKuzu   = "kuzu"
)

// ErrBackendUnavailable is returned by Open for a backend this binary was
// built without.
var ErrBackendUnavailable = errors.New("graph: backend unavailable")
