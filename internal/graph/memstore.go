package graph

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	steps    map[string]StepNode
	roles    map[string]RoleNode
	clusters map[int]ClusterNode
	edges    []Edge
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		steps:    make(map[string]StepNode),
		roles:    make(map[string]RoleNode),
		clusters: make(map[int]ClusterNode),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddStep stores a step node keyed by its id.
func (m *MemStore) AddStep(_ context.Context, node StepNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[node.ID] = node
	return nil
}

// AddRole stores a role node keyed by name.
func (m *MemStore) AddRole(_ context.Context, node RoleNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[node.Name] = node
	return nil
}

// AddCluster stores a cluster node. Members are derived from BELONGS_TO
// edges, so node.Members is ignored.
func (m *MemStore) AddCluster(_ context.Context, node ClusterNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	node.Members = nil
	m.clusters[node.ID] = node
	return nil
}

// AddEdge appends an edge after checking that both endpoints exist.
func (m *MemStore) AddEdge(_ context.Context, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.steps[edge.SourceID]; !ok {
		return fmt.Errorf("memstore: %s edge from unknown step %q", edge.Kind, edge.SourceID)
	}
	var ok bool
	switch edge.Kind {
	case EdgeKindFollows:
		_, ok = m.steps[edge.TargetID]
	case EdgeKindPerformedBy:
		_, ok = m.roles[edge.TargetID]
	case EdgeKindBelongsTo:
		id, err := strconv.Atoi(edge.TargetID)
		if err == nil {
			_, ok = m.clusters[id]
		}
	default:
		return fmt.Errorf("memstore: unsupported edge kind: %s", edge.Kind)
	}
	if !ok {
		return fmt.Errorf("memstore: %s edge to unknown node %q", edge.Kind, edge.TargetID)
	}
	m.edges = append(m.edges, edge)
	return nil
}

// Steps returns all steps ordered by sequence number.
func (m *MemStore) Steps(_ context.Context) ([]StepNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedSteps(), nil
}

func (m *MemStore) sortedSteps() []StepNode {
	out := make([]StepNode, 0, len(m.steps))
	for _, s := range m.steps {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Roles returns all roles ordered by name.
func (m *MemStore) Roles(_ context.Context) ([]RoleNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoleNode, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Clusters returns all clusters ordered by id, each with its member step
// IDs in workflow order.
func (m *MemStore) Clusters(_ context.Context) ([]ClusterNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := make(map[string][]string)
	for _, e := range m.edges {
		if e.Kind == EdgeKindBelongsTo {
			members[e.TargetID] = append(members[e.TargetID], e.SourceID)
		}
	}
	out := make([]ClusterNode, 0, len(m.clusters))
	for id, c := range m.clusters {
		ids := members[strconv.Itoa(id)]
		sort.Slice(ids, func(i, j int) bool { return m.steps[ids[i]].Seq < m.steps[ids[j]].Seq })
		c.Members = append([]string{}, ids...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Handoffs returns FOLLOWS edges that change role, ordered by the source
// step's sequence number.
func (m *MemStore) Handoffs(_ context.Context) ([]Handoff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Handoff
	for _, e := range m.edges {
		if e.Kind != EdgeKindFollows {
			continue
		}
		from, to := m.steps[e.SourceID], m.steps[e.TargetID]
		if from.Role == to.Role {
			continue
		}
		out = append(out, Handoff{FromStep: from.ID, ToStep: to.ID, FromRole: from.Role, ToRole: to.Role})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return m.steps[out[i].FromStep].Seq < m.steps[out[j].FromStep].Seq
	})
	return out, nil
}

// Downstream performs a BFS over FOLLOWS edges from stepID, up to maxDepth
// hops. A maxDepth <= 0 returns nothing.
func (m *MemStore) Downstream(_ context.Context, stepID string, maxDepth int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if maxDepth <= 0 {
		return nil, nil
	}
	next := make(map[string][]string)
	for _, e := range m.edges {
		if e.Kind == EdgeKindFollows {
			next[e.SourceID] = append(next[e.SourceID], e.TargetID)
		}
	}

	type entry struct {
		id    string
		depth int
	}
	visited := map[string]bool{stepID: true}
	queue := []entry{{id: stepID}}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, nb := range next[cur.id] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			out = append(out, nb)
			queue = append(queue, entry{id: nb, depth: cur.depth + 1})
		}
	}
	return out, nil
}

// Stats returns node and edge counts.
func (m *MemStore) Stats(ctx context.Context) (*GraphStats, error) {
	handoffs, err := m.Handoffs(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &GraphStats{
		StepCount:    len(m.steps),
		RoleCount:    len(m.roles),
		ClusterCount: len(m.clusters),
		EdgeCount:    len(m.edges),
		HandoffCount: len(handoffs),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
