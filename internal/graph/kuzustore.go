//go:build cgo

package graph

import (
	"context"
	"fmt"
	"strconv"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore keeps one run's process graph in an in-memory KuzuDB database.
// Only built with cgo; go-kuzu links the KuzuDB C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

var _ Store = (*KuzuStore)(nil)

// NewKuzuStore opens a fresh in-memory database and connection.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the connection, then the database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ddlStatements creates the Step, Role and Cluster node tables followed by
// the FOLLOWS, PERFORMED_BY and BELONGS_TO relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Step(
		id STRING,
		seq INT64,
		label STRING,
		role STRING,
		kind STRING,
		duration DOUBLE,
		complexity STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Role(
		name STRING,
		step_count INT64,
		workload DOUBLE,
		PRIMARY KEY(name)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Cluster(
		id INT64,
		pattern_type STRING,
		potential STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS FOLLOWS(FROM Step TO Step)`,
	`CREATE REL TABLE IF NOT EXISTS PERFORMED_BY(FROM Step TO Role)`,
	`CREATE REL TABLE IF NOT EXISTS BELONGS_TO(FROM Step TO Cluster)`,
}

var relTables = []string{"FOLLOWS", "PERFORMED_BY", "BELONGS_TO"}

// InitSchema runs ddlStatements. It is idempotent.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// AddStep inserts a Step node.
func (s *KuzuStore) AddStep(_ context.Context, node StepNode) error {
	return s.exec(
		`CREATE (s:Step {
			id: $id,
			seq: $seq,
			label: $label,
			role: $role,
			kind: $kind,
			duration: $duration,
			complexity: $complexity
		})`,
		map[string]any{
			"id":         node.ID,
			"seq":        int64(node.Seq),
			"label":      node.Label,
			"role":       node.Role,
			"kind":       node.Kind,
			"duration":   node.DurationMinutes,
			"complexity": node.Complexity,
		},
	)
}

// AddRole inserts a Role node.
func (s *KuzuStore) AddRole(_ context.Context, node RoleNode) error {
	return s.exec(
		"CREATE (r:Role {name: $name, step_count: $count, workload: $workload})",
		map[string]any{
			"name":     node.Name,
			"count":    int64(node.StepCount),
			"workload": node.WorkloadFraction,
		},
	)
}

// AddCluster inserts a Cluster node. Members are attached separately with
// BELONGS_TO edges.
func (s *KuzuStore) AddCluster(_ context.Context, node ClusterNode) error {
	return s.exec(
		"CREATE (c:Cluster {id: $id, pattern_type: $pt, potential: $potential})",
		map[string]any{
			"id":        int64(node.ID),
			"pt":        node.PatternType,
			"potential": node.AutomationPotential,
		},
	)
}

// AddEdge links two existing nodes with the relationship named by edge.Kind.
func (s *KuzuStore) AddEdge(_ context.Context, edge Edge) error {
	cypher, err := edgeCypher(edge.Kind)
	if err != nil {
		return err
	}
	params := map[string]any{"src": edge.SourceID, "dst": edge.TargetID}
	if edge.Kind == EdgeKindBelongsTo {
		id, err := strconv.Atoi(edge.TargetID)
		if err != nil {
			return fmt.Errorf("kuzu: cluster id %q: %w", edge.TargetID, err)
		}
		params["dst"] = int64(id)
	}
	return s.exec(cypher, params)
}

// edgeCypher maps an edge kind to its MATCH ... CREATE statement.
func edgeCypher(kind EdgeKind) (string, error) {
	switch kind {
	case EdgeKindFollows:
		return `MATCH (a:Step {id: $src}), (b:Step {id: $dst})
				CREATE (a)-[:FOLLOWS]->(b)`, nil
	case EdgeKindPerformedBy:
		return `MATCH (a:Step {id: $src}), (b:Role {name: $dst})
				CREATE (a)-[:PERFORMED_BY]->(b)`, nil
	case EdgeKindBelongsTo:
		return `MATCH (a:Step {id: $src}), (b:Cluster {id: $dst})
				CREATE (a)-[:BELONGS_TO]->(b)`, nil
	default:
		return "", fmt.Errorf("kuzu: unsupported edge kind: %s", kind)
	}
}

// Steps returns all Step nodes ordered by sequence number.
func (s *KuzuStore) Steps(_ context.Context) ([]StepNode, error) {
	rows, err := s.query(
		`MATCH (s:Step)
		 RETURN s.id, s.seq, s.label, s.role, s.kind, s.duration, s.complexity
		 ORDER BY s.seq`,
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]StepNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, StepNode{
			ID:              toString(r[0]),
			Seq:             toInt(r[1]),
			Label:           toString(r[2]),
			Role:            toString(r[3]),
			Kind:            toString(r[4]),
			DurationMinutes: toFloat64(r[5]),
			Complexity:      toString(r[6]),
		})
	}
	return out, nil
}

// Roles returns all Role nodes ordered by name.
func (s *KuzuStore) Roles(_ context.Context) ([]RoleNode, error) {
	rows, err := s.query("MATCH (r:Role) RETURN r.name, r.step_count, r.workload ORDER BY r.name", nil)
	if err != nil {
		return nil, err
	}
	out := make([]RoleNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, RoleNode{
			Name:             toString(r[0]),
			StepCount:        toInt(r[1]),
			WorkloadFraction: toFloat64(r[2]),
		})
	}
	return out, nil
}

// Clusters returns all Cluster nodes with their members.
func (s *KuzuStore) Clusters(_ context.Context) ([]ClusterNode, error) {
	rows, err := s.query("MATCH (c:Cluster) RETURN c.id, c.pattern_type, c.potential ORDER BY c.id", nil)
	if err != nil {
		return nil, err
	}
	out := make([]ClusterNode, 0, len(rows))
	for _, r := range rows {
		id := toInt(r[0])

		memberRows, err := s.query(
			"MATCH (s:Step)-[:BELONGS_TO]->(c:Cluster {id: $id}) RETURN s.id ORDER BY s.seq",
			map[string]any{"id": int64(id)},
		)
		if err != nil {
			return nil, err
		}
		members := make([]string, 0, len(memberRows))
		for _, mr := range memberRows {
			members = append(members, toString(mr[0]))
		}

		out = append(out, ClusterNode{
			ID:                  id,
			PatternType:         toString(r[1]),
			AutomationPotential: toString(r[2]),
			Members:             members,
		})
	}
	return out, nil
}

// Handoffs returns FOLLOWS edges between steps of different roles.
func (s *KuzuStore) Handoffs(_ context.Context) ([]Handoff, error) {
	rows, err := s.query(
		`MATCH (a:Step)-[:FOLLOWS]->(b:Step)
		 WHERE a.role <> b.role
		 RETURN a.id, b.id, a.role, b.role
		 ORDER BY a.seq`,
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]Handoff, 0, len(rows))
	for _, r := range rows {
		out = append(out, Handoff{
			FromStep: toString(r[0]),
			ToStep:   toString(r[1]),
			FromRole: toString(r[2]),
			ToRole:   toString(r[3]),
		})
	}
	return out, nil
}

// Downstream performs a BFS over FOLLOWS edges starting from stepID.
func (s *KuzuStore) Downstream(_ context.Context, stepID string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	type bfsEntry struct {
		id    string
		depth int
	}
	visited := map[string]bool{stepID: true}
	queue := []bfsEntry{{id: stepID}}
	var out []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		rows, err := s.query(
			"MATCH (a:Step {id: $id})-[:FOLLOWS]->(b:Step) RETURN b.id ORDER BY b.seq",
			map[string]any{"id": cur.id},
		)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			nb := toString(r[0])
			if visited[nb] {
				continue
			}
			visited[nb] = true
			out = append(out, nb)
			queue = append(queue, bfsEntry{id: nb, depth: cur.depth + 1})
		}
	}
	return out, nil
}

// Stats counts steps, roles, clusters and relationships.
func (s *KuzuStore) Stats(ctx context.Context) (*GraphStats, error) {
	steps, err := s.countTable("Step")
	if err != nil {
		return nil, err
	}
	roles, err := s.countTable("Role")
	if err != nil {
		return nil, err
	}
	clusters, err := s.countTable("Cluster")
	if err != nil {
		return nil, err
	}
	edges, err := s.countEdges()
	if err != nil {
		return nil, err
	}
	handoffs, err := s.Handoffs(ctx)
	if err != nil {
		return nil, err
	}
	return &GraphStats{
		StepCount:    steps,
		RoleCount:    roles,
		ClusterCount: clusters,
		EdgeCount:    edges,
		HandoffCount: len(handoffs),
	}, nil
}

// exec prepares and executes a statement whose result is discarded.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	cypher := fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table)
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// countEdges returns the total number of edges across all relationship tables.
func (s *KuzuStore) countEdges() (int, error) {
	total := 0
	for _, t := range relTables {
		cypher := fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", t)
		rows, err := s.query(cypher, nil)
		if err != nil {
			return 0, err
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			total += toInt(rows[0][0])
		}
	}
	return total, nil
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
