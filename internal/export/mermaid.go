package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/sopflow/internal/graph"
)

// maxLabel bounds node label length in diagrams.
const maxLabel = 40

// GenerateMermaid produces a Mermaid flowchart from a process graph store.
// Steps are grouped into one subgraph per role; FOLLOWS edges become arrows,
// drawn dashed where the work changes hands between roles.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	steps, err := store.Steps(ctx)
	if err != nil {
		return "", fmt.Errorf("get steps: %w", err)
	}
	roles, err := store.Roles(ctx)
	if err != nil {
		return "", fmt.Errorf("get roles: %w", err)
	}
	handoffs, err := store.Handoffs(ctx)
	if err != nil {
		return "", fmt.Errorf("get handoffs: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	byRole := make(map[string][]graph.StepNode)
	for _, s := range steps {
		byRole[s.Role] = append(byRole[s.Role], s)
	}

	var sb strings.Builder
	sb.WriteString("flowchart TD\n")

	// Emit one subgraph per role, in role-name order.
	for _, r := range roles {
		members := byRole[r.Name]
		if len(members) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  subgraph %s[\"%s\"]\n", getID("role:"+r.Name), escape(r.Name))
		for _, s := range members {
			fmt.Fprintf(&sb, "    %s[\"%s %s\"]\n", getID(s.ID), s.ID, escape(truncate(s.Label, maxLabel)))
		}
		sb.WriteString("  end\n")
		delete(byRole, r.Name)
	}
	// Steps whose role has no Role node are drawn outside any subgraph.
	for _, s := range steps {
		if _, orphan := byRole[s.Role]; orphan {
			fmt.Fprintf(&sb, "  %s[\"%s %s\"]\n", getID(s.ID), s.ID, escape(truncate(s.Label, maxLabel)))
		}
	}

	handoff := make(map[string]bool, len(handoffs))
	for _, h := range handoffs {
		handoff[h.FromStep+">"+h.ToStep] = true
	}
	for i := 1; i < len(steps); i++ {
		from, to := steps[i-1], steps[i]
		arrow := "-->"
		if handoff[from.ID+">"+to.ID] {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "  %s %s %s\n", getID(from.ID), arrow, getID(to.ID))
	}

	return sb.String(), nil
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
