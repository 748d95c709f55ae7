package pattern

import "github.com/dusk-indust/sopflow/internal/process"

// Pattern types assigned to clusters.
const (
	PatternManualDataEntry   = "manual_data_entry"
	PatternApprovalWorkflow  = "approval_workflow"
	PatternCommunication     = "communication"
	PatternReporting         = "reporting"
	PatternInventoryHandling = "inventory_handling"
	PatternGeneral           = "general"
)

var patternFamilies = []struct {
	name  string
	terms []string
}{
	{PatternManualDataEntry, []string{"enter", "record", "input", "log", "fill", "type", "key", "spreadsheet", "excel", "form", "write"}},
	{PatternApprovalWorkflow, []string{"approve", "approval", "review", "sign", "authorize", "verify", "endorse", "check"}},
	{PatternCommunication, []string{"email", "call", "phone", "notify", "inform", "send", "whatsapp", "message", "contact"}},
	{PatternReporting, []string{"report", "summary", "summarize", "dashboard", "submit", "compile"}},
	{PatternInventoryHandling, []string{"stock", "inventory", "count", "receive", "deliver", "delivery", "store", "pick", "pack", "shelf"}},
}

// classifyPattern names the keyword family with the most hits across
// members. Declaration order breaks ties; no hits yields "general".
func classifyPattern(members []string) string {
	best, bestHits := PatternGeneral, 0
	for _, fam := range patternFamilies {
		hits := 0
		for _, m := range members {
			hits += process.CountTerms(m, fam.terms)
		}
		if hits > bestHits {
			best, bestHits = fam.name, hits
		}
	}
	return best
}
