package process

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func sampleDocument() *Document {
	return &Document{
		Title: "Goods Receiving",
		Sections: Sections{
			Procedure: []MainStep{
				{
					StepNumber: 1,
					Title:      "Receive delivery",
					Role:       "Storekeeper",
					SubSteps: []SubStep{
						{Text: "Check delivery order against purchase order"},
						{Text: "Count cartons manually", Role: "Assistant"},
					},
				},
				{
					StepNumber: 2,
					Title:      "Update stock records",
					SubSteps: []SubStep{
						{Text: "Enter quantities into Excel"},
					},
				},
				{
					StepNumber:      3,
					Title:           "Approve invoice",
					Role:            "Manager",
					DurationMinutes: ptr(12),
					Complexity:      "high",
				},
			},
		},
	}
}

func TestFlatten_IDsOrderAndKinds(t *testing.T) {
	res, err := Flatten(sampleDocument(), Options{})
	require.NoError(t, err)

	want := []struct {
		id   string
		kind Kind
		role string
	}{
		{"1.0", KindMain, "Storekeeper"},
		{"1.1", KindSub, "Storekeeper"},
		{"1.2", KindSub, "Assistant"},
		{"2.0", KindMain, "Storekeeper"},
		{"2.1", KindSub, "Storekeeper"},
		{"3.0", KindMain, "Manager"},
	}
	require.Len(t, res.Steps, len(want))
	for i, w := range want {
		s := res.Steps[i]
		assert.Equal(t, i+1, s.Order)
		assert.Equal(t, w.id, s.StepID)
		assert.Equal(t, w.kind, s.Kind)
		assert.Equal(t, w.role, s.Role, "role of %s", w.id)
	}
	assert.Equal(t, 6, res.Emitted)
	assert.Zero(t, res.Consolidated)
	assert.False(t, res.CapExceeded)
}

func TestFlatten_DurationAndComplexityDefaults(t *testing.T) {
	res, err := Flatten(sampleDocument(), Options{})
	require.NoError(t, err)

	byID := make(map[string]StepRecord)
	for _, s := range res.Steps {
		byID[s.StepID] = s
	}

	// Two sub-steps: medium complexity, 15 minutes.
	assert.Equal(t, LevelMedium, byID["1.0"].Complexity)
	assert.Equal(t, 15.0, byID["1.0"].DurationMinutes)
	// One sub-step: low.
	assert.Equal(t, LevelLow, byID["2.0"].Complexity)
	assert.Equal(t, 5.0, byID["2.0"].DurationMinutes)
	// Declared values win.
	assert.Equal(t, LevelHigh, byID["3.0"].Complexity)
	assert.Equal(t, 12.0, byID["3.0"].DurationMinutes)
	// Sub-steps have no children of their own.
	assert.Equal(t, LevelLow, byID["1.1"].Complexity)
	assert.Equal(t, 5.0, byID["1.1"].DurationMinutes)
}

func TestComplexityFromSubSteps(t *testing.T) {
	tests := []struct {
		n    int
		want Level
	}{
		{0, LevelLow}, {1, LevelLow}, {2, LevelMedium}, {4, LevelMedium}, {5, LevelHigh}, {12, LevelHigh},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			assert.Equal(t, tt.want, ComplexityFromSubSteps(tt.n))
		})
	}
}

func TestFlatten_FirstMainStepWithoutRole(t *testing.T) {
	doc := &Document{Sections: Sections{Procedure: []MainStep{
		{Title: "Open store"},
		{Title: "Count cash", Role: "Cashier"},
	}}}
	res, err := Flatten(doc, Options{})
	require.NoError(t, err)
	assert.Equal(t, UnassignedRole, res.Steps[0].Role)
	assert.Equal(t, "Cashier", res.Steps[1].Role)
}

func TestFlatten_StructureErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"nil document", nil},
		{"no main steps", &Document{Title: "Empty"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flatten(tt.doc, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStructure))
		})
	}
}

func TestFlatten_SkipsBlankSubSteps(t *testing.T) {
	doc := &Document{Sections: Sections{Procedure: []MainStep{
		{Title: "Pack order", Role: "Packer", SubSteps: []SubStep{{Text: "Pick items"}, {Text: " "}, {Text: "Seal box"}}},
	}}}
	res, err := Flatten(doc, Options{})
	require.NoError(t, err)
	require.Len(t, res.Steps, 3)
	assert.Equal(t, "1.2", res.Steps[2].StepID)
	assert.Equal(t, "Seal box", res.Steps[2].Text)
	assert.Equal(t, []string{"main step 1: sub-step 2 is blank, dropped"}, res.Warnings)
}

func TestFlatten_BlankTitleGetsPlaceholder(t *testing.T) {
	doc := &Document{Sections: Sections{Procedure: []MainStep{
		{Title: "Open the till", Role: "Cashier"},
		{Title: "  ", SubSteps: []SubStep{{Text: "Count the float"}}},
	}}}
	res, err := Flatten(doc, Options{})
	require.NoError(t, err)

	require.Len(t, res.Steps, 3)
	assert.Equal(t, "2.0", res.Steps[1].StepID)
	assert.Equal(t, "Step 2", res.Steps[1].Text)
	assert.Equal(t, "Cashier", res.Steps[1].Role)
	assert.Equal(t, []string{`main step 2 has no title, using "Step 2"`}, res.Warnings)
	assert.Equal(t, []string{"Open the till", "Step 2"}, res.Roles["Cashier"].Responsibilities)
}

func TestFlatten_CleanDocumentHasNoWarnings(t *testing.T) {
	res, err := Flatten(bigDocument(2, 2), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func bigDocument(mains, subs int, roles ...string) *Document {
	doc := &Document{}
	for i := 0; i < mains; i++ {
		ms := MainStep{Title: fmt.Sprintf("Main %d", i+1), Role: "Clerk"}
		for j := 0; j < subs; j++ {
			ss := SubStep{Text: fmt.Sprintf("Sub %d.%d", i+1, j+1)}
			if len(roles) > 0 {
				ss.Role = roles[j%len(roles)]
			}
			ms.SubSteps = append(ms.SubSteps, ss)
		}
		doc.Sections.Procedure = append(doc.Sections.Procedure, ms)
	}
	return doc
}

func TestFlatten_CapConsolidatesSameRoleSubSteps(t *testing.T) {
	doc := bigDocument(5, 12) // 5 + 60 = 65 records
	res, err := Flatten(doc, Options{})
	require.NoError(t, err)

	assert.Equal(t, 65, res.Emitted)
	assert.Len(t, res.Steps, DefaultMaxSteps)
	assert.Equal(t, 15, res.Consolidated)
	assert.False(t, res.CapExceeded)

	var total float64
	for i, s := range res.Steps {
		assert.Equal(t, i+1, s.Order)
		total += s.DurationMinutes
	}
	// Every main step has 12 sub-steps: high complexity, 30 minutes; subs 5.
	assert.InDelta(t, 5*30+60*5, total, 1e-9, "consolidation preserves total duration")

	// Minors stay contiguous per main step.
	expectMinor := 0
	for _, s := range res.Steps {
		if s.Kind == KindMain {
			expectMinor = 0
			continue
		}
		expectMinor++
		assert.Equal(t, expectMinor, s.Minor(), s.StepID)
	}
}

func TestFlatten_CapFallsBackToCrossRoleMerge(t *testing.T) {
	// Alternating roles leave nothing to merge in the same-role pass.
	doc := bigDocument(3, 20, "A", "B")
	res, err := Flatten(doc, Options{MaxSteps: 30})
	require.NoError(t, err)
	assert.Len(t, res.Steps, 30)
	assert.False(t, res.CapExceeded)

	merged := 0
	for _, s := range res.Steps {
		if s.MergedCount > 0 {
			merged++
			assert.Contains(t, s.Text, "; ")
		}
	}
	assert.NotZero(t, merged)
}

func TestFlatten_CapExceededWhenOnlyMainSteps(t *testing.T) {
	doc := bigDocument(8, 0)
	res, err := Flatten(doc, Options{MaxSteps: 5})
	require.NoError(t, err)
	assert.Len(t, res.Steps, 8)
	assert.True(t, res.CapExceeded)
}

func TestBuildRoleProfiles(t *testing.T) {
	res, err := Flatten(sampleDocument(), Options{})
	require.NoError(t, err)

	require.Contains(t, res.Roles, "Storekeeper")
	sk := res.Roles["Storekeeper"]
	assert.Equal(t, 4, sk.StepCount)
	assert.InDelta(t, 4.0/6.0, sk.WorkloadFraction, 1e-4)
	assert.Equal(t, []string{"Receive delivery", "Update stock records"}, sk.Responsibilities)

	asst := res.Roles["Assistant"]
	assert.Equal(t, 1, asst.StepCount)
	assert.Equal(t, []string{"Receive delivery"}, asst.Responsibilities)

	var sum float64
	for _, p := range res.Roles {
		sum += p.WorkloadFraction
	}
	assert.InDelta(t, 1.0, sum, 0.01)
}

func TestBuildRoleProfiles_Empty(t *testing.T) {
	assert.Empty(t, BuildRoleProfiles(nil))
}
