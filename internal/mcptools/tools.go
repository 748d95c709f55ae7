package mcptools

// --- MCP Tool Types ---
// These structs define the JSON schema for each MCP tool's input and
// output. The MCP Go SDK generates the schemas from the struct tags.

// AnalyzeProcessInput is the input for the analyze_process MCP tool.
type AnalyzeProcessInput struct {
	Path     string `json:"path,omitempty" jsonschema:"path to a procedure document (.json, .yml or .yaml)"`
	Document string `json:"document,omitempty" jsonschema:"inline procedure document, used when path is empty"`
	Format   string `json:"format,omitempty" jsonschema:"format of the inline document: json or yaml (default: json)"`
	Sector   string `json:"sector,omitempty" jsonschema:"benchmark sector, e.g. retail or food-services"`
}

// StageSummary is one stage outcome.
type StageSummary struct {
	Stage  string `json:"stage"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// AnalyzeProcessOutput is the result of the analyze_process MCP tool.
type AnalyzeProcessOutput struct {
	RunID                string         `json:"runId"`
	Sector               string         `json:"sector"`
	Title                string         `json:"title"`
	Steps                int            `json:"steps"`
	Roles                int            `json:"roles"`
	Handoffs             int            `json:"handoffs"`
	Bottlenecks          int            `json:"bottlenecks"`
	Clusters             int            `json:"clusters"`
	Anomalies            int            `json:"anomalies"`
	Benchmarked          int            `json:"benchmarked"`
	DigitalMaturity      float64        `json:"digitalMaturity"`
	TotalMonthlySavings  float64        `json:"totalMonthlySavings"`
	TotalAnnualSavings   float64        `json:"totalAnnualSavings"`
	OverallPaybackMonths float64        `json:"overallPaybackMonths"`
	Stages               []StageSummary `json:"stages"`
	Warnings             []string       `json:"warnings"`
	Report               string         `json:"report" jsonschema:"the full analysis report as JSON"`
}

// ROIItemInput is one automation candidate for the calculate_roi MCP tool.
type ROIItemInput struct {
	Step                string   `json:"step" jsonschema:"step description"`
	TimePerTaskMinutes  float64  `json:"timePerTaskMinutes" jsonschema:"minutes one execution takes today"`
	FrequencyPerMonth   float64  `json:"frequencyPerMonth" jsonschema:"executions per month"`
	HourlyCost          float64  `json:"hourlyCost,omitempty" jsonschema:"labor cost per hour (default: configured hourly cost)"`
	ImplementationCost  float64  `json:"implementationCost,omitempty" jsonschema:"one-off automation cost"`
	ComplexityFactor    float64  `json:"complexityFactor,omitempty" jsonschema:"multiplier on implementation cost (default: 1.0)"`
	AutomationPotential string   `json:"automationPotential,omitempty" jsonschema:"low, medium or high (default: medium)"`
	AutomationOverride  *float64 `json:"automationOverride,omitempty" jsonschema:"numeric automation multiplier in [0, 1], overrides automationPotential"`
	AccuracyImprovement float64  `json:"accuracyImprovement,omitempty" jsonschema:"expected accuracy improvement in percent"`
}

// CalculateROIInput is the input for the calculate_roi MCP tool.
type CalculateROIInput struct {
	Items []ROIItemInput `json:"items" jsonschema:"automation candidates to evaluate"`
}

// ROIItemOutput is one evaluated candidate.
type ROIItemOutput struct {
	Step                       string  `json:"step"`
	Category                   string  `json:"category"`
	AutomationMultiplier       float64 `json:"automationMultiplier"`
	AdjustedImplementationCost float64 `json:"adjustedImplementationCost"`
	MonthlyTimeSavingsHours    float64 `json:"monthlyTimeSavingsHours"`
	MonthlyCostSavings         float64 `json:"monthlyCostSavings"`
	AnnualSavings              float64 `json:"annualSavings"`
	PaybackMonths              float64 `json:"paybackMonths"`
	AnnualROIPercentage        float64 `json:"annualRoiPercentage"`
}

// CalculateROIOutput is the result of the calculate_roi MCP tool.
type CalculateROIOutput struct {
	Items                   []ROIItemOutput `json:"items"`
	TotalMonthlySavings     float64         `json:"totalMonthlySavings"`
	TotalAnnualSavings      float64         `json:"totalAnnualSavings"`
	TotalImplementationCost float64         `json:"totalImplementationCost"`
	OverallPaybackMonths    float64         `json:"overallPaybackMonths"`
	OverallAnnualROI        float64         `json:"overallAnnualRoiPercentage"`
	QuickWins               []string        `json:"quickWins"`
	Strategic               []string        `json:"strategic"`
	Dropped                 int             `json:"dropped,omitempty"`
}

// ListSectorsInput is the input for the list_sectors MCP tool.
type ListSectorsInput struct{}

// ListSectorsOutput is the result of the list_sectors MCP tool.
type ListSectorsOutput struct {
	Sectors []string `json:"sectors"`
}
