package validation

import "mdm-backend/internal/rules"

// Result is the outcome of executing one rule. A zero Message with
// Valid=true means the rule passed or did not apply.
type Result struct {
	Valid    bool
	Message  string
	Severity rules.Severity
	Block    bool
}

var pass = Result{Valid: true}

func fail(message string, severity rules.Severity, block bool) Result {
	return Result{Message: message, Severity: severity, Block: block}
}

// Message is one aggregated validation finding, already localized.
type Message struct {
	Field           string         `json:"field"`
	Entity          string         `json:"entity"`
	Message         string         `json:"message"`
	Severity        rules.Severity `json:"severity"`
	BlockSubmission bool           `json:"blockSubmission"`
	RuleCode        string         `json:"ruleCode,omitempty"`
	Category        string         `json:"category,omitempty"`
}

// Report is the aggregate outcome of one ValidateRequest call. Warnings
// never block; Valid is false only when Errors is non-empty.
type Report struct {
	Valid         bool          `json:"isValid"`
	Errors        []Message     `json:"errors"`
	Warnings      []Message     `json:"warnings"`
	RulesExecuted int           `json:"totalRulesExecuted"`
	Context       rules.Context `json:"context"`
}
