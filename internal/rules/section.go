package rules

// SectionRule is a cardinality check over one child collection, from the
// _section_rules table. Filter narrows the collection before counting.
type SectionRule struct {
	ID              string   `json:"id"`
	RuleCode        string   `json:"ruleCode"`
	SectionName     string   `json:"sectionName"`
	SectionLabel    string   `json:"sectionLabel"`
	MinimumCount    int      `json:"minimumCount"`
	MaximumCount    *int     `json:"maximumCount"`
	FilterCriteria  string   `json:"filterCriteria,omitempty"`
	MinErrorMessage string   `json:"minErrorMessage,omitempty"`
	MaxErrorMessage string   `json:"maxErrorMessage,omitempty"`
	BlockSubmission bool     `json:"blockSubmission"`
	Status          *string  `json:"status"`
	SourceSystem    *string  `json:"sourceSystem"`
	EntityType      *string  `json:"entityType"`
	RequestType     *string  `json:"requestType"`
	Priority        int      `json:"priority"`
	Locale          string   `json:"locale"`
	Active          bool     `json:"active"`

	// Filter is compiled from FilterCriteria when the rule is loaded,
	// so validation calls never re-parse the criteria string. Nil when
	// no criteria is set or the criteria failed to parse.
	Filter *Filter `json:"-"`
}

func (r *SectionRule) Matches(c Context) bool {
	return scopeMatches(r.Status, c.Status) &&
		scopeMatches(r.SourceSystem, c.SourceSystem) &&
		scopeMatches(r.EntityType, c.EntityType) &&
		scopeMatches(r.RequestType, c.RequestType)
}

func (r *SectionRule) Specificity() int {
	return specificity(r.Status, r.SourceSystem, r.EntityType, r.RequestType)
}
