package rules

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter narrows a child collection before a section rule counts it.
// Three criteria syntaxes are accepted:
//
//	{"isEstablished": true}          JSON object, AND-ed equality
//	isEstablished=true,country=DE    key=value pairs, AND-ed equality
//	expr: isEstablished && country == "DE"   boolean expression
//
// Equality filters compare record values exactly; expression filters run
// a compiled program with the record as environment.
type Filter struct {
	pairs map[string]any
	prog  *vm.Program
}

const exprPrefix = "expr:"

// ParseFilter compiles a criteria string once, at rule load time.
func ParseFilter(raw string) (*Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if rest, ok := strings.CutPrefix(raw, exprPrefix); ok {
		prog, err := expr.Compile(strings.TrimSpace(rest), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile filter expression: %w", err)
		}
		return &Filter{prog: prog}, nil
	}

	var pairs map[string]any
	if err := json.Unmarshal([]byte(raw), &pairs); err == nil {
		return &Filter{pairs: pairs}, nil
	}

	// Fallback: key=value[,key=value] form (values compared as strings)
	if !strings.Contains(raw, "=") {
		return nil, fmt.Errorf("invalid filter criteria: %q", raw)
	}
	pairs = make(map[string]any)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			pairs[key] = value
		}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("invalid filter criteria: %q", raw)
	}
	return &Filter{pairs: pairs}, nil
}

// Apply returns the records matching the filter.
func (f *Filter) Apply(records []map[string]any) []map[string]any {
	if f == nil {
		return records
	}
	matched := make([]map[string]any, 0, len(records))
	for _, record := range records {
		if f.matches(record) {
			matched = append(matched, record)
		}
	}
	return matched
}

func (f *Filter) matches(record map[string]any) bool {
	if f.prog != nil {
		result, err := expr.Run(f.prog, record)
		if err != nil {
			log.Printf("WARN: filter expression failed: %v", err)
			return false
		}
		ok, _ := result.(bool)
		return ok
	}

	for field, want := range f.pairs {
		if !equalValue(record[field], want) {
			return false
		}
	}
	return true
}

// equalValue compares two scalar values. Composite values never match;
// criteria are equality checks over scalar record fields.
func equalValue(a, b any) bool {
	switch a.(type) {
	case map[string]any, []any:
		return false
	}
	switch b.(type) {
	case map[string]any, []any:
		return false
	}
	if a == b {
		return true
	}
	// key=value criteria carry string values; compare representations so
	// isEstablished=true matches a boolean record field.
	return fmt.Sprint(a) == fmt.Sprint(b)
}
