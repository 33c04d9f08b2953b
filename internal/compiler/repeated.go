package compiler

import (
	"encoding/json"
	"fmt"
	"strings"
)

// expandRepeated turns a RepeatedEvent block into its conditional events.
//
// The template is handled as text: for copy k every substitution token is
// replaced by its k-th value, first occurrence only, and the result is
// parsed as an array of conditional events. The template may be given as
// a JSON array or as a string holding the array text; the string form
// allows tokens in non-string positions such as "Duration": $DUR.
func expandRepeated(raw map[string]json.RawMessage, where string) ([]map[string]any, error) {
	tmplRaw, ok := raw["ConditionalEventTemplates"]
	if !ok || isNull(tmplRaw) {
		return nil, fatal(where, "RepeatedEvent requires ConditionalEventTemplates")
	}
	paramsRaw, ok := raw["SubstitutionParameters"]
	if !ok || isNull(paramsRaw) {
		return nil, fatal(where, "RepeatedEvent requires SubstitutionParameters")
	}

	var rawParams []map[string]any
	if err := json.Unmarshal(paramsRaw, &rawParams); err != nil {
		return nil, fatal(where, "SubstitutionParameters: %w", err)
	}
	if len(rawParams) == 0 {
		return nil, fatal(where, "RepeatedEvent requires at least one substitution parameter")
	}
	params := make([]substitutionParameter, len(rawParams))
	for i, p := range rawParams {
		if !has(p, "ParameterSubstitutionString") || !has(p, "ParameterValues") {
			return nil, fatal(fmt.Sprintf("%s.SubstitutionParameters[%d]", where, i),
				"parameter requires ParameterSubstitutionString and ParameterValues")
		}
		if err := decode(p, &params[i]); err != nil {
			return nil, fatal(fmt.Sprintf("%s.SubstitutionParameters[%d]", where, i), "%w", err)
		}
		if params[i].ParameterSubstitutionString == "" {
			return nil, fatal(fmt.Sprintf("%s.SubstitutionParameters[%d]", where, i), "empty substitution string")
		}
	}

	template := string(tmplRaw)
	if strings.HasPrefix(strings.TrimSpace(template), `"`) {
		if err := json.Unmarshal(tmplRaw, &template); err != nil {
			return nil, fatal(where, "ConditionalEventTemplates: %w", err)
		}
	}

	n := len(params[0].ParameterValues)
	for _, p := range params[1:] {
		n = min(n, len(p.ParameterValues))
	}

	var events []map[string]any
	for k := 0; k < n; k++ {
		text := template
		for _, p := range params {
			text = strings.Replace(text, p.ParameterSubstitutionString, p.ParameterValues[k], 1)
		}

		var copies []any
		if err := json.Unmarshal([]byte(text), &copies); err != nil {
			return nil, fatal(fmt.Sprintf("%s copy %d", where, k), "template does not parse as an array: %w", err)
		}
		for i, c := range copies {
			event, ok := c.(map[string]any)
			if !ok {
				return nil, fatal(fmt.Sprintf("%s copy %d [%d]", where, k, i), "conditional event must be an object")
			}
			if inner, ok := event["ConditionalEvent"].(map[string]any); ok {
				event = inner
			}
			events = append(events, event)
		}
	}
	return events, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
