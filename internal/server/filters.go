package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agenthands/helix/internal/query"
)

// parseFilters turns filter params into predicates. "age:gt:40" compares,
// "patient_id:has" tests existence. Numeric-looking values compare as
// numbers.
func parseFilters(raw []string) ([]query.Filter, error) {
	var filters []query.Filter
	for _, item := range raw {
		parts := strings.SplitN(item, ":", 3)
		switch len(parts) {
		case 2:
			if parts[1] != "has" {
				return nil, fmt.Errorf("filter %q needs a value", item)
			}
			filters = append(filters, query.Filter{Field: parts[0], Op: "has"})
		case 3:
			filters = append(filters, query.Filter{Field: parts[0], Op: parts[1], Value: coerceValue(parts[2])})
		default:
			return nil, fmt.Errorf("malformed filter %q", item)
		}
	}
	return filters, nil
}

func coerceValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
