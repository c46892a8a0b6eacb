package docstore

import (
	"fmt"
	"strings"
)

// SplitFilters separates filter queries from the limit clause, returning
// the filters and the limit (or fallback when no limit query is present).
func SplitFilters(queries []Query, fallbackLimit int) ([]Query, int) {
	filters := make([]Query, 0, len(queries))
	limit := fallbackLimit
	for _, q := range queries {
		if q.Method == MethodLimit {
			limit = LimitOf([]Query{q}, fallbackLimit)
			continue
		}
		filters = append(filters, q)
	}
	return filters, limit
}

// MatchAll reports whether the document satisfies every filter query.
// It is used by adapters that evaluate queries client-side instead of
// pushing them to a backend.
func MatchAll(doc Document, filters []Query) bool {
	for _, q := range filters {
		if !Match(doc, q) {
			return false
		}
	}
	return true
}

// Match evaluates a single query against a document's attributes.
func Match(doc Document, q Query) bool {
	switch q.Method {
	case MethodEqual:
		val := doc.Data[q.Attribute]
		for _, want := range q.Values {
			if valueEqual(val, want) {
				return true
			}
		}
		return false
	case MethodContains:
		// On a string attribute contains is a substring match; on a list
		// attribute it is membership.
		if s, ok := doc.Data[q.Attribute].(string); ok {
			for _, want := range q.Values {
				if strings.Contains(s, fmt.Sprint(want)) {
					return true
				}
			}
			return false
		}
		items := stringValues(doc.Data[q.Attribute])
		for _, want := range q.Values {
			for _, item := range items {
				if valueEqual(item, want) {
					return true
				}
			}
		}
		return false
	case MethodOr:
		for _, nested := range q.Nested {
			if Match(doc, nested) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// valueEqual compares attribute values loosely. Attribute maps round-trip
// through JSON, so ints may come back as float64; string comparison keeps
// equality stable across that.
func valueEqual(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func stringValues(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, strings.TrimSpace(fmt.Sprint(item)))
		}
		return out
	case string:
		return []string{vv}
	default:
		return nil
	}
}
