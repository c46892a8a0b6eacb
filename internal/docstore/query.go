package docstore

// Query method names, matching the remote service's query language.
const (
	MethodEqual    = "equal"
	MethodContains = "contains"
	MethodOr       = "or"
	MethodLimit    = "limit"
)

// Query is one filter predicate in a document listing. Queries are built
// with the constructor functions below and serialized by each adapter.
type Query struct {
	Method    string
	Attribute string
	Values    []any
	Nested    []Query // populated for MethodOr
}

// Equal matches documents whose attribute equals any of the given values.
func Equal(attribute string, values ...string) Query {
	q := Query{Method: MethodEqual, Attribute: attribute}
	for _, v := range values {
		q.Values = append(q.Values, v)
	}
	return q
}

// Contains matches documents whose array attribute contains the value.
func Contains(attribute string, value string) Query {
	return Query{Method: MethodContains, Attribute: attribute, Values: []any{value}}
}

// Or matches documents satisfying any of the nested queries.
func Or(queries ...Query) Query {
	return Query{Method: MethodOr, Nested: queries}
}

// Limit caps the number of documents returned.
func Limit(n int) Query {
	return Query{Method: MethodLimit, Values: []any{n}}
}

// LimitOf extracts the limit from a query list, returning fallback when no
// limit query is present.
func LimitOf(queries []Query, fallback int) int {
	for _, q := range queries {
		if q.Method == MethodLimit && len(q.Values) == 1 {
			if n, ok := q.Values[0].(int); ok {
				return n
			}
		}
	}
	return fallback
}
