package types

// FilterAll is the sentinel value that matches every customer; an empty
// predicate behaves the same way.
const FilterAll = "all"

// ViewFilter is the predicate set for derived-view recomputation. A zero
// value matches every scored customer.
type ViewFilter struct {
	// Segment restricts to one segment label
	Segment string `json:"segment,omitempty"`

	// CustomerType restricts to one customer type
	CustomerType string `json:"customer_type,omitempty"`
}

// IsZero reports whether no predicate is active.
func (f ViewFilter) IsZero() bool {
	return !active(f.Segment) && !active(f.CustomerType)
}

// Matches reports whether the customer satisfies all active predicates.
// The segment predicate only ever matches scored customers.
func (f ViewFilter) Matches(c *CustomerSummary) bool {
	if active(f.Segment) {
		if c.Scores == nil || c.Scores.Segment != f.Segment {
			return false
		}
	}
	if active(f.CustomerType) && c.CustomerType != f.CustomerType {
		return false
	}
	return true
}

func active(v string) bool {
	return v != "" && v != FilterAll
}
