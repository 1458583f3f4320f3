package record

// Set is an unordered collection of records keyed by value.
type Set map[Record]struct{}

// NewSet builds a Set from records; duplicates collapse.
func NewSet(records ...Record) Set {
	s := make(Set, len(records))
	for _, r := range records {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether r is in the set.
func (s Set) Has(r Record) bool {
	_, ok := s[r]
	return ok
}

// Len returns the number of records in the set.
func (s Set) Len() int {
	return len(s)
}

// Equal reports whether both sets hold exactly the same records.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if !other.Has(r) {
			return false
		}
	}
	return true
}

// Dedupe returns records with later duplicates dropped, keeping first-seen order.
func Dedupe(records []Record) []Record {
	seen := make(Set, len(records))
	out := make([]Record, 0, len(records))

	for _, r := range records {
		if seen.Has(r) {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}

	return out
}
