// Package diff compares a freshly parsed listing against the last snapshot.
package diff

import "github.com/jonesrussell/exposure-watch/internal/record"

// Result is the outcome of comparing a parse against the previous snapshot.
type Result struct {
	// New holds records absent from the previous snapshot, de-duplicated,
	// in the order first seen in the current parse.
	New []record.Record
	// Current is the de-duplicated current parse. It replaces the snapshot
	// when Changed is true.
	Current []record.Record
	// Removed counts previous records missing from the current parse.
	Removed int
	// Changed is true when the current set differs from the previous set.
	Changed bool
}

// Detect computes the records in current that are not in previous.
// Records compare on all five fields, so a site whose contact status
// changed is reported as new.
func Detect(current []record.Record, previous record.Set) Result {
	deduped := record.Dedupe(current)

	res := Result{
		New:     make([]record.Record, 0),
		Current: deduped,
	}

	for _, r := range deduped {
		if !previous.Has(r) {
			res.New = append(res.New, r)
		}
	}

	// Every current record is either new or already in previous, so the
	// previous records still present number len(deduped) - len(New).
	res.Removed = previous.Len() - (len(deduped) - len(res.New))
	res.Changed = len(res.New) > 0 || res.Removed > 0

	return res
}
