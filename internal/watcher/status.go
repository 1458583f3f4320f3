package watcher

import "time"

// State is the scheduler state.
type State string

const (
	StateIdle     State = "idle"
	StateChecking State = "checking"
)

// Outcome is the result class of one check cycle.
type Outcome string

const (
	OutcomeFetchFailed Outcome = "fetch_failed"
	OutcomeNotModified Outcome = "not_modified"
	OutcomeParseFailed Outcome = "parse_failed"
	OutcomeChanged     Outcome = "changed"
	OutcomeUnchanged   Outcome = "unchanged"
)

// Status is an immutable view of the watcher, safe to read from any goroutine.
type Status struct {
	State        State         `json:"state"`
	URL          string        `json:"url"`
	Interval     time.Duration `json:"interval"`
	LastOutcome  Outcome       `json:"last_outcome,omitempty"`
	LastCheck    time.Time     `json:"last_check,omitzero"`
	LastDuration time.Duration `json:"last_duration"`
	NextCheck    time.Time     `json:"next_check,omitzero"`
	LastError    string        `json:"last_error,omitempty"`
	SnapshotSize int           `json:"snapshot_size"`
	Checks       uint64        `json:"checks"`
	Failures     uint64        `json:"failures"`
	NewRecords   uint64        `json:"new_records"`
}
