// Package notifier delivers newly detected exposure records to every
// registered notification target.
package notifier

import (
	"context"

	"github.com/jonesrussell/exposure-watch/internal/record"
)

//go:generate mockgen -destination=../../testutils/mocks/notifier/notifier.go -package=notifier github.com/jonesrussell/exposure-watch/internal/notifier Notifier,TargetSource,Sender

// Target is an opaque (group, channel) notification destination.
type Target struct {
	GroupID   string `json:"group_id"`
	ChannelID string `json:"channel_id"`
}

// Key returns the compound identity of the target.
func (t Target) Key() string {
	return t.GroupID + "/" + t.ChannelID
}

// String implements fmt.Stringer.
func (t Target) String() string {
	return t.Key()
}

// Notifier receives the new records found by a check, in detection order.
type Notifier interface {
	Notify(ctx context.Context, records []record.Record) error
}

// TargetSource lists the current notification targets.
type TargetSource interface {
	Targets(ctx context.Context) ([]Target, error)
}

// Sender delivers one record to one target.
type Sender interface {
	Send(ctx context.Context, target Target, r record.Record) error
}
