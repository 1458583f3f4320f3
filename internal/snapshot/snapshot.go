// Package snapshot persists the last known full set of exposure records.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/exposure-watch/internal/record"
)

// formatVersion is written into every snapshot document.
const formatVersion = 1

// ErrCorrupt is returned when a snapshot exists but cannot be decoded.
var ErrCorrupt = errors.New("snapshot corrupt")

//go:generate mockgen -destination=../../testutils/mocks/snapshot/snapshot.go -package=snapshot github.com/jonesrussell/exposure-watch/internal/snapshot Store

// Store loads and replaces the persisted snapshot.
type Store interface {
	// Load returns the persisted records. A missing snapshot yields
	// (nil, nil); an unreadable one yields an error wrapping ErrCorrupt.
	Load(ctx context.Context) ([]record.Record, error)
	// Save replaces the persisted snapshot with records.
	Save(ctx context.Context, records []record.Record) error
}

// document is the serialized snapshot.
type document struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Records []record.Record `json:"records"`
}

func encode(records []record.Record, now time.Time) ([]byte, error) {
	if records == nil {
		records = []record.Record{}
	}

	data, err := json.MarshalIndent(document{
		Version: formatVersion,
		SavedAt: now.UTC(),
		Records: records,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	return data, nil
}

func decode(data []byte) ([]record.Record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCorrupt)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	if doc.Records == nil {
		return nil, fmt.Errorf("%w: missing records", ErrCorrupt)
	}

	return doc.Records, nil
}
