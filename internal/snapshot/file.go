package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jonesrussell/exposure-watch/internal/fileutil"
	"github.com/jonesrussell/exposure-watch/internal/record"
)

// DefaultPath is the default snapshot file location.
const DefaultPath = "data.json"

// snapshotFileMode is the permission used for new snapshot files.
const snapshotFileMode = 0o644

// FileStore keeps the snapshot in a single JSON file.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a FileStore for path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path, now: time.Now}
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the snapshot file. A missing file is an empty snapshot.
func (s *FileStore) Load(ctx context.Context) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	records, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", s.path, err)
	}

	return records, nil
}

// Save atomically replaces the snapshot file.
func (s *FileStore) Save(ctx context.Context, records []record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(records, s.now())
	if err != nil {
		return err
	}

	if err := fileutil.WriteAtomic(s.path, data, snapshotFileMode); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}
