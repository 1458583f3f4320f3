// Package targets stores the notification targets in a CSV file with one
// "group,channel" line per target.
package targets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/jonesrussell/exposure-watch/internal/fileutil"
	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/jonesrussell/exposure-watch/internal/notifier"
)

// DefaultPath is the default registry file.
const DefaultPath = "servers.csv"

const registryFileMode = 0o644

var (
	// ErrTargetExists is returned by Add when the target is already registered.
	ErrTargetExists = errors.New("target is already in the list")
	// ErrTargetNotFound is returned by Remove when the target is not registered.
	ErrTargetNotFound = errors.New("target isn't currently in the list")
	// ErrInvalidTarget is returned for targets with an empty, padded or
	// comma-bearing id.
	ErrInvalidTarget = errors.New("invalid target")
)

// Registry is a file-backed set of targets. The file is re-read on every
// call so that edits made by another process (the targets CLI) reach a
// running watcher without a restart.
type Registry struct {
	path string
	log  logger.Logger
	mu   sync.Mutex
}

// NewRegistry creates a Registry for path.
func NewRegistry(path string, log logger.Logger) *Registry {
	if path == "" {
		path = DefaultPath
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{path: path, log: log.With(logger.Component("targets"))}
}

// Path returns the registry file path.
func (r *Registry) Path() string {
	return r.path
}

// Targets implements notifier.TargetSource.
func (r *Registry) Targets(ctx context.Context) ([]notifier.Target, error) {
	return r.List(ctx)
}

// List returns the registered targets in file order. A missing file is an
// empty registry.
func (r *Registry) List(ctx context.Context) ([]notifier.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

// Contains reports whether target is registered.
func (r *Registry) Contains(ctx context.Context, target notifier.Target) (bool, error) {
	list, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(list, target) >= 0, nil
}

// Add registers target. It returns ErrTargetExists if already present.
func (r *Registry) Add(ctx context.Context, target notifier.Target) error {
	if err := validate(target); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load()
	if err != nil {
		return err
	}
	if indexOf(list, target) >= 0 {
		return fmt.Errorf("%s: %w", target.Key(), ErrTargetExists)
	}

	return r.save(append(list, target))
}

// Remove unregisters target. It returns ErrTargetNotFound if absent.
func (r *Registry) Remove(ctx context.Context, target notifier.Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load()
	if err != nil {
		return err
	}

	i := indexOf(list, target)
	if i < 0 {
		return fmt.Errorf("%s: %w", target.Key(), ErrTargetNotFound)
	}

	return r.save(append(list[:i], list[i+1:]...))
}

func (r *Registry) load() ([]notifier.Target, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []notifier.Target{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read targets %s: %w", r.path, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	list := []notifier.Target{}
	for {
		fields, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("parse targets %s: %w", r.path, readErr)
		}

		line, _ := reader.FieldPos(0)
		target, ok := targetFromFields(fields)
		if !ok {
			r.log.Warn("Skipping malformed target line",
				logger.String("path", r.path),
				logger.Int("line", line),
				logger.Strings("fields", fields),
			)
			continue
		}
		if indexOf(list, target) >= 0 {
			continue
		}
		list = append(list, target)
	}

	return list, nil
}

func (r *Registry) save(list []notifier.Target) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, t := range list {
		if err := w.Write([]string{t.GroupID, t.ChannelID}); err != nil {
			return fmt.Errorf("encode targets: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode targets: %w", err)
	}

	if err := fileutil.WriteAtomic(r.path, buf.Bytes(), registryFileMode); err != nil {
		return fmt.Errorf("save targets: %w", err)
	}

	return nil
}

func targetFromFields(fields []string) (notifier.Target, bool) {
	if len(fields) != 2 {
		return notifier.Target{}, false
	}

	t := notifier.Target{
		GroupID:   strings.TrimSpace(fields[0]),
		ChannelID: strings.TrimSpace(fields[1]),
	}
	if t.GroupID == "" || t.ChannelID == "" {
		return notifier.Target{}, false
	}

	return t, true
}

func validate(t notifier.Target) error {
	for _, id := range []string{t.GroupID, t.ChannelID} {
		if id == "" || id != strings.TrimSpace(id) || strings.ContainsAny(id, ",\r\n") {
			return fmt.Errorf("%w: %q", ErrInvalidTarget, t.Key())
		}
	}
	return nil
}

func indexOf(list []notifier.Target, target notifier.Target) int {
	for i, t := range list {
		if t == target {
			return i
		}
	}
	return -1
}
