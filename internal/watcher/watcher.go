// Package watcher runs the fetch, parse, detect, persist and notify cycle
// on a fixed interval.
package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/exposure-watch/internal/diff"
	"github.com/jonesrussell/exposure-watch/internal/fetcher"
	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/jonesrussell/exposure-watch/internal/metrics"
	"github.com/jonesrussell/exposure-watch/internal/notifier"
	"github.com/jonesrussell/exposure-watch/internal/parser"
	"github.com/jonesrussell/exposure-watch/internal/record"
	"github.com/jonesrussell/exposure-watch/internal/snapshot"
)

// DefaultInterval is the time between check starts.
const DefaultInterval = 5 * time.Minute

// PageParser extracts records from a fetched page.
type PageParser interface {
	Parse(ctx context.Context, r io.Reader) (*parser.Result, error)
}

// Deps are the collaborators of a Watcher. Metrics may be nil.
type Deps struct {
	Fetcher  fetcher.Fetcher
	Parser   PageParser
	Store    snapshot.Store
	Notifier notifier.Notifier
	Logger   logger.Logger
	Metrics  *metrics.Metrics
}

// Options configures a Watcher.
type Options struct {
	URL      string
	Interval time.Duration
	Clock    Clock
	// DryRun detects new records without saving or notifying.
	DryRun bool
}

// CycleResult describes one check cycle.
type CycleResult struct {
	Outcome   Outcome
	StartedAt time.Time
	Duration  time.Duration
	Parsed    int
	RowErrors int
	New       []record.Record
	Removed   int
	// Err is the fetch or parse error that ended the cycle early.
	Err error
	// SaveErr and NotifyErr report failures after a change was detected.
	SaveErr   error
	NotifyErr error
}

// Watcher owns the in-memory snapshot. Init, Run and RunOnce must be
// called from a single goroutine; Status may be called from any.
type Watcher struct {
	deps  Deps
	opts  Options
	log   logger.Logger
	clock Clock

	snapshot    record.Set
	validators  fetcher.Validators
	initialized bool

	status atomic.Pointer[Status]
}

// New creates a Watcher.
func New(deps Deps, opts Options) (*Watcher, error) {
	if deps.Fetcher == nil || deps.Parser == nil || deps.Store == nil || deps.Notifier == nil {
		return nil, errors.New("watcher: fetcher, parser, store and notifier are required")
	}
	if opts.URL == "" {
		return nil, errors.New("watcher: url is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}

	w := &Watcher{
		deps:     deps,
		opts:     opts,
		log:      deps.Logger.With(logger.Component("watcher"), logger.String("url", opts.URL)),
		clock:    opts.Clock,
		snapshot: record.NewSet(),
	}
	w.status.Store(&Status{State: StateIdle, URL: opts.URL, Interval: opts.Interval})

	return w, nil
}

// Status returns the latest published status.
func (w *Watcher) Status() Status {
	return *w.status.Load()
}

// Init seeds the in-memory snapshot from the store. An unreadable
// snapshot is treated as empty so the watcher can still start; records
// already announced may then be announced again.
func (w *Watcher) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	records, err := w.deps.Store.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		w.log.Error("Snapshot unreadable, starting empty; records may be re-notified", logger.Error(err))
		records = nil
	}

	w.snapshot = record.NewSet(records...)
	w.initialized = true
	w.deps.Metrics.SetSnapshotRecords(w.snapshot.Len())
	w.publish(func(s *Status) { s.SnapshotSize = w.snapshot.Len() })

	w.log.Info("Snapshot loaded", logger.Int("records", w.snapshot.Len()))
	return nil
}

// Run checks immediately, then keeps checking so that consecutive check
// starts are Interval apart, until ctx is cancelled. Cancellation is a
// normal stop and returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.initialized {
		if err := w.Init(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}

	w.log.Info("Watcher started", logger.Duration("interval", w.opts.Interval))

	for {
		result := w.RunOnce(ctx)
		if ctx.Err() != nil {
			break
		}

		delay := NextDelay(w.opts.Interval, result.Duration)
		next := w.clock.Now().Add(delay)
		w.publish(func(s *Status) { s.NextCheck = next })
		w.log.Debug("Next check scheduled", logger.Duration("delay", delay))

		select {
		case <-ctx.Done():
		case <-w.clock.After(delay):
		}
		if ctx.Err() != nil {
			break
		}
	}

	w.publish(func(s *Status) {
		s.State = StateIdle
		s.NextCheck = time.Time{}
	})
	w.log.Info("Watcher stopped")
	return nil
}

// RunOnce performs a single check cycle.
func (w *Watcher) RunOnce(ctx context.Context) CycleResult {
	result := CycleResult{StartedAt: w.clock.Now()}
	w.publish(func(s *Status) { s.State = StateChecking })

	w.log.Info("Checking site")
	w.check(ctx, &result)

	result.Duration = w.clock.Now().Sub(result.StartedAt)
	w.finish(result)

	return result
}

func (w *Watcher) check(ctx context.Context, result *CycleResult) {
	resp, err := w.deps.Fetcher.Fetch(ctx, w.opts.URL, w.validators)
	if err != nil {
		result.Outcome = OutcomeFetchFailed
		result.Err = err
		w.logFetchError(ctx, err)
		return
	}
	if resp.NotModified() {
		result.Outcome = OutcomeNotModified
		w.log.Info("Checked, page not modified")
		return
	}

	parsed, err := w.deps.Parser.Parse(ctx, bytes.NewReader(resp.Body))
	if err != nil {
		result.Outcome = OutcomeParseFailed
		result.Err = err
		w.log.Error("Failed to parse page", logger.Error(err))
		return
	}
	result.Parsed = len(parsed.Records)
	result.RowErrors = len(parsed.RowErrors)

	detected := diff.Detect(parsed.Records, w.snapshot)
	result.New = detected.New
	result.Removed = detected.Removed

	if !w.opts.DryRun {
		w.validators = resp.Validators()
	}

	if !detected.Changed {
		result.Outcome = OutcomeUnchanged
		w.log.Info("Checked, no new items", logger.Int("records", len(detected.Current)))
		return
	}
	result.Outcome = OutcomeChanged

	if w.opts.DryRun {
		w.log.Info("Dry run, not saving or notifying", logger.Int("new", len(detected.New)))
		return
	}

	w.snapshot = record.NewSet(detected.Current...)
	if saveErr := w.deps.Store.Save(ctx, detected.Current); saveErr != nil {
		result.SaveErr = saveErr
		w.deps.Metrics.RecordSnapshotSaveError()
		w.log.Error("Failed to save snapshot; new records may be re-notified after a restart",
			logger.Error(saveErr),
			logger.Int("records", len(detected.Current)),
		)
	}

	if detected.Removed > 0 {
		w.log.Info("Records removed from page", logger.Int("count", detected.Removed))
	}

	if len(detected.New) == 0 {
		return
	}

	w.log.Info("Downloaded new contact locations", logger.Int("count", len(detected.New)))
	if notifyErr := w.deps.Notifier.Notify(ctx, detected.New); notifyErr != nil {
		result.NotifyErr = notifyErr
		w.log.Error("Failed to notify some targets", logger.Error(notifyErr))
	}
}

func (w *Watcher) logFetchError(ctx context.Context, err error) {
	if ctx.Err() != nil {
		w.log.Debug("Fetch interrupted by shutdown", logger.Error(err))
		return
	}

	var fe *fetcher.FetchError
	if errors.As(err, &fe) && fe.Level == fetcher.LevelWarn {
		w.log.Warn("Failed to fetch page",
			logger.String("error_type", string(fe.Type)),
			logger.Int("status_code", fe.StatusCode),
			logger.Error(err),
		)
		return
	}

	w.log.Error("Failed to fetch page", logger.Error(err))
}

func (w *Watcher) finish(result CycleResult) {
	finishedAt := result.StartedAt.Add(result.Duration)

	w.deps.Metrics.RecordCheck(string(result.Outcome), result.Duration, finishedAt)
	w.deps.Metrics.RecordParse(len(result.New), result.RowErrors)
	w.deps.Metrics.SetSnapshotRecords(w.snapshot.Len())

	failed := result.Outcome == OutcomeFetchFailed || result.Outcome == OutcomeParseFailed
	w.publish(func(s *Status) {
		s.State = StateIdle
		s.LastOutcome = result.Outcome
		s.LastCheck = finishedAt
		s.LastDuration = result.Duration
		s.SnapshotSize = w.snapshot.Len()
		s.Checks++
		s.NewRecords += uint64(len(result.New))
		s.LastError = ""
		if failed {
			s.Failures++
		}
		if err := errors.Join(result.Err, result.SaveErr, result.NotifyErr); err != nil {
			s.LastError = err.Error()
		}
	})
}

// publish copies the current status, applies mutate and stores the copy.
// Only the watcher goroutine writes, so load-then-store does not race.
func (w *Watcher) publish(mutate func(*Status)) {
	next := *w.status.Load()
	mutate(&next)
	w.status.Store(&next)
}
