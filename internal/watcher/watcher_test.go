package watcher_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonesrussell/exposure-watch/internal/fetcher"
	"github.com/jonesrussell/exposure-watch/internal/parser"
	"github.com/jonesrussell/exposure-watch/internal/record"
	"github.com/jonesrussell/exposure-watch/internal/snapshot"
	"github.com/jonesrussell/exposure-watch/internal/watcher"
	snapshotMock "github.com/jonesrussell/exposure-watch/testutils/mocks/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRunOnce_FirstCheckNotifiesAllAndPersists(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.watcher(t, watcher.Options{})

	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, fetcher.Validators{}).Return(ok(page(cafe, library, cafe)), nil)
	f.notifier.EXPECT().Notify(gomock.Any(), []record.Record{cafe, library}).Return(nil)

	res := w.RunOnce(context.Background())

	assert.Equal(t, watcher.OutcomeChanged, res.Outcome)
	assert.Equal(t, 3, res.Parsed)
	assert.Equal(t, []record.Record{cafe, library}, res.New)
	require.NoError(t, res.Err)

	saved, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []record.Record{cafe, library}, saved)

	status := w.Status()
	assert.Equal(t, watcher.StateIdle, status.State)
	assert.Equal(t, watcher.OutcomeChanged, status.LastOutcome)
	assert.Equal(t, 2, status.SnapshotSize)
	assert.Equal(t, uint64(1), status.Checks)
	assert.Equal(t, uint64(2), status.NewRecords)
}

func TestRunOnce_NoRenotifyAfterRestart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), []record.Record{cafe, library}))
	w := f.watcher(t, watcher.Options{})

	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(ok(page(library, cafe)), nil)

	res := w.RunOnce(context.Background())

	assert.Equal(t, watcher.OutcomeUnchanged, res.Outcome)
	assert.Empty(t, res.New)
}

func TestRunOnce_ContactStatusChangeIsNew(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), []record.Record{cafe}))
	w := f.watcher(t, watcher.Options{})

	upgraded := record.New(cafe.Date, cafe.Time, cafe.Campus, cafe.Location, "Close")
	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(ok(page(upgraded)), nil)
	f.notifier.EXPECT().Notify(gomock.Any(), []record.Record{upgraded}).Return(nil)

	res := w.RunOnce(context.Background())
	assert.Equal(t, watcher.OutcomeChanged, res.Outcome)
	assert.Equal(t, 1, res.Removed)
}

func TestRunOnce_RemovalOnlySavesWithoutNotify(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), []record.Record{cafe, library}))
	w := f.watcher(t, watcher.Options{})

	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(ok(page(cafe)), nil)

	res := w.RunOnce(context.Background())
	assert.Equal(t, watcher.OutcomeChanged, res.Outcome)
	assert.Empty(t, res.New)

	saved, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []record.Record{cafe}, saved)
}

func TestRunOnce_FetchFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	store := snapshotMock.NewMockStore(f.ctrl)
	store.EXPECT().Load(gomock.Any()).Return([]record.Record{cafe}, nil)
	f.store = store
	w := f.watcher(t, watcher.Options{})

	fetchErr := fetcher.ClassifyHTTPStatus(http.StatusServiceUnavailable, siteURL)
	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(nil, fetchErr)

	res := w.RunOnce(context.Background())

	assert.Equal(t, watcher.OutcomeFetchFailed, res.Outcome)
	require.ErrorIs(t, res.Err, fetchErr)
	assert.Equal(t, 1, w.Status().SnapshotSize)
	assert.Equal(t, uint64(1), w.Status().Failures)
	assert.NotEmpty(t, w.Status().LastError)
}

func TestRunOnce_ParseFailureSkipsCycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.watcher(t, watcher.Options{})

	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).
		Return(ok([]byte("<html><body><p>maintenance</p></body></html>")), nil)

	res := w.RunOnce(context.Background())

	assert.Equal(t, watcher.OutcomeParseFailed, res.Outcome)
	require.ErrorIs(t, res.Err, parser.ErrTableNotFound)

	saved, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestRunOnce_MalformedRowsAreCounted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.watcher(t, watcher.Options{})

	body := []byte(`<table id="table_1"><tbody>` +
		`<tr><td>1 Jan</td><td>10am</td><td>North</td><td>Cafe</td><td>Casual</td></tr>` +
		`<tr><td>short</td></tr>` +
		`</tbody></table>`)
	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(ok(body), nil)
	f.notifier.EXPECT().Notify(gomock.Any(), []record.Record{cafe}).Return(nil)

	res := w.RunOnce(context.Background())
	assert.Equal(t, watcher.OutcomeChanged, res.Outcome)
	assert.Equal(t, 1, res.RowErrors)
}

func TestRunOnce_ConditionalFetch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.watcher(t, watcher.Options{})

	first := ok(page(cafe))
	first.ETag = `"v1"`
	first.LastModified = "Wed, 01 Sep 2021 08:00:00 GMT"

	gomock.InOrder(
		f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, fetcher.Validators{}).Return(first, nil),
		f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, first.Validators()).
			Return(&fetcher.Response{StatusCode: http.StatusNotModified}, nil),
	)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)

	assert.Equal(t, watcher.OutcomeChanged, w.RunOnce(context.Background()).Outcome)
	assert.Equal(t, watcher.OutcomeNotModified, w.RunOnce(context.Background()).Outcome)
}

func TestRunOnce_PersistsBeforeNotify(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	store := snapshotMock.NewMockStore(f.ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil, nil)
	f.store = store
	w := f.watcher(t, watcher.Options{})

	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(ok(page(gym)), nil)
	gomock.InOrder(
		store.EXPECT().Save(gomock.Any(), []record.Record{gym}).Return(nil),
		f.notifier.EXPECT().Notify(gomock.Any(), []record.Record{gym}).Return(nil),
	)

	assert.Equal(t, watcher.OutcomeChanged, w.RunOnce(context.Background()).Outcome)
}

func TestRunOnce_SaveFailureStillNotifiesAndKeepsMemory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	store := snapshotMock.NewMockStore(f.ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil, nil)
	f.store = store
	w := f.watcher(t, watcher.Options{})

	diskFull := errors.New("no space left on device")
	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(ok(page(cafe)), nil).Times(2)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(diskFull)
	f.notifier.EXPECT().Notify(gomock.Any(), []record.Record{cafe}).Return(nil).Times(1)

	first := w.RunOnce(context.Background())
	assert.Equal(t, watcher.OutcomeChanged, first.Outcome)
	require.ErrorIs(t, first.SaveErr, diskFull)

	second := w.RunOnce(context.Background())
	assert.Equal(t, watcher.OutcomeUnchanged, second.Outcome)
}

func TestRunOnce_NotifyErrorIsReported(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.watcher(t, watcher.Options{})

	notifyErr := errors.New("target 1/2: unreachable")
	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(ok(page(cafe)), nil)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(notifyErr)

	res := w.RunOnce(context.Background())
	assert.Equal(t, watcher.OutcomeChanged, res.Outcome)
	require.ErrorIs(t, res.NotifyErr, notifyErr)
	assert.Equal(t, 1, w.Status().SnapshotSize)
}

func TestRunOnce_DryRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	store := snapshotMock.NewMockStore(f.ctrl)
	store.EXPECT().Load(gomock.Any()).Return([]record.Record{cafe}, nil)
	f.store = store
	w := f.watcher(t, watcher.Options{DryRun: true})

	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(ok(page(cafe, gym)), nil)

	res := w.RunOnce(context.Background())
	assert.Equal(t, watcher.OutcomeChanged, res.Outcome)
	assert.Equal(t, []record.Record{gym}, res.New)
}

func TestInit_CorruptSnapshotStartsEmpty(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	f.store = snapshot.NewFileStore(path)
	w := f.watcher(t, watcher.Options{})

	assert.Equal(t, 0, w.Status().SnapshotSize)

	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(ok(page(cafe)), nil)
	f.notifier.EXPECT().Notify(gomock.Any(), []record.Record{cafe}).Return(nil)
	assert.Equal(t, watcher.OutcomeChanged, w.RunOnce(context.Background()).Outcome)
}

func TestRun_DriftCompensation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.watcher(t, watcher.Options{Interval: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.clock.onAfter = func(calls int) {
		if calls == 3 {
			cancel()
		}
	}

	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).
		DoAndReturn(func(context.Context, string, fetcher.Validators) (*fetcher.Response, error) {
			f.clock.Advance(10 * time.Second)
			return ok(page(cafe)), nil
		}).Times(3)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, w.Run(ctx))

	assert.Equal(t, []time.Duration{50 * time.Second, 50 * time.Second, 50 * time.Second}, f.clock.Waits())
	assert.Equal(t, watcher.StateIdle, w.Status().State)
	assert.Equal(t, uint64(3), w.Status().Checks)
}

func TestRun_SlowCycleStartsNextImmediately(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.watcher(t, watcher.Options{Interval: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.clock.onAfter = func(int) { cancel() }

	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).
		DoAndReturn(func(context.Context, string, fetcher.Validators) (*fetcher.Response, error) {
			f.clock.Advance(90 * time.Second)
			return nil, fetcher.ClassifyNetworkError(context.DeadlineExceeded, siteURL)
		})

	require.NoError(t, w.Run(ctx))
	assert.Equal(t, []time.Duration{0}, f.clock.Waits())
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.watcher(t, watcher.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.fetcher.EXPECT().Fetch(gomock.Any(), siteURL, gomock.Any()).Return(nil, context.Canceled)

	require.NoError(t, w.Run(ctx))
	assert.Empty(t, f.clock.Waits())
}

func TestNextDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		interval, elapsed, want time.Duration
	}{
		{time.Minute, 0, time.Minute},
		{time.Minute, 10 * time.Second, 50 * time.Second},
		{time.Minute, time.Minute, 0},
		{time.Minute, 2 * time.Minute, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, watcher.NextDelay(tt.interval, tt.elapsed))
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	deps := watcher.Deps{
		Fetcher:  f.fetcher,
		Parser:   parser.New(parser.Options{}),
		Store:    f.store,
		Notifier: f.notifier,
	}

	_, err := watcher.New(deps, watcher.Options{})
	require.Error(t, err)

	deps.Notifier = nil
	_, err = watcher.New(deps, watcher.Options{URL: siteURL})
	require.Error(t, err)

	deps.Notifier = f.notifier
	w, err := watcher.New(deps, watcher.Options{URL: siteURL})
	require.NoError(t, err)
	assert.Equal(t, watcher.DefaultInterval, w.Status().Interval)
	assert.Equal(t, watcher.StateIdle, w.Status().State)
}
