package watcher_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonesrussell/exposure-watch/internal/fetcher"
	"github.com/jonesrussell/exposure-watch/internal/parser"
	"github.com/jonesrussell/exposure-watch/internal/record"
	"github.com/jonesrussell/exposure-watch/internal/snapshot"
	"github.com/jonesrussell/exposure-watch/internal/watcher"
	fetcherMock "github.com/jonesrussell/exposure-watch/testutils/mocks/fetcher"
	notifierMock "github.com/jonesrussell/exposure-watch/testutils/mocks/notifier"
	"go.uber.org/mock/gomock"
)

const siteURL = "https://example.test/exposure-sites"

var (
	cafe    = record.New("1 Jan", "10am", "North", "Cafe", record.CasualContact)
	library = record.New("2 Jan", "11am", "South", "Library", "Close")
	gym     = record.New("3 Jan", "noon", "East", "Gym", record.CasualContact)
)

// fakeClock advances only when told to. After records the requested
// delay, advances by it and fires immediately.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waits   []time.Duration
	onAfter func(calls int)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2021, 9, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.now = c.now.Add(d)
	calls := len(c.waits)
	fired := c.now
	hook := c.onAfter
	c.mu.Unlock()

	if hook != nil {
		hook(calls)
	}

	ch := make(chan time.Time, 1)
	ch <- fired
	return ch
}

func (c *fakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

func page(records ...record.Record) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><table id="table_1"><thead><tr><th>Date</th></tr></thead><tbody>`)
	for _, r := range records {
		b.WriteString("<tr>")
		for _, cell := range []string{r.Date, r.Time, r.Campus, r.Location, r.ContactStatus} {
			b.WriteString("<td>" + cell + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table></body></html>")
	return []byte(b.String())
}

func ok(body []byte) *fetcher.Response {
	return &fetcher.Response{StatusCode: http.StatusOK, Body: body}
}

type fixture struct {
	ctrl     *gomock.Controller
	fetcher  *fetcherMock.MockFetcher
	notifier *notifierMock.MockNotifier
	store    snapshot.Store
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	return &fixture{
		ctrl:     ctrl,
		fetcher:  fetcherMock.NewMockFetcher(ctrl),
		notifier: notifierMock.NewMockNotifier(ctrl),
		store:    snapshot.NewFileStore(t.TempDir() + "/data.json"),
		clock:    newFakeClock(),
	}
}

func (f *fixture) watcher(t *testing.T, opts watcher.Options) *watcher.Watcher {
	t.Helper()

	if opts.URL == "" {
		opts.URL = siteURL
	}
	if opts.Interval == 0 {
		opts.Interval = time.Minute
	}
	opts.Clock = f.clock

	w, err := watcher.New(watcher.Deps{
		Fetcher:  f.fetcher,
		Parser:   parser.New(parser.Options{}),
		Store:    f.store,
		Notifier: f.notifier,
	}, opts)
	if err != nil {
		t.Fatalf("watcher.New: %v", err)
	}
	if initErr := w.Init(context.Background()); initErr != nil {
		t.Fatalf("Init: %v", initErr)
	}

	return w
}
