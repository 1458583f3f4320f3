package common_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonesrussell/exposure-watch/cmd/common"
	"github.com/jonesrussell/exposure-watch/internal/config"
	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/jonesrussell/exposure-watch/internal/notifier"
	"github.com/jonesrussell/exposure-watch/internal/record"
	"github.com/jonesrussell/exposure-watch/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeps(t *testing.T) *common.CommandDeps {
	t.Helper()

	cfg := &config.Config{}
	cfg.Site.URL = "https://example.com/exposure-sites"
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "data.json")
	cfg.Targets.Path = filepath.Join(t.TempDir(), "servers.csv")
	cfg.SetDefaults()

	deps := &common.CommandDeps{Config: cfg, Logger: logger.NewNop()}
	t.Cleanup(deps.Close)
	return deps
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, (&common.CommandDeps{}).Validate(), common.ErrLoggerRequired)
	assert.ErrorIs(t, (&common.CommandDeps{Logger: logger.NewNop()}).Validate(), common.ErrConfigRequired)
	assert.NoError(t, newDeps(t).Validate())
}

func TestNewStoreFile(t *testing.T) {
	t.Parallel()

	deps := newDeps(t)
	store, err := deps.NewStore(context.Background())
	require.NoError(t, err)

	fs, ok := store.(*snapshot.FileStore)
	require.True(t, ok)
	assert.Equal(t, deps.Config.Snapshot.Path, fs.Path())
}

func TestNewStoreRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	deps := newDeps(t)
	deps.Config.Snapshot.Backend = config.BackendRedis
	deps.Config.Redis.Address = mr.Addr()

	ctx := context.Background()
	store, err := deps.NewStore(ctx)
	require.NoError(t, err)
	require.IsType(t, &snapshot.RedisStore{}, store)

	want := []record.Record{record.New("1 Jan", "10am", "North", "Cafe", "Casual")}
	require.NoError(t, store.Save(ctx, want))
	assert.True(t, mr.Exists(snapshot.DefaultRedisKey))
}

func TestRedisRequiresAddress(t *testing.T) {
	t.Parallel()

	deps := newDeps(t)
	deps.Config.Redis.Address = ""

	_, err := deps.Redis(context.Background())
	require.ErrorIs(t, err, common.ErrEmptyRedisAddress)
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	deps := newDeps(t)
	sender, err := deps.NewSender(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &notifier.LogSender{}, sender)

	mr := miniredis.RunT(t)
	deps.Config.Notify.Backend = config.BackendRedis
	deps.Config.Redis.Address = mr.Addr()

	sender, err = deps.NewSender(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &notifier.RedisSender{}, sender)
}

func TestNewWatcher(t *testing.T) {
	t.Parallel()

	deps := newDeps(t)
	w, err := deps.NewWatcher(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, deps.Config.Site.URL, w.Status().URL)
	assert.Equal(t, deps.Config.Check.Interval, w.Status().Interval)
}

func TestNewFetcherRejectsUnknownEngine(t *testing.T) {
	t.Parallel()

	deps := newDeps(t)
	deps.Config.Fetch.Engine = "carrier-pigeon"

	_, err := deps.NewFetcher()
	require.Error(t, err)
}
