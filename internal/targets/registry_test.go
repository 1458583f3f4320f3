package targets_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jonesrussell/exposure-watch/internal/notifier"
	"github.com/jonesrussell/exposure-watch/internal/targets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	one = notifier.Target{GroupID: "803645938391498763", ChannelID: "803645938391498766"}
	two = notifier.Target{GroupID: "803645938391498763", ChannelID: "900000000000000001"}
)

func newRegistry(t *testing.T) *targets.Registry {
	t.Helper()
	return targets.NewRegistry(filepath.Join(t.TempDir(), "servers.csv"), nil)
}

func TestRegistry_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	list, err := newRegistry(t).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegistry_AddListRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := newRegistry(t)

	require.NoError(t, reg.Add(ctx, one))
	require.NoError(t, reg.Add(ctx, two))

	list, err := reg.Targets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []notifier.Target{one, two}, list)

	ok, err := reg.Contains(ctx, two)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, reg.Remove(ctx, one))
	list, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []notifier.Target{two}, list)
}

func TestRegistry_AddExisting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := newRegistry(t)

	require.NoError(t, reg.Add(ctx, one))
	err := reg.Add(ctx, one)
	require.ErrorIs(t, err, targets.ErrTargetExists)

	list, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRegistry_RemoveUnknown(t *testing.T) {
	t.Parallel()

	err := newRegistry(t).Remove(context.Background(), one)
	require.ErrorIs(t, err, targets.ErrTargetNotFound)
}

func TestRegistry_AddInvalid(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	for _, bad := range []notifier.Target{
		{GroupID: "", ChannelID: "1"},
		{GroupID: "1", ChannelID: "  "},
		{GroupID: "1,2", ChannelID: "3"},
		{GroupID: "1", ChannelID: "3 "},
		{GroupID: " 1", ChannelID: "3"},
	} {
		require.ErrorIs(t, reg.Add(context.Background(), bad), targets.ErrInvalidTarget)
	}
}

func TestRegistry_TargetsWithSameKeyAreDistinct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := newRegistry(t)
	slashGroup := notifier.Target{GroupID: "a/b", ChannelID: "c"}
	slashChannel := notifier.Target{GroupID: "a", ChannelID: "b/c"}

	require.NoError(t, reg.Add(ctx, slashGroup))
	require.NoError(t, reg.Add(ctx, slashChannel))

	list, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []notifier.Target{slashGroup, slashChannel}, list)

	require.NoError(t, reg.Remove(ctx, slashChannel))
	list, err = reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []notifier.Target{slashGroup}, list)
}

func TestRegistry_ReadsLegacyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "servers.csv")
	content := "803645938391498763,803645938391498766\n\nbroken-line\n" +
		"803645938391498763, 900000000000000001\n803645938391498763,803645938391498766\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	list, err := targets.NewRegistry(path, nil).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []notifier.Target{one, two}, list)
}

func TestRegistry_FileFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "servers.csv")
	reg := targets.NewRegistry(path, nil)
	require.NoError(t, reg.Add(context.Background(), one))
	require.NoError(t, reg.Add(context.Background(), two))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "803645938391498763,803645938391498766\n803645938391498763,900000000000000001\n", string(data))
}

func TestRegistry_SeesExternalEdits(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "servers.csv")
	watcherView := targets.NewRegistry(path, nil)
	cliView := targets.NewRegistry(path, nil)

	require.NoError(t, cliView.Add(context.Background(), one))

	list, err := watcherView.Targets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []notifier.Target{one}, list)
}

func TestRegistry_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.Add(ctx, notifier.Target{GroupID: "g", ChannelID: string(rune('a' + i))})
		}()
	}
	wg.Wait()

	list, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 10)
}
