package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRepository_Devices(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveDevice(ctx, testDevice("d-2", "pump")))
	require.NoError(t, repo.SaveDevice(ctx, testDevice("d-1", "boiler")))

	devices, err := repo.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "boiler", devices[0].Name)
	assert.Equal(t, "pump", devices[1].Name)
	assert.Equal(t, "502", devices[0].Protocols["modbus"]["Port"])

	t.Run("update replaces document", func(t *testing.T) {
		d := testDevice("d-1", "boiler")
		d.Description = "basement"
		require.NoError(t, repo.SaveDevice(ctx, d))

		devices, err := repo.ListDevices(ctx)
		require.NoError(t, err)
		require.Len(t, devices, 2)
		assert.Equal(t, "basement", devices[0].Description)
	})

	t.Run("recreated under new id replaces stale row", func(t *testing.T) {
		require.NoError(t, repo.SaveDevice(ctx, testDevice("d-3", "pump")))

		devices, err := repo.ListDevices(ctx)
		require.NoError(t, err)
		require.Len(t, devices, 2)
		assert.Equal(t, "d-3", devices[1].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteDevice(ctx, "d-3"))
		assert.ErrorIs(t, repo.DeleteDevice(ctx, "d-3"), ErrDeviceNotFound)
	})

	t.Run("rejects missing id", func(t *testing.T) {
		assert.ErrorIs(t, repo.SaveDevice(ctx, testDevice("", "nameless")), ErrInvalidResource)
	})
}

func TestSQLiteRepository_Profiles(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveProfile(ctx, testProfile("p-1", "thermostat")))

	profiles, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	res, ok := profiles[0].Resource("Temperature")
	require.True(t, ok)
	assert.Equal(t, "0.1", res.Properties.Scale)

	// Renaming keeps one row per ID.
	require.NoError(t, repo.SaveProfile(ctx, testProfile("p-1", "thermostat-v2")))
	profiles, err = repo.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "thermostat-v2", profiles[0].Name)

	assert.ErrorIs(t, repo.SaveProfile(ctx, testProfile("p-2", "")), ErrInvalidResource)
}

func TestSQLiteRepository_Watchers(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	w := testWatcher("w-1", "lan-sweep")
	w.BlockingIdentifiers = map[string][]string{"Address": {"10.0.0.1"}}
	require.NoError(t, repo.SaveWatcher(ctx, w))

	watchers, err := repo.ListWatchers(ctx)
	require.NoError(t, err)
	require.Len(t, watchers, 1)
	assert.Equal(t, []string{"10.0.0.1"}, watchers[0].BlockingIdentifiers["Address"])

	require.NoError(t, repo.DeleteWatcher(ctx, "w-1"))
	assert.ErrorIs(t, repo.DeleteWatcher(ctx, "w-1"), ErrWatcherNotFound)

	watchers, err = repo.ListWatchers(ctx)
	require.NoError(t, err)
	assert.Empty(t, watchers)
}
