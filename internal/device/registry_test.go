package device

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RefreshCache(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveDevice(ctx, testDevice("d-1", "boiler")))
	require.NoError(t, repo.SaveProfile(ctx, testProfile("p-1", "thermostat")))
	require.NoError(t, repo.SaveWatcher(ctx, testWatcher("w-1", "lan-sweep")))

	reg := NewRegistry(repo)
	require.NoError(t, reg.RefreshCache(ctx))

	d, err := reg.Device("d-1")
	require.NoError(t, err)
	assert.Equal(t, "boiler", d.Name)

	_, err = reg.Profile("thermostat")
	require.NoError(t, err)

	_, err = reg.Watcher("w-1")
	require.NoError(t, err)
}

func TestRegistry_Devices(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(openTestRepo(t))

	require.NoError(t, reg.PutDevice(ctx, testDevice("d-2", "pump")))
	require.NoError(t, reg.PutDevice(ctx, testDevice("d-1", "boiler")))

	devices := reg.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, "boiler", devices[0].Name)

	d, err := reg.DeviceByName("pump")
	require.NoError(t, err)
	assert.Equal(t, "d-2", d.ID)

	_, err = reg.DeviceByName("missing")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	t.Run("same name under new id evicts old entry", func(t *testing.T) {
		require.NoError(t, reg.PutDevice(ctx, testDevice("d-3", "pump")))

		_, err := reg.Device("d-2")
		assert.ErrorIs(t, err, ErrDeviceNotFound)
		d, err := reg.DeviceByName("pump")
		require.NoError(t, err)
		assert.Equal(t, "d-3", d.ID)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, reg.RemoveDevice(ctx, "d-3"))
		assert.ErrorIs(t, reg.RemoveDevice(ctx, "d-3"), ErrDeviceNotFound)
	})
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(openTestRepo(t))
	require.NoError(t, reg.PutDevice(ctx, testDevice("d-1", "boiler")))

	d, err := reg.Device("d-1")
	require.NoError(t, err)
	d.Labels[0] = "mutated"
	d.Protocols["modbus"]["Port"] = "0"

	again, err := reg.Device("d-1")
	require.NoError(t, err)
	assert.Equal(t, "hvac", again.Labels[0])
	assert.Equal(t, "502", again.Protocols["modbus"]["Port"])
}

func TestRegistry_ProfileRename(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(openTestRepo(t))

	require.NoError(t, reg.PutProfile(ctx, testProfile("p-1", "thermostat")))
	require.NoError(t, reg.PutProfile(ctx, testProfile("p-1", "thermostat-v2")))

	_, err := reg.Profile("thermostat")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	_, err = reg.Profile("thermostat-v2")
	assert.NoError(t, err)
}

func TestRegistry_Watchers(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(openTestRepo(t))

	require.NoError(t, reg.PutWatcher(ctx, testWatcher("w-2", "zeta")))
	require.NoError(t, reg.PutWatcher(ctx, testWatcher("w-1", "alpha")))

	watchers := reg.Watchers()
	require.Len(t, watchers, 2)
	assert.Equal(t, "alpha", watchers[0].Name)

	require.NoError(t, reg.RemoveWatcher(ctx, "w-1"))
	assert.ErrorIs(t, reg.RemoveWatcher(ctx, "w-1"), ErrWatcherNotFound)
	assert.Len(t, reg.Watchers(), 1)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(openTestRepo(t))
	require.NoError(t, reg.PutDevice(ctx, testDevice("d-1", "boiler")))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = reg.Device("d-1")
			_ = reg.Devices()
		}()
		go func() {
			defer wg.Done()
			_ = reg.PutDevice(ctx, testDevice("d-1", "boiler"))
		}()
	}
	wg.Wait()

	assert.Len(t, reg.Devices(), 1)
}
