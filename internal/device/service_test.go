package device

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

type serviceFixture struct {
	svc    *Service
	reg    *Registry
	meta   *mockMetadata
	events *mockPublisher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	reg := NewRegistry(openTestRepo(t))
	meta := &mockMetadata{}
	events := &mockPublisher{}
	return &serviceFixture{
		svc:    NewService("virtual-device", reg, meta, events),
		reg:    reg,
		meta:   meta,
		events: events,
	}
}

func TestService_AddDevice(t *testing.T) {
	ctx := context.Background()

	t.Run("caches device and profile then publishes", func(t *testing.T) {
		f := newServiceFixture(t)
		f.meta.On("Device", mock.Anything, "d-1").Return(testDevice("d-1", "boiler"), nil)
		f.meta.On("ProfileByName", mock.Anything, "thermostat").Return(testProfile("p-1", "thermostat"), nil)
		f.events.On("PublishJSON", "test/event/device/d-1", mock.MatchedBy(func(e Event) bool {
			return e.Action == ActionAdded && e.Name == "boiler" && e.Kind == EventKindDevice
		})).Return(nil)

		ok, err := f.svc.AddDevice(ctx, "d-1")
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = f.reg.Device("d-1")
		assert.NoError(t, err)
		_, err = f.reg.Profile("thermostat")
		assert.NoError(t, err)
		f.meta.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("cached profile is not fetched again", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.reg.PutProfile(ctx, testProfile("p-1", "thermostat")))
		f.meta.On("Device", mock.Anything, "d-1").Return(testDevice("d-1", "boiler"), nil)
		f.events.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)

		ok, err := f.svc.AddDevice(ctx, "d-1")
		require.NoError(t, err)
		assert.True(t, ok)
		f.meta.AssertNotCalled(t, "ProfileByName", mock.Anything, mock.Anything)
	})

	t.Run("unknown device", func(t *testing.T) {
		f := newServiceFixture(t)
		f.meta.On("Device", mock.Anything, "d-9").Return(nil, fmt.Errorf("device d-9: %w", metadata.ErrNotFound))

		ok, err := f.svc.AddDevice(ctx, "d-9")
		require.NoError(t, err)
		assert.False(t, ok)
		f.events.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	})

	t.Run("device of another service", func(t *testing.T) {
		f := newServiceFixture(t)
		d := testDevice("d-1", "boiler")
		d.ServiceName = "other-service"
		f.meta.On("Device", mock.Anything, "d-1").Return(d, nil)

		ok, err := f.svc.AddDevice(ctx, "d-1")
		require.NoError(t, err)
		assert.False(t, ok)
		_, err = f.reg.Device("d-1")
		assert.ErrorIs(t, err, ErrDeviceNotFound)
	})

	t.Run("missing profile is logged and skipped", func(t *testing.T) {
		f := newServiceFixture(t)
		logger := &recordingLogger{}
		f.svc.SetLogger(logger)
		f.meta.On("Device", mock.Anything, "d-1").Return(testDevice("d-1", "boiler"), nil)
		f.meta.On("ProfileByName", mock.Anything, "thermostat").Return(nil, metadata.ErrNotFound)
		f.events.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)

		ok, err := f.svc.AddDevice(ctx, "d-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, logger.warns, "device profile not found in registry")
	})

	t.Run("registry failure is an error", func(t *testing.T) {
		f := newServiceFixture(t)
		boom := errors.New("connection refused")
		f.meta.On("Device", mock.Anything, "d-1").Return(nil, boom)

		ok, err := f.svc.AddDevice(ctx, "d-1")
		assert.ErrorIs(t, err, boom)
		assert.False(t, ok)
	})

	t.Run("publish failure does not fail the callback", func(t *testing.T) {
		f := newServiceFixture(t)
		logger := &recordingLogger{}
		f.svc.SetLogger(logger)
		require.NoError(t, f.reg.PutProfile(ctx, testProfile("p-1", "thermostat")))
		f.meta.On("Device", mock.Anything, "d-1").Return(testDevice("d-1", "boiler"), nil)
		f.events.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("not connected"))

		ok, err := f.svc.AddDevice(ctx, "d-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, logger.warns, "publishing lifecycle event failed")
	})
}

func TestService_UpdateDevice(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	require.NoError(t, f.reg.PutProfile(ctx, testProfile("p-1", "thermostat")))
	require.NoError(t, f.reg.PutDevice(ctx, testDevice("d-1", "boiler")))

	updated := testDevice("d-1", "boiler")
	updated.AdminState = metadata.AdminStateLocked
	f.meta.On("Device", mock.Anything, "d-1").Return(updated, nil)
	f.events.On("PublishJSON", "test/event/device/d-1", mock.MatchedBy(func(e Event) bool {
		return e.Action == ActionUpdated
	})).Return(nil)

	ok, err := f.svc.UpdateDevice(ctx, "d-1")
	require.NoError(t, err)
	assert.True(t, ok)

	d, err := f.reg.Device("d-1")
	require.NoError(t, err)
	assert.True(t, d.Locked())
}

func TestService_UpdateDevice_MovedToAnotherService(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	require.NoError(t, f.reg.PutProfile(ctx, testProfile("p-1", "thermostat")))
	require.NoError(t, f.reg.PutDevice(ctx, testDevice("d-1", "boiler")))

	moved := testDevice("d-1", "boiler")
	moved.ServiceName = "other-service"
	f.meta.On("Device", mock.Anything, "d-1").Return(moved, nil)
	f.events.On("PublishJSON", "test/event/device/d-1", mock.MatchedBy(func(e Event) bool {
		return e.Action == ActionRemoved && e.Name == "boiler"
	})).Return(nil)

	ok, err := f.svc.UpdateDevice(ctx, "d-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.reg.Device("d-1")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	_, err = f.reg.DeviceByName("boiler")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	f.events.AssertExpectations(t)
}

func TestService_DeviceEventTopicIsEscaped(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	require.NoError(t, f.reg.PutProfile(ctx, testProfile("p-1", "thermostat")))
	f.meta.On("Device", mock.Anything, "plant/+/#").Return(testDevice("plant/+/#", "boiler"), nil)
	f.events.On("PublishJSON", "test/event/device/plant%2F%2B%2F%23", mock.MatchedBy(func(e Event) bool {
		return e.ID == "plant/+/#"
	})).Return(nil)

	ok, err := f.svc.AddDevice(ctx, "plant/+/#")
	require.NoError(t, err)
	assert.True(t, ok)
	f.events.AssertExpectations(t)
}

func TestService_DeleteDevice(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	require.NoError(t, f.reg.PutDevice(ctx, testDevice("d-1", "boiler")))
	f.events.On("PublishJSON", "test/event/device/d-1", mock.MatchedBy(func(e Event) bool {
		return e.Action == ActionRemoved && e.Name == "boiler"
	})).Return(nil)

	ok, err := f.svc.DeleteDevice(ctx, "d-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.DeleteDevice(ctx, "d-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deletion never consults the registry.
	f.meta.AssertNotCalled(t, "Device", mock.Anything, mock.Anything)
	f.events.AssertNumberOfCalls(t, "PublishJSON", 1)
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f := newServiceFixture(t)
		f.meta.On("Profile", mock.Anything, "p-1").Return(testProfile("p-1", "thermostat"), nil)
		f.events.On("PublishJSON", "test/event/profile/p-1", mock.Anything).Return(nil)

		ok, err := f.svc.UpdateProfile(ctx, "p-1")
		require.NoError(t, err)
		assert.True(t, ok)
		_, err = f.reg.Profile("thermostat")
		assert.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		f := newServiceFixture(t)
		f.meta.On("Profile", mock.Anything, "p-9").Return(nil, metadata.ErrNotFound)

		ok, err := f.svc.UpdateProfile(ctx, "p-9")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestService_Watchers(t *testing.T) {
	ctx := context.Background()

	t.Run("add update remove", func(t *testing.T) {
		f := newServiceFixture(t)
		f.meta.On("ProvisionWatcher", mock.Anything, "w-1").Return(testWatcher("w-1", "lan-sweep"), nil)
		f.events.On("PublishJSON", "test/event/provisionwatcher/w-1", mock.Anything).Return(nil)

		ok, err := f.svc.AddWatcher(ctx, "w-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = f.svc.UpdateWatcher(ctx, "w-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, f.reg.Watchers(), 1)

		ok, err = f.svc.RemoveWatcher(ctx, "w-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, f.reg.Watchers())

		f.events.AssertNumberOfCalls(t, "PublishJSON", 3)
	})

	t.Run("unknown watcher", func(t *testing.T) {
		f := newServiceFixture(t)
		f.meta.On("ProvisionWatcher", mock.Anything, "w-9").Return(nil, metadata.ErrNotFound)

		ok, err := f.svc.AddWatcher(ctx, "w-9")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = f.svc.RemoveWatcher(ctx, "w-9")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("watcher of another service", func(t *testing.T) {
		f := newServiceFixture(t)
		w := testWatcher("w-1", "lan-sweep")
		w.ServiceName = "other-service"
		f.meta.On("ProvisionWatcher", mock.Anything, "w-1").Return(w, nil)

		ok, err := f.svc.UpdateWatcher(ctx, "w-1")
		require.NoError(t, err)
		assert.False(t, ok)
		f.events.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	})

	t.Run("cached watcher moved to another service", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.reg.PutWatcher(ctx, testWatcher("w-1", "lan-sweep")))
		w := testWatcher("w-1", "lan-sweep")
		w.ServiceName = "other-service"
		f.meta.On("ProvisionWatcher", mock.Anything, "w-1").Return(w, nil)
		f.events.On("PublishJSON", "test/event/provisionwatcher/w-1", mock.MatchedBy(func(e Event) bool {
			return e.Action == ActionRemoved
		})).Return(nil)

		ok, err := f.svc.UpdateWatcher(ctx, "w-1")
		require.NoError(t, err)
		assert.False(t, ok)
		_, err = f.reg.Watcher("w-1")
		assert.ErrorIs(t, err, ErrWatcherNotFound)
		f.events.AssertExpectations(t)
	})
}

func TestService_NilPublisher(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(openTestRepo(t))
	meta := &mockMetadata{}
	svc := NewService("virtual-device", reg, meta, nil)

	meta.On("Profile", mock.Anything, "p-1").Return(testProfile("p-1", "thermostat"), nil)

	ok, err := svc.UpdateProfile(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_Initialize(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	require.NoError(t, repo.SaveDevice(ctx, testDevice("d-1", "boiler")))

	svc := NewService("virtual-device", NewRegistry(repo), &mockMetadata{}, nil)
	require.NoError(t, svc.Initialize(ctx))

	_, err := svc.Registry().Device("d-1")
	assert.NoError(t, err)
}
