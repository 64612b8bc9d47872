package callback

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockDevices struct {
	mock.Mock
}

func (m *mockDevices) AddDevice(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockDevices) UpdateDevice(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockDevices) DeleteDevice(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) UpdateProfile(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockWatchers struct {
	mock.Mock
}

func (m *mockWatchers) AddWatcher(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockWatchers) UpdateWatcher(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockWatchers) RemoveWatcher(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockSchedules struct {
	mock.Mock
}

func (m *mockSchedules) HandlePost(ctx context.Context, n Notification) (bool, error) {
	args := m.Called(ctx, n)
	return args.Bool(0), args.Error(1)
}

func (m *mockSchedules) HandlePut(ctx context.Context, n Notification) (bool, error) {
	args := m.Called(ctx, n)
	return args.Bool(0), args.Error(1)
}

func (m *mockSchedules) HandleDelete(ctx context.Context, n Notification) (bool, error) {
	args := m.Called(ctx, n)
	return args.Bool(0), args.Error(1)
}

// fixture holds a router wired to fresh mocks.
type fixture struct {
	devices   *mockDevices
	profiles  *mockProfiles
	watchers  *mockWatchers
	schedules *mockSchedules
	router    *Router
}

func newFixture() *fixture {
	f := &fixture{
		devices:   &mockDevices{},
		profiles:  &mockProfiles{},
		watchers:  &mockWatchers{},
		schedules: &mockSchedules{},
	}
	f.router = NewRouter(Handlers{
		Devices:   f.devices,
		Profiles:  f.profiles,
		Watchers:  f.watchers,
		Schedules: f.schedules,
	})
	return f
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.devices.AssertExpectations(t)
	f.profiles.AssertExpectations(t)
	f.watchers.AssertExpectations(t)
	f.schedules.AssertExpectations(t)
}

func (f *fixture) assertNoCalls(t mock.TestingT) {
	f.devices.AssertNotCalled(t, "AddDevice", mock.Anything, mock.Anything)
	f.devices.AssertNotCalled(t, "UpdateDevice", mock.Anything, mock.Anything)
	f.devices.AssertNotCalled(t, "DeleteDevice", mock.Anything, mock.Anything)
	f.profiles.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
	f.watchers.AssertNotCalled(t, "AddWatcher", mock.Anything, mock.Anything)
	f.watchers.AssertNotCalled(t, "UpdateWatcher", mock.Anything, mock.Anything)
	f.watchers.AssertNotCalled(t, "RemoveWatcher", mock.Anything, mock.Anything)
	f.schedules.AssertNotCalled(t, "HandlePost", mock.Anything, mock.Anything)
	f.schedules.AssertNotCalled(t, "HandlePut", mock.Anything, mock.Anything)
	f.schedules.AssertNotCalled(t, "HandleDelete", mock.Anything, mock.Anything)
}

// recordingLogger captures messages per level.
type recordingLogger struct {
	debug, info, warn, error []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.debug = append(l.debug, msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.info = append(l.info, msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.warn = append(l.warn, msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.error = append(l.error, msg) }
