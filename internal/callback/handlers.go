package callback

import "context"

// Handler operations return true when the resource was found and the change
// applied, false when the id is unknown. A non-nil error is a fault.

// DeviceHandler owns device lifecycle changes.
type DeviceHandler interface {
	AddDevice(ctx context.Context, id string) (bool, error)
	UpdateDevice(ctx context.Context, id string) (bool, error)
	DeleteDevice(ctx context.Context, id string) (bool, error)
}

// ProfileHandler owns device profile changes. Profiles are only ever updated.
type ProfileHandler interface {
	UpdateProfile(ctx context.Context, id string) (bool, error)
}

// WatcherHandler owns provision watcher lifecycle changes.
type WatcherHandler interface {
	AddWatcher(ctx context.Context, id string) (bool, error)
	UpdateWatcher(ctx context.Context, id string) (bool, error)
	RemoveWatcher(ctx context.Context, id string) (bool, error)
}

// ScheduleHandler owns schedule and schedule event changes. It receives the
// whole notification so it can tell the two kinds apart.
type ScheduleHandler interface {
	HandlePost(ctx context.Context, n Notification) (bool, error)
	HandlePut(ctx context.Context, n Notification) (bool, error)
	HandleDelete(ctx context.Context, n Notification) (bool, error)
}

// Handlers groups the collaborators a Router dispatches to.
// A nil field leaves that kind's cells empty, so its notifications are ignored.
type Handlers struct {
	Devices   DeviceHandler
	Profiles  ProfileHandler
	Watchers  WatcherHandler
	Schedules ScheduleHandler
}
