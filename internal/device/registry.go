package device

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// Logger defines the logging interface used by the Registry and Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry caches devices, profiles and provision watchers in memory over a
// Repository. Writes go to the repository first, then the cache.
//
// The cache is populated on startup via RefreshCache(). All public methods
// are thread-safe and return copies.
type Registry struct {
	repo Repository

	mu       sync.RWMutex
	devices  map[string]*metadata.Device           // by ID
	profiles map[string]*metadata.Profile          // by name
	watchers map[string]*metadata.ProvisionWatcher // by ID

	logger Logger
}

// NewRegistry creates a new registry over repo.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:     repo,
		devices:  make(map[string]*metadata.Device),
		profiles: make(map[string]*metadata.Profile),
		watchers: make(map[string]*metadata.ProvisionWatcher),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads everything from the repository into the cache.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}
	profiles, err := r.repo.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}
	watchers, err := r.repo.ListWatchers(ctx)
	if err != nil {
		return fmt.Errorf("loading provision watchers: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices = make(map[string]*metadata.Device, len(devices))
	for i := range devices {
		r.devices[devices[i].ID] = cloneDevice(&devices[i])
	}
	r.profiles = make(map[string]*metadata.Profile, len(profiles))
	for i := range profiles {
		r.profiles[profiles[i].Name] = cloneProfile(&profiles[i])
	}
	r.watchers = make(map[string]*metadata.ProvisionWatcher, len(watchers))
	for i := range watchers {
		r.watchers[watchers[i].ID] = cloneWatcher(&watchers[i])
	}

	r.logger.Info("device cache refreshed",
		"devices", len(devices),
		"profiles", len(profiles),
		"watchers", len(watchers),
	)
	return nil
}

// Device returns a cached device by ID.
// Returns ErrDeviceNotFound if the device is not cached.
func (r *Registry) Device(id string) (*metadata.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return cloneDevice(d), nil
}

// DeviceByName returns a cached device by name.
// Returns ErrDeviceNotFound if no cached device has that name.
func (r *Registry) DeviceByName(name string) (*metadata.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if d.Name == name {
			return cloneDevice(d), nil
		}
	}
	return nil, ErrDeviceNotFound
}

// Devices returns all cached devices ordered by name.
func (r *Registry) Devices() []metadata.Device {
	r.mu.RLock()
	devices := make([]metadata.Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, *cloneDevice(d))
	}
	r.mu.RUnlock()

	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices
}

// PutDevice stores a device, replacing any cached device with the same ID
// or name.
func (r *Registry) PutDevice(ctx context.Context, d *metadata.Device) error {
	if err := r.repo.SaveDevice(ctx, d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cached := range r.devices {
		if cached.Name == d.Name && id != d.ID {
			delete(r.devices, id)
		}
	}
	r.devices[d.ID] = cloneDevice(d)
	return nil
}

// RemoveDevice removes a device by ID.
// Returns ErrDeviceNotFound if the device is not cached.
func (r *Registry) RemoveDevice(ctx context.Context, id string) error {
	r.mu.RLock()
	_, ok := r.devices[id]
	r.mu.RUnlock()
	if !ok {
		return ErrDeviceNotFound
	}

	if err := r.repo.DeleteDevice(ctx, id); err != nil && !isNotFound(err) {
		return err
	}

	r.mu.Lock()
	delete(r.devices, id)
	r.mu.Unlock()
	return nil
}

// Profile returns a cached profile by name.
// Returns ErrProfileNotFound if the profile is not cached.
func (r *Registry) Profile(name string) (*metadata.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[name]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

// PutProfile stores a profile. A profile renamed in the registry replaces
// its old cache entry.
func (r *Registry) PutProfile(ctx context.Context, p *metadata.Profile) error {
	if err := r.repo.SaveProfile(ctx, p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, cached := range r.profiles {
		if cached.ID == p.ID && name != p.Name {
			delete(r.profiles, name)
		}
	}
	r.profiles[p.Name] = cloneProfile(p)
	return nil
}

// Watcher returns a cached provision watcher by ID.
// Returns ErrWatcherNotFound if the watcher is not cached.
func (r *Registry) Watcher(id string) (*metadata.ProvisionWatcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.watchers[id]
	if !ok {
		return nil, ErrWatcherNotFound
	}
	return cloneWatcher(w), nil
}

// Watchers returns all cached provision watchers ordered by name.
func (r *Registry) Watchers() []metadata.ProvisionWatcher {
	r.mu.RLock()
	watchers := make([]metadata.ProvisionWatcher, 0, len(r.watchers))
	for _, w := range r.watchers {
		watchers = append(watchers, *cloneWatcher(w))
	}
	r.mu.RUnlock()

	sort.Slice(watchers, func(i, j int) bool { return watchers[i].Name < watchers[j].Name })
	return watchers
}

// PutWatcher stores a provision watcher.
func (r *Registry) PutWatcher(ctx context.Context, w *metadata.ProvisionWatcher) error {
	if err := r.repo.SaveWatcher(ctx, w); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cached := range r.watchers {
		if cached.Name == w.Name && id != w.ID {
			delete(r.watchers, id)
		}
	}
	r.watchers[w.ID] = cloneWatcher(w)
	return nil
}

// RemoveWatcher removes a provision watcher by ID.
// Returns ErrWatcherNotFound if the watcher is not cached.
func (r *Registry) RemoveWatcher(ctx context.Context, id string) error {
	r.mu.RLock()
	_, ok := r.watchers[id]
	r.mu.RUnlock()
	if !ok {
		return ErrWatcherNotFound
	}

	if err := r.repo.DeleteWatcher(ctx, id); err != nil && !isNotFound(err) {
		return err
	}

	r.mu.Lock()
	delete(r.watchers, id)
	r.mu.Unlock()
	return nil
}
