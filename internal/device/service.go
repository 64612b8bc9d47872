package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// MetadataClient is the subset of the registry client the Service needs.
type MetadataClient interface {
	Device(ctx context.Context, id string) (*metadata.Device, error)
	Profile(ctx context.Context, id string) (*metadata.Profile, error)
	ProfileByName(ctx context.Context, name string) (*metadata.Profile, error)
	ProvisionWatcher(ctx context.Context, id string) (*metadata.ProvisionWatcher, error)
}

// Service applies registry callbacks for devices, profiles and provision
// watchers to the local Registry.
type Service struct {
	name     string
	registry *Registry
	meta     MetadataClient
	events   EventPublisher
	logger   Logger
}

// NewService creates a Service for the device service called serviceName.
// Devices and watchers assigned to another service are treated as unknown.
// events may be nil.
func NewService(serviceName string, registry *Registry, meta MetadataClient, events EventPublisher) *Service {
	return &Service{
		name:     serviceName,
		registry: registry,
		meta:     meta,
		events:   events,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// Registry returns the cache the service maintains.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Initialize loads the persisted cache. Call it before serving callbacks.
func (s *Service) Initialize(ctx context.Context) error {
	if err := s.registry.RefreshCache(ctx); err != nil {
		return fmt.Errorf("initialising device cache: %w", err)
	}
	return nil
}

// AddDevice caches the device the registry just created.
func (s *Service) AddDevice(ctx context.Context, id string) (bool, error) {
	return s.storeDevice(ctx, id, ActionAdded)
}

// UpdateDevice refreshes a device from the registry. A device not yet
// cached is added.
func (s *Service) UpdateDevice(ctx context.Context, id string) (bool, error) {
	return s.storeDevice(ctx, id, ActionUpdated)
}

func (s *Service) storeDevice(ctx context.Context, id string, action Action) (bool, error) {
	d, err := s.meta.Device(ctx, id)
	if errors.Is(err, metadata.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetching device %s: %w", id, err)
	}
	if !s.owns(d.ServiceName) {
		s.logger.Warn("device belongs to another service",
			"id", id,
			"service", d.ServiceName,
		)
		// A device moved to another service leaves this cache.
		if _, err := s.DeleteDevice(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}

	if d.ProfileName != "" {
		if err := s.ensureProfile(ctx, d.ProfileName); err != nil {
			return false, err
		}
	}

	if err := s.registry.PutDevice(ctx, d); err != nil {
		return false, fmt.Errorf("caching device %s: %w", id, err)
	}

	s.logger.Info("device cached", "id", id, "name", d.Name, "action", action)
	s.publish(EventKindDevice, id, d.Name, action)
	return true, nil
}

// ensureProfile caches a device's profile if it is not cached yet. A profile
// the registry does not know is logged and skipped.
func (s *Service) ensureProfile(ctx context.Context, name string) error {
	if _, err := s.registry.Profile(name); err == nil {
		return nil
	}

	p, err := s.meta.ProfileByName(ctx, name)
	if errors.Is(err, metadata.ErrNotFound) {
		s.logger.Warn("device profile not found in registry", "profile", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetching profile %s: %w", name, err)
	}
	if err := s.registry.PutProfile(ctx, p); err != nil {
		return fmt.Errorf("caching profile %s: %w", name, err)
	}
	return nil
}

// DeleteDevice drops a cached device. Unknown ids return false.
func (s *Service) DeleteDevice(ctx context.Context, id string) (bool, error) {
	d, err := s.registry.Device(id)
	if errors.Is(err, ErrDeviceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.registry.RemoveDevice(ctx, id); err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("removing device %s: %w", id, err)
	}

	s.logger.Info("device removed", "id", id, "name", d.Name)
	s.publish(EventKindDevice, id, d.Name, ActionRemoved)
	return true, nil
}

// UpdateProfile refreshes a profile from the registry.
func (s *Service) UpdateProfile(ctx context.Context, id string) (bool, error) {
	p, err := s.meta.Profile(ctx, id)
	if errors.Is(err, metadata.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetching profile %s: %w", id, err)
	}

	if err := s.registry.PutProfile(ctx, p); err != nil {
		return false, fmt.Errorf("caching profile %s: %w", id, err)
	}

	s.logger.Info("profile cached", "id", id, "name", p.Name)
	s.publish(EventKindProfile, id, p.Name, ActionUpdated)
	return true, nil
}

// AddWatcher caches a new provision watcher.
func (s *Service) AddWatcher(ctx context.Context, id string) (bool, error) {
	return s.storeWatcher(ctx, id, ActionAdded)
}

// UpdateWatcher refreshes a provision watcher from the registry.
func (s *Service) UpdateWatcher(ctx context.Context, id string) (bool, error) {
	return s.storeWatcher(ctx, id, ActionUpdated)
}

func (s *Service) storeWatcher(ctx context.Context, id string, action Action) (bool, error) {
	w, err := s.meta.ProvisionWatcher(ctx, id)
	if errors.Is(err, metadata.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetching provision watcher %s: %w", id, err)
	}
	if !s.owns(w.ServiceName) {
		s.logger.Warn("provision watcher belongs to another service",
			"id", id,
			"service", w.ServiceName,
		)
		if _, err := s.RemoveWatcher(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.registry.PutWatcher(ctx, w); err != nil {
		return false, fmt.Errorf("caching provision watcher %s: %w", id, err)
	}

	s.logger.Info("provision watcher cached", "id", id, "name", w.Name, "action", action)
	s.publish(EventKindWatcher, id, w.Name, action)
	return true, nil
}

// RemoveWatcher drops a cached provision watcher. Unknown ids return false.
func (s *Service) RemoveWatcher(ctx context.Context, id string) (bool, error) {
	w, err := s.registry.Watcher(id)
	if errors.Is(err, ErrWatcherNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.registry.RemoveWatcher(ctx, id); err != nil {
		if errors.Is(err, ErrWatcherNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("removing provision watcher %s: %w", id, err)
	}

	s.logger.Info("provision watcher removed", "id", id, "name", w.Name)
	s.publish(EventKindWatcher, id, w.Name, ActionRemoved)
	return true, nil
}

// owns reports whether a resource assigned to service belongs to this one.
// An empty assignment is accepted.
func (s *Service) owns(service string) bool {
	return service == "" || s.name == "" || service == s.name
}
