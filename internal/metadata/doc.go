// Package metadata is a client for the external metadata registry that owns
// devices, device profiles, provision watchers, schedules and schedule
// events.
//
// The device service never edits these resources itself. When the registry
// reports a change through a callback the service fetches the current
// document here and refreshes its local cache. The only write is AddDevice,
// used by discovery to register a newly found device.
//
// Usage:
//
//	client := metadata.New(cfg.Metadata.URL, cfg.GetMetadataTimeout())
//	dev, err := client.Device(ctx, id)
//	if errors.Is(err, metadata.ErrNotFound) {
//	    // the registry does not know this id
//	}
package metadata
