// Package device keeps the service's local view of the devices, device
// profiles and provision watchers the metadata registry assigns to it, and
// applies the registry's change callbacks to that view.
//
// # Architecture
//
//	callback.Router ──▶ Service ──▶ metadata.Client (fetch current document)
//	                       │
//	                       ├──▶ Registry (in-memory cache) ──▶ SQLiteRepository
//	                       │
//	                       └──▶ EventPublisher (MQTT lifecycle events)
//
// Service implements callback.DeviceHandler, callback.ProfileHandler and
// callback.WatcherHandler. Every handler returns false when the id is
// unknown: to the registry for add and update, to the local cache for
// removals.
//
// The Registry is populated from SQLite on startup by RefreshCache so the
// service can resolve readings before the registry is reachable.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Concurrent callbacks for
// the same id are applied in arrival order at the cache; no ordering across
// ids is guaranteed.
package device
