// Package callback routes change notifications from the metadata registry to
// the handler that owns the changed resource.
//
// The registry calls the service whenever a device, device profile,
// provision watcher, schedule or schedule event changes. The HTTP verb of
// that call together with the notification's resource kind selects exactly
// one handler operation:
//
//	kind               POST          PUT           DELETE
//	DEVICE             AddDevice     UpdateDevice  DeleteDevice
//	PROVISIONWATCHER   AddWatcher    UpdateWatcher RemoveWatcher
//	PROFILE            -             UpdateProfile -
//	SCHEDULE(EVENT)    HandlePost    HandlePut     HandleDelete
//
// Cells marked "-", GET, any other verb and any other kind are no-ops that
// still succeed. A handler returning false means it did not recognise the
// id and becomes a NotFound outcome; a handler error is returned as-is.
//
// The Router holds no per-call state and is safe for concurrent use. It does
// not order concurrent notifications for the same resource.
package callback
