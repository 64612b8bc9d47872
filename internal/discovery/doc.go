// Package discovery finds devices that are not registered yet and registers
// the ones a provision watcher accepts.
//
// A scan runs in the background after Scanner.Trigger and does three things:
//
//  1. It asks a Discoverer for candidates. The MQTT Collector listens for
//     announcements on {prefix}/announce/{protocol} for the scan window.
//  2. It matches each candidate against the cached provision watchers.
//  3. It registers every match with the metadata registry. The registry then
//     sends a DEVICE POST callback, which caches the device as usual.
//
// At most one scan runs at a time. Triggers that arrive while a scan is
// running are dropped.
package discovery
