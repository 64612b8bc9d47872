package device

import (
	"maps"
	"slices"

	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// The cache hands out copies so callers can never mutate cached state.

func cloneDevice(d *metadata.Device) *metadata.Device {
	c := *d
	c.Labels = slices.Clone(d.Labels)
	if d.Protocols != nil {
		c.Protocols = make(map[string]metadata.ProtocolProperties, len(d.Protocols))
		for name, props := range d.Protocols {
			c.Protocols[name] = maps.Clone(props)
		}
	}
	return &c
}

func cloneProfile(p *metadata.Profile) *metadata.Profile {
	c := *p
	c.Labels = slices.Clone(p.Labels)
	c.DeviceResources = slices.Clone(p.DeviceResources)
	return &c
}

func cloneWatcher(w *metadata.ProvisionWatcher) *metadata.ProvisionWatcher {
	c := *w
	c.Labels = slices.Clone(w.Labels)
	c.Identifiers = maps.Clone(w.Identifiers)
	if w.BlockingIdentifiers != nil {
		c.BlockingIdentifiers = make(map[string][]string, len(w.BlockingIdentifiers))
		for k, v := range w.BlockingIdentifiers {
			c.BlockingIdentifiers[k] = slices.Clone(v)
		}
	}
	return &c
}
