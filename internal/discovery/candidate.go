package discovery

import (
	"context"
	"fmt"
	"regexp"
	"slices"

	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// Candidate is a device that announced itself during a scan.
type Candidate struct {
	Name        string                                 `json:"name"`
	Description string                                 `json:"description,omitempty"`
	Labels      []string                               `json:"labels,omitempty"`
	Protocols   map[string]metadata.ProtocolProperties `json:"protocols"`
}

// Discoverer produces the candidates for one scan. It should return when
// ctx is done with whatever it has collected.
type Discoverer interface {
	Discover(ctx context.Context) ([]Candidate, error)
}

// attributes flattens all protocol properties into one attribute map. Later
// protocols in name order win on conflicts.
func (c Candidate) attributes() map[string]string {
	names := make([]string, 0, len(c.Protocols))
	for name := range c.Protocols {
		names = append(names, name)
	}
	slices.Sort(names)

	attrs := make(map[string]string)
	for _, name := range names {
		for k, v := range c.Protocols[name] {
			attrs[k] = v
		}
	}
	return attrs
}

// Matches reports whether w accepts c: w is unlocked, has at least one
// identifier, every identifier regex matches the whole attribute value, and
// no attribute holds a blocked value.
func Matches(c Candidate, w metadata.ProvisionWatcher) (bool, error) {
	if w.AdminState == metadata.AdminStateLocked || len(w.Identifiers) == 0 {
		return false, nil
	}

	attrs := c.attributes()
	for attr, pattern := range w.Identifiers {
		value, ok := attrs[attr]
		if !ok {
			return false, nil
		}
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return false, fmt.Errorf("watcher %s identifier %s: %w", w.Name, attr, err)
		}
		if !re.MatchString(value) {
			return false, nil
		}
	}

	for attr, blocked := range w.BlockingIdentifiers {
		if value, ok := attrs[attr]; ok && slices.Contains(blocked, value) {
			return false, nil
		}
	}
	return true, nil
}
