package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configuration leaves topic_prefix empty.
const DefaultTopicPrefix = "devicesvc"

// Topics builds device service MQTT topics under a configurable prefix.
//
// All topics use the flat scheme {prefix}/{category}/{...}:
//
//	topics := mqtt.NewTopics("devicesvc")
//	topics.Reading("thermostat-01", "Temperature")
//	// Returns: "devicesvc/reading/thermostat-01/Temperature"
type Topics struct {
	prefix string
}

// segmentEscaper percent-encodes the characters that would split a topic
// level or act as a wildcard. '%' comes first so escaping is reversible.
var segmentEscaper = strings.NewReplacer("%", "%25", "/", "%2F", "+", "%2B", "#", "%23")

// EscapeSegment makes a registry-supplied name or id safe to use as exactly
// one topic level. An empty value becomes "_".
func EscapeSegment(s string) string {
	if s == "" {
		return "_"
	}
	return segmentEscaper.Replace(s)
}

// NewTopics returns a topic builder for prefix. An empty prefix falls back
// to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root segment every topic starts with.
func (t Topics) Prefix() string {
	return t.prefix
}

// Status returns the retained online/offline topic for a client.
//
// Example: devicesvc/status/device-service
func (t Topics) Status(clientID string) string {
	return fmt.Sprintf("%s/status/%s", t.prefix, clientID)
}

// Event returns the topic for a resource lifecycle event. The id is
// escaped with EscapeSegment.
//
// Example: devicesvc/event/device/5f1c...
func (t Topics) Event(kind, id string) string {
	return fmt.Sprintf("%s/event/%s/%s", t.prefix, kind, EscapeSegment(id))
}

// Announce returns the topic a device announces itself on during discovery.
//
// Example: devicesvc/announce/modbus
func (t Topics) Announce(protocol string) string {
	return fmt.Sprintf("%s/announce/%s", t.prefix, protocol)
}

// Reading returns the topic a device publishes a resource value on.
//
// Example: devicesvc/reading/thermostat-01/Temperature
func (t Topics) Reading(device, resource string) string {
	return fmt.Sprintf("%s/reading/%s/%s", t.prefix, device, resource)
}

// ScheduleFired returns the topic a schedule event is executed on.
//
// Example: devicesvc/schedule/every-minute/read-temperature
func (t Topics) ScheduleFired(schedule, event string) string {
	return fmt.Sprintf("%s/schedule/%s/%s", t.prefix, EscapeSegment(schedule), EscapeSegment(event))
}

// AllEvents matches every lifecycle event.
//
// Pattern: devicesvc/event/+/+
func (t Topics) AllEvents() string {
	return fmt.Sprintf("%s/event/+/+", t.prefix)
}

// AllAnnouncements matches discovery announcements from every protocol.
//
// Pattern: devicesvc/announce/+
func (t Topics) AllAnnouncements() string {
	return fmt.Sprintf("%s/announce/+", t.prefix)
}

// AllReadings matches readings from every device and resource.
//
// Pattern: devicesvc/reading/+/+
func (t Topics) AllReadings() string {
	return fmt.Sprintf("%s/reading/+/+", t.prefix)
}

// ParseReading extracts the device and resource names from a concrete
// reading topic. ok is false when topic is not a reading topic.
func (t Topics) ParseReading(topic string) (device, resource string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.prefix+"/reading/")
	if !found {
		return "", "", false
	}
	device, resource, found = strings.Cut(rest, "/")
	if !found || device == "" || resource == "" || strings.Contains(resource, "/") {
		return "", "", false
	}
	return device, resource, true
}

// ParseAnnounce extracts the protocol segment from an announcement topic.
func (t Topics) ParseAnnounce(topic string) (protocol string, ok bool) {
	protocol, found := strings.CutPrefix(topic, t.prefix+"/announce/")
	if !found || protocol == "" || strings.Contains(protocol, "/") {
		return "", false
	}
	return protocol, true
}
