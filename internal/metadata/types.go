package metadata

// Admin and operating states shared by devices and provision watchers.
const (
	AdminStateLocked   = "LOCKED"
	AdminStateUnlocked = "UNLOCKED"

	OperatingStateEnabled  = "ENABLED"
	OperatingStateDisabled = "DISABLED"
)

// ProtocolProperties holds the connection attributes of one protocol,
// e.g. {"Address": "10.0.0.4", "Port": "502"}.
type ProtocolProperties map[string]string

// Device is a device registered with the metadata registry.
type Device struct {
	ID             string                        `json:"id,omitempty"`
	Name           string                        `json:"name"`
	Description    string                        `json:"description,omitempty"`
	AdminState     string                        `json:"adminState,omitempty"`
	OperatingState string                        `json:"operatingState,omitempty"`
	Labels         []string                      `json:"labels,omitempty"`
	ProfileName    string                        `json:"profileName"`
	ServiceName    string                        `json:"serviceName"`
	Protocols      map[string]ProtocolProperties `json:"protocols,omitempty"`
	Created        int64                         `json:"created,omitempty"`
	Modified       int64                         `json:"modified,omitempty"`
}

// Locked reports whether the device is administratively locked.
func (d Device) Locked() bool {
	return d.AdminState == AdminStateLocked
}

// PropertyValue describes how a raw resource value is interpreted.
// Numeric modifiers are decimal strings as the registry sends them; an empty
// string means "not set".
type PropertyValue struct {
	Type         string `json:"type"`
	ReadWrite    string `json:"readWrite,omitempty"`
	Units        string `json:"units,omitempty"`
	Minimum      string `json:"minimum,omitempty"`
	Maximum      string `json:"maximum,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
	Base         string `json:"base,omitempty"`
	Scale        string `json:"scale,omitempty"`
	Offset       string `json:"offset,omitempty"`
}

// DeviceResource is one readable or writable value a profile defines.
type DeviceResource struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Properties  PropertyValue `json:"properties"`
}

// Profile is a device profile: the resource model shared by similar devices.
type Profile struct {
	ID              string           `json:"id,omitempty"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Manufacturer    string           `json:"manufacturer,omitempty"`
	Model           string           `json:"model,omitempty"`
	Labels          []string         `json:"labels,omitempty"`
	DeviceResources []DeviceResource `json:"deviceResources,omitempty"`
	Created         int64            `json:"created,omitempty"`
	Modified        int64            `json:"modified,omitempty"`
}

// Resource returns the named device resource.
func (p Profile) Resource(name string) (DeviceResource, bool) {
	for _, r := range p.DeviceResources {
		if r.Name == name {
			return r, true
		}
	}
	return DeviceResource{}, false
}

// ProvisionWatcher describes which discovered devices should be registered
// automatically and with which profile.
//
// Identifiers maps a protocol attribute to a regular expression the
// discovered value must match. BlockingIdentifiers maps an attribute to
// values that exclude a candidate.
type ProvisionWatcher struct {
	ID                  string              `json:"id,omitempty"`
	Name                string              `json:"name"`
	Labels              []string            `json:"labels,omitempty"`
	Identifiers         map[string]string   `json:"identifiers"`
	BlockingIdentifiers map[string][]string `json:"blockingIdentifiers,omitempty"`
	ProfileName         string              `json:"profileName"`
	ServiceName         string              `json:"serviceName"`
	AdminState          string              `json:"adminState,omitempty"`
	Created             int64               `json:"created,omitempty"`
	Modified            int64               `json:"modified,omitempty"`
}

// Schedule is a recurring (or one-shot) timer. Either Cron or Frequency
// drives it; Frequency is an ISO 8601 duration such as "PT15S".
type Schedule struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Cron      string `json:"cron,omitempty"`
	RunOnce   bool   `json:"runOnce,omitempty"`
}

// ScheduleEvent is an action executed each time its schedule fires.
type ScheduleEvent struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Schedule   string `json:"schedule"`
	Service    string `json:"service,omitempty"`
	Parameters string `json:"parameters,omitempty"`
}
