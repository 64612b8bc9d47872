package callback

// ResourceKind identifies the category of resource a notification is about.
// The registry may send kinds this service does not handle (SERVICE,
// ADDRESSABLE, ...); those decode normally and are ignored by the Router.
type ResourceKind string

// Resource kinds dispatched by the Router.
const (
	KindDevice           ResourceKind = "DEVICE"
	KindProfile          ResourceKind = "PROFILE"
	KindProvisionWatcher ResourceKind = "PROVISIONWATCHER"
	KindSchedule         ResourceKind = "SCHEDULE"
	KindScheduleEvent    ResourceKind = "SCHEDULEEVENT"
)

// Label returns the human-readable name used in diagnostics, e.g. "Device".
func (k ResourceKind) Label() string {
	switch k {
	case KindDevice:
		return "Device"
	case KindProfile:
		return "Profile"
	case KindProvisionWatcher:
		return "ProvisionWatcher"
	case KindSchedule:
		return "Schedule"
	case KindScheduleEvent:
		return "ScheduleEvent"
	default:
		return string(k)
	}
}

// Verb is the HTTP method of the inbound callback request.
type Verb string

// Verbs with meaning to the Router. Anything else is a no-op.
const (
	VerbGet    Verb = "GET"
	VerbPost   Verb = "POST"
	VerbPut    Verb = "PUT"
	VerbDelete Verb = "DELETE"
)

// Notification is the body the registry sends on a callback.
// An empty Type or ID is treated the same as an absent one.
type Notification struct {
	Type ResourceKind `json:"type"`
	ID   string       `json:"id"`
}

// valid reports whether both fields needed for dispatch are present.
func (n Notification) valid() bool {
	return n.Type != "" && n.ID != ""
}
