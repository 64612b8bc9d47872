package callback

// Status classifies what the Router did with one notification.
type Status int

const (
	// StatusEmpty means no notification body was supplied; nothing ran.
	StatusEmpty Status = iota
	// StatusHandled means the handler found and changed the resource.
	StatusHandled
	// StatusIgnored means the kind/verb pair has no operation.
	StatusIgnored
	// StatusNotFound means the handler did not recognise the id.
	StatusNotFound
	// StatusRejected means the notification was malformed.
	StatusRejected
	// StatusFailed means the handler returned an error.
	StatusFailed
)

var statusNames = map[Status]string{
	StatusEmpty:    "empty",
	StatusHandled:  "handled",
	StatusIgnored:  "ignored",
	StatusNotFound: "not_found",
	StatusRejected: "rejected",
	StatusFailed:   "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Outcome is the result of routing one notification.
// Kind and ID are set for Handled, Ignored and NotFound outcomes.
type Outcome struct {
	Status Status
	Kind   ResourceKind
	ID     string
}

// Success reports whether the caller should answer with a success response.
func (o Outcome) Success() bool {
	switch o.Status {
	case StatusEmpty, StatusHandled, StatusIgnored:
		return true
	default:
		return false
	}
}

// Err returns the error describing a failed outcome, or nil.
// StatusFailed has no outcome error; the handler error is returned by Handle.
func (o Outcome) Err() error {
	switch o.Status {
	case StatusRejected:
		return ErrMalformedNotification
	case StatusNotFound:
		return &NotFoundError{Kind: o.Kind, ID: o.ID}
	default:
		return nil
	}
}
