package mqtt

import "errors"

// Sentinel errors returned by Client. A broker that does not acknowledge in
// time yields an error matching both ErrTimeout and the operation's sentinel.
var (
	// ErrNotConnected means the broker connection is down; nothing was sent.
	ErrNotConnected = errors.New("mqtt: not connected to broker")

	// ErrConnectionFailed wraps the failure of the initial Connect.
	ErrConnectionFailed = errors.New("mqtt: broker connection failed")

	// ErrPublishFailed wraps publish failures, including oversize payloads.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed wraps subscribe failures and nil handlers.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed wraps unsubscribe failures.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrTimeout means the broker did not acknowledge within the timeout.
	ErrTimeout = errors.New("mqtt: broker acknowledgement timed out")

	// ErrInvalidQoS rejects QoS levels above 2.
	ErrInvalidQoS = errors.New("mqtt: qos must be 0, 1 or 2")

	// ErrInvalidTopic rejects empty topics.
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
