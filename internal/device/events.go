package device

import (
	"time"

	"github.com/nerrad567/gray-logic-device/internal/infrastructure/mqtt"
)

// Action is the lifecycle change an Event reports.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionRemoved Action = "removed"
)

// Event kinds, used as the {kind} topic segment.
const (
	EventKindDevice  = "device"
	EventKindProfile = "profile"
	EventKindWatcher = "provisionwatcher"
)

// Event is published on {prefix}/event/{kind}/{id} after the cache changes.
type Event struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher publishes lifecycle events. *mqtt.Client satisfies it.
type EventPublisher interface {
	PublishJSON(topic string, v any) error
	Topics() mqtt.Topics
}

// publish sends an event; failures are logged and never fail the callback.
func (s *Service) publish(kind, id, name string, action Action) {
	if s.events == nil {
		return
	}

	topic := s.events.Topics().Event(kind, id)
	event := Event{
		Kind:      kind,
		ID:        id,
		Name:      name,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.PublishJSON(topic, event); err != nil {
		s.logger.Warn("publishing lifecycle event failed",
			"topic", topic,
			"error", err,
		)
	}
}
