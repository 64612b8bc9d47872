package schedule

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-device/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// Executor runs one schedule event when its schedule fires.
type Executor interface {
	Execute(ctx context.Context, s metadata.Schedule, e metadata.ScheduleEvent) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, s metadata.Schedule, e metadata.ScheduleEvent) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, s metadata.Schedule, e metadata.ScheduleEvent) error {
	return f(ctx, s, e)
}

// Publisher is the MQTT surface PublishExecutor needs. *mqtt.Client
// satisfies it.
type Publisher interface {
	PublishJSON(topic string, v any) error
	Topics() mqtt.Topics
}

// Firing is the payload published for each executed schedule event.
type Firing struct {
	Schedule   string    `json:"schedule"`
	Event      string    `json:"event"`
	Service    string    `json:"service,omitempty"`
	Parameters string    `json:"parameters,omitempty"`
	FiredAt    time.Time `json:"fired_at"`
}

// PublishExecutor executes schedule events by publishing a Firing on
// {prefix}/schedule/{schedule}/{event}.
type PublishExecutor struct {
	pub Publisher
}

// NewPublishExecutor creates an executor publishing through pub.
func NewPublishExecutor(pub Publisher) *PublishExecutor {
	return &PublishExecutor{pub: pub}
}

// Execute publishes the firing.
func (p *PublishExecutor) Execute(_ context.Context, s metadata.Schedule, e metadata.ScheduleEvent) error {
	return p.pub.PublishJSON(p.pub.Topics().ScheduleFired(s.Name, e.Name), Firing{
		Schedule:   s.Name,
		Event:      e.Name,
		Service:    e.Service,
		Parameters: e.Parameters,
		FiredAt:    time.Now().UTC(),
	})
}
