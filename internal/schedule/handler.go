package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-device/internal/callback"
	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// HandlePost registers the schedule or schedule event the registry created.
func (s *Scheduler) HandlePost(ctx context.Context, n callback.Notification) (bool, error) {
	return s.store(ctx, n)
}

// HandlePut replaces a schedule or schedule event with its current version.
func (s *Scheduler) HandlePut(ctx context.Context, n callback.Notification) (bool, error) {
	return s.store(ctx, n)
}

// HandleDelete unregisters a schedule or schedule event. Unknown ids return
// false.
func (s *Scheduler) HandleDelete(ctx context.Context, n callback.Notification) (bool, error) {
	switch n.Type {
	case callback.KindSchedule:
		return s.RemoveSchedule(ctx, n.ID)
	case callback.KindScheduleEvent:
		return s.RemoveEvent(ctx, n.ID)
	default:
		s.logger.Error("unexpected notification kind", "type", n.Type, "id", n.ID)
		return false, nil
	}
}

func (s *Scheduler) store(ctx context.Context, n callback.Notification) (bool, error) {
	switch n.Type {
	case callback.KindSchedule:
		return s.storeSchedule(ctx, n.ID)
	case callback.KindScheduleEvent:
		return s.storeEvent(ctx, n.ID)
	default:
		s.logger.Error("unexpected notification kind", "type", n.Type, "id", n.ID)
		return false, nil
	}
}

func (s *Scheduler) storeSchedule(ctx context.Context, id string) (bool, error) {
	sched, err := s.meta.Schedule(ctx, id)
	if errors.Is(err, metadata.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetching schedule %s: %w", id, err)
	}
	if err := s.AddSchedule(ctx, *sched); err != nil {
		return false, err
	}
	return true, nil
}

// storeEvent registers an event, fetching its schedule by name first when
// that schedule is not registered yet. An event whose schedule the registry
// does not know is reported as not found.
func (s *Scheduler) storeEvent(ctx context.Context, id string) (bool, error) {
	ev, err := s.meta.ScheduleEvent(ctx, id)
	if errors.Is(err, metadata.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetching schedule event %s: %w", id, err)
	}

	s.mu.Lock()
	known := s.hasScheduleNamed(ev.Schedule)
	s.mu.Unlock()

	if !known {
		sched, err := s.meta.ScheduleByName(ctx, ev.Schedule)
		if errors.Is(err, metadata.ErrNotFound) {
			s.logger.Error("schedule event references unknown schedule",
				"event", ev.Name,
				"schedule", ev.Schedule,
			)
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("fetching schedule %s: %w", ev.Schedule, err)
		}
		if err := s.AddSchedule(ctx, *sched); err != nil {
			return false, err
		}
	}

	if err := s.AddEvent(ctx, *ev); err != nil {
		return false, err
	}
	return true, nil
}
