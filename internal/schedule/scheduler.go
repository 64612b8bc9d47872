package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// executeTimeout bounds one Executor call.
const executeTimeout = 30 * time.Second

// timeLayout is the registry's start/end timestamp format.
const timeLayout = "20060102T150405"

// Logger defines the logging interface used by the Scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetadataClient is the subset of the registry client the Scheduler needs.
type MetadataClient interface {
	Schedule(ctx context.Context, id string) (*metadata.Schedule, error)
	ScheduleByName(ctx context.Context, name string) (*metadata.Schedule, error)
	ScheduleEvent(ctx context.Context, id string) (*metadata.ScheduleEvent, error)
}

// Options configures a Scheduler.
type Options struct {
	// WithSeconds accepts a leading seconds field in cron expressions.
	WithSeconds bool

	// Repository persists schedules and events. Nil keeps them in memory
	// only.
	Repository Repository
}

type entry struct {
	schedule metadata.Schedule
	cronID   cron.EntryID
}

// Scheduler owns a cron runner holding one entry per schedule.
type Scheduler struct {
	cron   *cron.Cron
	parser cron.Parser
	meta   MetadataClient
	exec   Executor
	repo   Repository

	mu        sync.Mutex
	schedules map[string]*entry                  // by schedule ID
	events    map[string]*metadata.ScheduleEvent // by event ID

	logger Logger
}

// New creates a stopped Scheduler. Call Start to begin firing.
func New(meta MetadataClient, exec Executor, opts Options) *Scheduler {
	fields := cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
	if opts.WithSeconds {
		fields |= cron.Second
	}
	parser := cron.NewParser(fields)
	return &Scheduler{
		cron:      cron.New(cron.WithParser(parser)),
		parser:    parser,
		meta:      meta,
		exec:      exec,
		repo:      opts.Repository,
		schedules: make(map[string]*entry),
		events:    make(map[string]*metadata.ScheduleEvent),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// Initialize registers the persisted schedules and events. A persisted
// schedule that no longer parses is logged and skipped.
func (s *Scheduler) Initialize(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	schedules, err := s.repo.ListSchedules(ctx)
	if err != nil {
		return fmt.Errorf("loading schedules: %w", err)
	}
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("loading schedule events: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sched := range schedules {
		cs, err := s.parse(sched)
		if err != nil {
			s.logger.Warn("skipping persisted schedule", "name", sched.Name, "error", err)
			continue
		}
		s.installLocked(sched, cs)
	}
	for i := range events {
		ev := events[i]
		s.events[ev.ID] = &ev
	}

	s.logger.Info("schedules loaded", "schedules", len(s.schedules), "events", len(s.events))
	return nil
}

// Start begins firing schedules in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts the runner and waits for running executions or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with executions running")
	}
}

// AddSchedule registers and persists sched, replacing any schedule with the
// same ID or name.
func (s *Scheduler) AddSchedule(ctx context.Context, sched metadata.Schedule) error {
	cs, err := s.parse(sched)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.SaveSchedule(ctx, &sched); err != nil {
			return fmt.Errorf("persisting schedule %s: %w", sched.Name, err)
		}
	}
	s.installLocked(sched, cs)
	return nil
}

// parse resolves a schedule's cron expression or frequency.
func (s *Scheduler) parse(sched metadata.Schedule) (cron.Schedule, error) {
	spec, err := cronSpec(sched.Cron, sched.Frequency)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", sched.Name, err)
	}
	cs, err := s.parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w: %v", sched.Name, ErrInvalidSchedule, err)
	}
	return cs, nil
}

func (s *Scheduler) installLocked(sched metadata.Schedule, cs cron.Schedule) {
	for existingID, e := range s.schedules {
		if existingID == sched.ID || e.schedule.Name == sched.Name {
			s.cron.Remove(e.cronID)
			delete(s.schedules, existingID)
		}
	}
	id := sched.ID
	cronID := s.cron.Schedule(cs, cron.FuncJob(func() { s.fire(id) }))
	s.schedules[sched.ID] = &entry{schedule: sched, cronID: cronID}

	s.logger.Info("schedule registered", "id", sched.ID, "name", sched.Name)
}

// RemoveSchedule unregisters a schedule by ID. Events attached to it stay
// registered and resume if a schedule with the same name is added again.
func (s *Scheduler) RemoveSchedule(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.schedules[id]
	if !ok {
		return false, nil
	}
	if s.repo != nil {
		if err := s.repo.DeleteSchedule(ctx, id); err != nil {
			return false, err
		}
	}
	s.cron.Remove(e.cronID)
	delete(s.schedules, id)

	s.logger.Info("schedule removed", "id", id, "name", e.schedule.Name)
	return true, nil
}

// AddEvent registers and persists a schedule event, replacing one with the
// same ID.
func (s *Scheduler) AddEvent(ctx context.Context, ev metadata.ScheduleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.SaveEvent(ctx, &ev); err != nil {
			return fmt.Errorf("persisting schedule event %s: %w", ev.Name, err)
		}
	}
	c := ev
	s.events[ev.ID] = &c
	s.logger.Info("schedule event registered", "id", ev.ID, "name", ev.Name, "schedule", ev.Schedule)
	return nil
}

// RemoveEvent unregisters a schedule event by ID.
func (s *Scheduler) RemoveEvent(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return false, nil
	}
	if s.repo != nil {
		if err := s.repo.DeleteEvent(ctx, id); err != nil {
			return false, err
		}
	}
	delete(s.events, id)

	s.logger.Info("schedule event removed", "id", id, "name", ev.Name)
	return true, nil
}

// Schedules returns the registered schedules ordered by name.
func (s *Scheduler) Schedules() []metadata.Schedule {
	s.mu.Lock()
	out := make([]metadata.Schedule, 0, len(s.schedules))
	for _, e := range s.schedules {
		out = append(out, e.schedule)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Events returns the events attached to the named schedule, ordered by name.
func (s *Scheduler) Events(scheduleName string) []metadata.ScheduleEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventsLocked(scheduleName)
}

func (s *Scheduler) eventsLocked(scheduleName string) []metadata.ScheduleEvent {
	var out []metadata.ScheduleEvent
	for _, ev := range s.events {
		if ev.Schedule == scheduleName {
			out = append(out, *ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) hasScheduleNamed(name string) bool {
	for _, e := range s.schedules {
		if e.schedule.Name == name {
			return true
		}
	}
	return false
}

// fire runs every event attached to the schedule. Run-once schedules are
// removed after their first firing.
func (s *Scheduler) fire(id string) {
	s.fireAt(id, time.Now())
}

func (s *Scheduler) fireAt(id string, now time.Time) {
	s.mu.Lock()
	e, ok := s.schedules[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	sched := e.schedule
	if !withinWindow(sched, now) {
		s.mu.Unlock()
		s.logger.Debug("schedule outside its window", "name", sched.Name)
		return
	}
	events := s.eventsLocked(sched.Name)
	if sched.RunOnce {
		s.cron.Remove(e.cronID)
		delete(s.schedules, id)
	}
	s.mu.Unlock()

	if sched.RunOnce && s.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), executeTimeout)
		if err := s.repo.DeleteSchedule(ctx, id); err != nil {
			s.logger.Warn("forgetting run-once schedule failed", "name", sched.Name, "error", err)
		}
		cancel()
	}

	s.logger.Debug("schedule fired", "name", sched.Name, "events", len(events))

	for _, ev := range events {
		ctx, cancel := context.WithTimeout(context.Background(), executeTimeout)
		if err := s.exec.Execute(ctx, sched, ev); err != nil {
			s.logger.Error("schedule event failed",
				"schedule", sched.Name,
				"event", ev.Name,
				"error", err,
			)
		}
		cancel()
	}
}

// withinWindow reports whether now lies between the schedule's optional
// start and end. Unparseable bounds are ignored.
func withinWindow(sched metadata.Schedule, now time.Time) bool {
	if sched.Start != "" {
		if start, err := time.Parse(timeLayout, sched.Start); err == nil && now.Before(start) {
			return false
		}
	}
	if sched.End != "" {
		if end, err := time.Parse(timeLayout, sched.End); err == nil && now.After(end) {
			return false
		}
	}
	return true
}
