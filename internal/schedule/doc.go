// Package schedule runs the registry's schedules and schedule events.
//
// A schedule is a timer driven either by a cron expression or by an
// ISO 8601 frequency ("PT15S" becomes "@every 15s"). Schedule events attach
// to a schedule by name; each time the schedule fires, every attached event
// is handed to the Executor.
//
// Scheduler implements callback.ScheduleHandler: registry callbacks for
// SCHEDULE and SCHEDULEEVENT resources add, replace or remove entries while
// the cron runner is live.
//
// With a Repository configured, every registered schedule and event is also
// written to SQLite, and Initialize restores them before Start.
package schedule
