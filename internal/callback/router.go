package callback

import (
	"context"
	"fmt"
)

// Logger defines the logging interface used by the Router.
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

// operation is one cell of the dispatch table.
type operation func(ctx context.Context, n Notification) (bool, error)

// Router dispatches notifications through a kind -> verb -> operation table.
// The table is built once by NewRouter and never mutated.
type Router struct {
	table  map[ResourceKind]map[Verb]operation
	logger Logger
}

// NewRouter builds the dispatch table for the given handlers.
func NewRouter(h Handlers) *Router {
	r := &Router{
		table:  make(map[ResourceKind]map[Verb]operation),
		logger: noopLogger{},
	}

	if h.Devices != nil {
		r.register(KindDevice, VerbPost, byID(h.Devices.AddDevice))
		r.register(KindDevice, VerbPut, byID(h.Devices.UpdateDevice))
		r.register(KindDevice, VerbDelete, byID(h.Devices.DeleteDevice))
	}
	if h.Watchers != nil {
		r.register(KindProvisionWatcher, VerbPost, byID(h.Watchers.AddWatcher))
		r.register(KindProvisionWatcher, VerbPut, byID(h.Watchers.UpdateWatcher))
		r.register(KindProvisionWatcher, VerbDelete, byID(h.Watchers.RemoveWatcher))
	}
	if h.Profiles != nil {
		r.register(KindProfile, VerbPut, byID(h.Profiles.UpdateProfile))
	}
	if h.Schedules != nil {
		for _, kind := range []ResourceKind{KindSchedule, KindScheduleEvent} {
			r.register(kind, VerbPost, h.Schedules.HandlePost)
			r.register(kind, VerbPut, h.Schedules.HandlePut)
			r.register(kind, VerbDelete, h.Schedules.HandleDelete)
		}
	}

	return r
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

func (r *Router) register(kind ResourceKind, verb Verb, op operation) {
	verbs, ok := r.table[kind]
	if !ok {
		verbs = make(map[Verb]operation)
		r.table[kind] = verbs
	}
	verbs[verb] = op
}

func byID(fn func(ctx context.Context, id string) (bool, error)) operation {
	return func(ctx context.Context, n Notification) (bool, error) {
		return fn(ctx, n.ID)
	}
}

// Supports reports whether kind and verb select a handler operation.
func (r *Router) Supports(kind ResourceKind, verb Verb) bool {
	_, ok := r.table[kind][verb]
	return ok
}

// Handle routes one notification received with the given verb.
//
// A nil notification is a no-op reported as StatusEmpty. A notification
// missing its type or id, or an empty verb, is rejected before any handler
// runs. Handler calls are detached from ctx cancellation so a dispatched
// change always runs to completion.
//
// Parameters:
//   - ctx: Request context; its values are kept, its cancellation is not
//   - verb: HTTP method of the callback request
//   - n: Decoded body, nil when the request had none
//
// Returns:
//   - Outcome: How the notification was classified
//   - error: Non-nil only when the handler itself failed
func (r *Router) Handle(ctx context.Context, verb Verb, n *Notification) (Outcome, error) {
	if n == nil {
		r.logger.Error("no data supplied to callback", "verb", verb)
		return Outcome{Status: StatusEmpty}, nil
	}

	if !n.valid() || verb == "" {
		r.logger.Error("callback parameters were missing",
			"verb", verb,
			"type", n.Type,
			"id", n.ID,
		)
		return Outcome{Status: StatusRejected}, nil
	}

	op, ok := r.table[n.Type][verb]
	if !ok {
		r.logger.Debug("callback ignored", "verb", verb, "type", n.Type, "id", n.ID)
		return Outcome{Status: StatusIgnored, Kind: n.Type, ID: n.ID}, nil
	}

	found, err := op(context.WithoutCancel(ctx), *n)
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("callback %s %s: %w", verb, n.Type.Label(), err)
	}

	if !found {
		r.logger.Error("callback resource not found",
			"verb", verb,
			"kind", n.Type.Label(),
			"id", n.ID,
		)
		return Outcome{Status: StatusNotFound, Kind: n.Type, ID: n.ID}, nil
	}

	r.logger.Info("callback handled",
		"verb", verb,
		"kind", n.Type.Label(),
		"id", n.ID,
	)
	return Outcome{Status: StatusHandled, Kind: n.Type, ID: n.ID}, nil
}
