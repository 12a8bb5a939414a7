package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yaklabco/fwhook/internal/buildctx"
	"github.com/yaklabco/fwhook/internal/buildenv"
	"github.com/yaklabco/fwhook/internal/exit"
	"github.com/yaklabco/fwhook/internal/log"
)

// Invocation is what an action is called with: the source and target of the
// step that just finished and the build environment.
type Invocation struct {
	Source []string
	Target []string
	Env    *buildenv.Environment
}

// ActionFunc is a post-action callback.
type ActionFunc func(ctx context.Context, inv Invocation) error

// Action is a named, registered ActionFunc.
type Action struct {
	Name string
	Fn   ActionFunc
}

// Registry maps events to the ordered actions attached to them.
type Registry struct {
	actions map[Event][]Action
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[Event][]Action)}
}

// AddPostAction attaches fn to event. Actions fire in the order they were
// added.
func (r *Registry) AddPostAction(event Event, name string, fn ActionFunc) {
	r.actions[event] = append(r.actions[event], Action{Name: name, Fn: fn})
	slog.Debug("post-action registered", slog.String(log.Event, event.String()), slog.String(log.Action, name))
}

// Actions returns a copy of the actions attached to event.
func (r *Registry) Actions(event Event) []Action {
	return append([]Action(nil), r.actions[event]...)
}

// ActionResult holds the outcome of a single action.
type ActionResult struct {
	Name     string
	ExitCode int
	Duration time.Duration
	Error    error
}

// Success returns true if the action completed without error.
func (r ActionResult) Success() bool {
	return r.Error == nil
}

// FireResult holds the outcome of firing an event.
type FireResult struct {
	Event     Event
	Actions   []ActionResult
	ExitCode  int
	TotalTime time.Duration
}

// Success returns true if every action that ran succeeded.
func (r FireResult) Success() bool {
	return r.ExitCode == 0
}

// Fire runs the actions attached to event sequentially and stops at the
// first failure. The returned error wraps the failing action's error and
// keeps its exit status.
func (r *Registry) Fire(ctx context.Context, event Event, inv Invocation) (*FireResult, error) {
	startTime := time.Now()
	result := &FireResult{Event: event}
	ctx = buildctx.WithEvent(ctx, event.String())

	actions := r.actions[event]
	slog.Debug("firing event",
		slog.String(log.Event, event.String()),
		slog.Int("action_count", len(actions)))

	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			result.TotalTime = time.Since(startTime)
			return result, fmt.Errorf("%s: %w", event, err)
		}

		actionStart := time.Now()
		err := action.Fn(ctx, inv)
		actionResult := ActionResult{
			Name:     action.Name,
			ExitCode: exit.Status(err),
			Duration: time.Since(actionStart),
			Error:    err,
		}
		result.Actions = append(result.Actions, actionResult)

		slog.Debug("post-action completed",
			slog.String(log.Event, event.String()),
			slog.String(log.Action, action.Name),
			slog.Int(log.ExitCode, actionResult.ExitCode),
			slog.Duration(log.Duration, actionResult.Duration))

		if !actionResult.Success() {
			result.ExitCode = actionResult.ExitCode
			result.TotalTime = time.Since(startTime)
			return result, exit.Fatalf(result.ExitCode, "%s post-action %s: %w", event, action.Name, err)
		}
	}

	result.TotalTime = time.Since(startTime)
	return result, nil
}
