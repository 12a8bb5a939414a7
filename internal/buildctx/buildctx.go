// Package buildctx attaches the identity of the running build to a context so
// that child processes and log lines deep in the call chain can carry it.
package buildctx

import (
	"context"
)

type contextKey string

const (
	buildIDKey contextKey = "buildID"
	eventKey   contextKey = "event"
)

// EnvEvent names the lifecycle event being fired in the environment of every
// child started while an event fires.
const EnvEvent = "FWHOOK_EVENT"

// WithBuildID returns a new context with the build ID attached.
func WithBuildID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, buildIDKey, id)
}

// BuildID returns the build ID from the context, or empty string if not found.
func BuildID(ctx context.Context) string {
	if id, ok := ctx.Value(buildIDKey).(string); ok {
		return id
	}
	return ""
}

// WithEvent returns a new context with the name of the event being fired.
func WithEvent(ctx context.Context, event string) context.Context {
	return context.WithValue(ctx, eventKey, event)
}

// Event returns the event name from the context, or empty string outside of
// an event.
func Event(ctx context.Context) string {
	if name, ok := ctx.Value(eventKey).(string); ok {
		return name
	}
	return ""
}

// Environ returns the variables a child started under ctx should see.
func Environ(ctx context.Context) map[string]string {
	vars := map[string]string{}
	if event := Event(ctx); event != "" {
		vars[EnvEvent] = event
	}
	return vars
}
