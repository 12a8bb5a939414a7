// Package lifecycle dispatches build-lifecycle events to the actions
// registered for them.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Event is a point in the build lifecycle that actions can be attached to.
type Event int

const (
	// Configure fires once the build configuration has been evaluated.
	Configure Event = iota
	// BuildProg fires after the firmware image has been produced.
	BuildProg
	// Upload fires after the image has been flashed to the device.
	Upload
)

// ErrUnknownEvent is returned by ParseEvent for names with no Event.
var ErrUnknownEvent = errors.New("unknown lifecycle event")

//nolint:gochecknoglobals // These are intended as constants.
var eventNames = map[Event]string{
	Configure: "configure",
	BuildProg: "buildprog",
	Upload:    "upload",
}

//nolint:gochecknoglobals // These are intended as constants.
var eventsByName = lo.Invert(eventNames)

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// ParseEvent maps a lifecycle event name, case-insensitively, to its Event.
func ParseEvent(name string) (Event, error) {
	if e, ok := eventsByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return e, nil
	}
	return 0, fmt.Errorf("%w %q, must be one of: %s", ErrUnknownEvent, name, strings.Join(EventNames(), ", "))
}

// Events returns every Event in lifecycle order.
func Events() []Event {
	return []Event{Configure, BuildProg, Upload}
}

// EventNames returns the names of Events() in lifecycle order.
func EventNames() []string {
	return lo.Map(Events(), func(e Event, _ int) string { return e.String() })
}
