// Package pipeline drives a firmware build through its lifecycle:
// configure, build, buildprog post-actions, upload, upload post-actions.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yaklabco/fwhook/internal/buildctx"
	"github.com/yaklabco/fwhook/internal/buildenv"
	"github.com/yaklabco/fwhook/internal/hooks"
	"github.com/yaklabco/fwhook/internal/ish"
	"github.com/yaklabco/fwhook/internal/lifecycle"
	"github.com/yaklabco/fwhook/internal/log"
)

// ErrNoBuildCommand is returned by Run when no build command is configured.
var ErrNoBuildCommand = errors.New("no build command configured")

// ErrNoUploadCommand is returned by Run when an upload is requested but no
// upload command is configured.
var ErrNoUploadCommand = errors.New("no upload command configured")

// Driver runs the lifecycle stages strictly in sequence.
type Driver struct {
	Hooks *hooks.Hooks

	// Runner runs the build and upload commands.
	Runner ish.Runner

	// BuildCommand produces the firmware image.
	BuildCommand []string

	// UploadCommand flashes the image to the device.
	UploadCommand []string

	// BuildID tags the log lines of this run.
	BuildID string
}

// Options selects the optional stages of Run.
type Options struct {
	Upload bool
}

// Stage is the outcome of one pipeline step.
type Stage struct {
	Name     string
	Duration time.Duration
	Actions  []lifecycle.ActionResult
}

// Report lists the stages Run completed, in order.
type Report struct {
	BuildID string
	Stages  []Stage
}

// Configure evaluates the hook script against env and returns the
// registry holding its post-actions.
func (d *Driver) Configure(ctx context.Context, env *buildenv.Environment) (*lifecycle.Registry, error) {
	reg := lifecycle.NewRegistry()
	if err := d.Hooks.Evaluate(ctx, env, reg); err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}
	return reg, nil
}

// Post registers the post-actions without running the generators and fires
// event. It serves the build tool calling back after a step it ran itself.
func (d *Driver) Post(ctx context.Context, env *buildenv.Environment, event lifecycle.Event) (*lifecycle.FireResult, error) {
	reg := lifecycle.NewRegistry()
	if err := d.Hooks.Register(env, reg); err != nil {
		return nil, err
	}
	return reg.Fire(buildctx.WithBuildID(ctx, d.BuildID), event, lifecycle.Invocation{Env: env})
}

// Run executes the whole lifecycle. The report holds every stage that
// completed, also when an error is returned. A failing post-action stage is
// included with the results of the actions that ran.
func (d *Driver) Run(ctx context.Context, env *buildenv.Environment, opts Options) (*Report, error) {
	report := &Report{BuildID: d.BuildID}
	ctx = buildctx.WithBuildID(ctx, d.BuildID)

	if len(d.BuildCommand) == 0 {
		return report, ErrNoBuildCommand
	}
	if opts.Upload && len(d.UploadCommand) == 0 {
		return report, ErrNoUploadCommand
	}

	start := time.Now()
	reg, err := d.Configure(ctx, env)
	if err != nil {
		return report, err
	}
	report.add(lifecycle.Configure.String(), start, nil)

	if err := d.fire(ctx, report, reg, env, lifecycle.Configure); err != nil {
		return report, err
	}

	if err := d.command(ctx, report, "build", d.BuildCommand); err != nil {
		return report, err
	}
	if err := d.fire(ctx, report, reg, env, lifecycle.BuildProg); err != nil {
		return report, err
	}

	if !opts.Upload {
		return report, nil
	}

	if err := d.command(ctx, report, "upload", d.UploadCommand); err != nil {
		return report, err
	}
	if err := d.fire(ctx, report, reg, env, lifecycle.Upload); err != nil {
		return report, err
	}

	return report, nil
}

func (d *Driver) command(ctx context.Context, report *Report, name string, argv []string) error {
	slog.Info("running "+name, slog.String(log.BuildID, d.BuildID), slog.Any(log.Cmd, argv))
	start := time.Now()
	if err := d.Runner.Run(ctx, argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	report.add(name, start, nil)
	return nil
}

func (d *Driver) fire(
	ctx context.Context,
	report *Report,
	reg *lifecycle.Registry,
	env *buildenv.Environment,
	event lifecycle.Event,
) error {
	if len(reg.Actions(event)) == 0 {
		return nil
	}
	slog.Info("post-actions", slog.String(log.BuildID, d.BuildID), slog.String(log.Event, event.String()))
	start := time.Now()
	result, err := reg.Fire(ctx, event, lifecycle.Invocation{Env: env})
	if result != nil {
		report.add("post:"+event.String(), start, result.Actions)
	}
	return err
}

func (r *Report) add(name string, start time.Time, actions []lifecycle.ActionResult) {
	r.Stages = append(r.Stages, Stage{Name: name, Duration: time.Since(start), Actions: actions})
}

// StageNames returns the names of the completed stages.
func (r *Report) StageNames() []string {
	names := make([]string, 0, len(r.Stages))
	for _, s := range r.Stages {
		names = append(names, s.Name)
	}
	return names
}
