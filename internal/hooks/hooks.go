// Package hooks is the build-hook script of the firmware project: it picks the
// filesystem-image tool for the host, runs the pre-build asset generators and
// attaches the firmware-copy and OTA post-actions to the build lifecycle.
package hooks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yaklabco/fwhook/config"
	"github.com/yaklabco/fwhook/internal/buildctx"
	"github.com/yaklabco/fwhook/internal/buildenv"
	"github.com/yaklabco/fwhook/internal/ish"
	"github.com/yaklabco/fwhook/internal/lifecycle"
	"github.com/yaklabco/fwhook/internal/log"
	"github.com/yaklabco/fwhook/internal/platform"
)

// Post-action names.
const (
	ActionCopyFirmware = "copyFirmware"
	ActionOTA          = "ota"
)

// Hooks evaluates the build-hook script against a build environment.
type Hooks struct {
	Config *config.Config

	// Runner runs the interpreter for every script invocation.
	Runner ish.Runner
}

// New returns Hooks for cfg that run scripts through runner.
func New(cfg *config.Config, runner ish.Runner) *Hooks {
	return &Hooks{Config: cfg, Runner: runner}
}

// Evaluate does everything the hook script does when the build tool loads
// it: SelectTool, RunGenerators, then Register.
func (h *Hooks) Evaluate(ctx context.Context, env *buildenv.Environment, reg *lifecycle.Registry) error {
	h.SelectTool(env)

	if err := h.RunGenerators(ctx, env); err != nil {
		return err
	}

	return h.Register(env, reg)
}

// SelectTool points MKSPIFFSTOOL at the bundled tool on darwin and windows
// hosts. Other hosts keep the configured default.
func (h *Hooks) SelectTool(env *buildenv.Environment) {
	osID := platform.HostOS(h.Config.HostOS)
	tool := platform.Tool{Dir: h.Config.Tool.Dir, Name: h.Config.Tool.Name}

	path, ok := tool.Select(osID, env.ProjectRoot(), env.FSTool())
	if !ok {
		slog.Debug("keeping default filesystem tool",
			slog.String(log.HostOS, osID),
			slog.String(log.Tool, env.FSTool()))
		return
	}

	slog.Info("OS: "+platform.DisplayName(osID), slog.String(log.Tool, path))
	env.SetFSTool(path)
}

// RunGenerators runs the access-point asset builder and the HTML inliner, in
// that order, each with the project root as its only argument.
func (h *Hooks) RunGenerators(ctx context.Context, env *buildenv.Environment) error {
	root := env.ProjectRoot()
	for _, script := range []string{h.Config.Scripts.APTools, h.Config.Scripts.ReplaceHTML} {
		if err := h.runScript(ctx, root, script, root); err != nil {
			return err
		}
	}
	return nil
}

// Register attaches the firmware-copy action to buildprog and upload, and
// the OTA action to buildprog when OTA is enabled. The firmware-copy argument
// is resolved when the action fires, so a build environment without extra
// flash images only fails once buildprog or upload actually happens.
func (h *Hooks) Register(env *buildenv.Environment, reg *lifecycle.Registry) error {
	root := env.ProjectRoot()

	switch h.Config.CopyFirmware.Arg {
	case config.CopyArgBootloader, config.CopyArgProjectRoot, "":
	default:
		return fmt.Errorf("firmware copy: unknown argument mode %q", h.Config.CopyFirmware.Arg)
	}

	copyFirmware := func(ctx context.Context, _ lifecycle.Invocation) error {
		copyArg, err := h.copyFirmwareArg(env)
		if err != nil {
			return err
		}
		return h.runScript(ctx, root, h.Config.Scripts.CopyFirmware, copyArg)
	}
	reg.AddPostAction(lifecycle.BuildProg, ActionCopyFirmware, copyFirmware)
	reg.AddPostAction(lifecycle.Upload, ActionCopyFirmware, copyFirmware)

	if h.Config.OTA.Enabled {
		reg.AddPostAction(lifecycle.BuildProg, ActionOTA, func(ctx context.Context, _ lifecycle.Invocation) error {
			return h.runScript(ctx, root, h.Config.Scripts.AutoOTA, root)
		})
	}

	return nil
}

func (h *Hooks) copyFirmwareArg(env *buildenv.Environment) (string, error) {
	if h.Config.CopyFirmware.Arg == config.CopyArgProjectRoot {
		return env.ProjectRoot(), nil
	}
	path, err := env.BootloaderPath()
	if err != nil {
		return "", fmt.Errorf("firmware copy: %w", err)
	}
	return path, nil
}

// runScript runs `<interpreter> <root><script> <arg>`.
func (h *Hooks) runScript(ctx context.Context, root, script, arg string) error {
	slog.Debug("running script",
		slog.String(log.BuildID, buildctx.BuildID(ctx)),
		slog.String(log.Event, buildctx.Event(ctx)),
		slog.String(log.Script, script),
		slog.String(log.Args, arg))
	if err := h.Runner.Run(ctx, h.Config.Interpreter, root+script, arg); err != nil {
		return fmt.Errorf("%s: %w", script, err)
	}
	return nil
}
