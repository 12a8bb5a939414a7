package fwhook

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/yaklabco/fwhook/cmd/fwhook/version"
	"github.com/yaklabco/fwhook/config"
	"github.com/yaklabco/fwhook/internal/buildenv"
	"github.com/yaklabco/fwhook/internal/env"
	"github.com/yaklabco/fwhook/internal/hooks"
	"github.com/yaklabco/fwhook/internal/ish"
	"github.com/yaklabco/fwhook/internal/log"
	"github.com/yaklabco/fwhook/internal/pipeline"
)

const (
	shortDescription = "fwhook runs the build hooks of a PlatformIO firmware project: " +
		"host tool selection, asset generation and post-build firmware handling."
)

// Environment variables the build tool exports, used as flag defaults.
const (
	EnvProjectDir       = buildenv.KeyProjectDir
	EnvFSTool           = buildenv.KeyFSTool
	EnvFlashExtraImages = buildenv.KeyFlashExtraImages

	// EnvBuildID is exported to every child process.
	EnvBuildID = "FWHOOK_BUILD_ID"
)

// defaultFSTool is used when neither --fs-tool nor MKSPIFFSTOOL is set.
const defaultFSTool = "mklittlefs"

// RunParams holds the global flags.
type RunParams struct {
	ProjectDir  string
	FlashImages []string
	FSTool      string
	HostOS      string
	Interpreter string
	DryRun      bool
	Verbose     bool
	Debug       bool
}

type rootCmdOptions struct {
	runner ish.Runner
}

type Option func(*rootCmdOptions)

// This is intentionally designed to be unusable from outside this package,
// as it exists purely for testing purposes.
func withRunner(runner ish.Runner) Option {
	return func(opts *rootCmdOptions) {
		opts.runner = runner
	}
}

// app is the state shared by the subcommands once the global flags have
// been resolved.
type app struct {
	params  RunParams
	opts    *rootCmdOptions
	cfg     *config.Config
	env     *buildenv.Environment
	runner  ish.Runner
	buildID string
}

func NewRootCmd(ctx context.Context, opts ...Option) *cobra.Command {
	rootCmdOpts := &rootCmdOptions{}
	for _, opt := range opts {
		opt(rootCmdOpts)
	}

	theApp := &app{opts: rootCmdOpts}
	rootCmd := &cobra.Command{
		Use:   "fwhook [flags] <command>",
		Short: shortDescription,
		Example: `	# Select the host tool and generate assets before compiling
	fwhook configure

	# Post-build actions, called by the build tool
	fwhook post buildprog --flash-image 0x1000=.pio/build/esp32dev/bootloader.bin
	fwhook post upload

	# Whole lifecycle: configure, build, buildprog, upload, upload
	fwhook run --upload

	# Regenerate the AP page while editing it
	fwhook watch`,
		Version: version.OverallVersionStringColorized(ctx),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return theApp.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&theApp.params.ProjectDir, "project-dir", "C", os.Getenv(EnvProjectDir), "PlatformIO project directory (default: current directory)")
	flags.StringSliceVar(&theApp.params.FlashImages, "flash-image", splitList(os.Getenv(EnvFlashExtraImages)), "extra flash image as offset=path, bootloader first (repeatable)")
	flags.StringVar(&theApp.params.FSTool, "fs-tool", lo.CoalesceOrEmpty(os.Getenv(EnvFSTool), defaultFSTool), "default filesystem-image tool")
	flags.StringVar(&theApp.params.HostOS, "host-os", "", "override the detected host OS")
	flags.StringVar(&theApp.params.Interpreter, "interpreter", "", "interpreter for the project scripts")
	flags.BoolVar(&theApp.params.DryRun, "dryrun", false, "print commands instead of executing them")
	flags.BoolVarP(&theApp.params.Verbose, "verbose", "v", false, "echo every command before running it")
	flags.BoolVarP(&theApp.params.Debug, "debug", "d", false, "turn on debug messages")

	rootCmd.AddCommand(
		newConfigureCmd(theApp),
		newPostCmd(theApp),
		newRunCmd(theApp),
		newWatchCmd(theApp),
		newEnvCmd(theApp),
		newConfigCmd(theApp),
	)

	return rootCmd
}

// ExecuteWithFang runs the root Cobra command with Fang-specific options.
func ExecuteWithFang(ctx context.Context, rootCmd *cobra.Command) error {
	//nolint:wrapcheck // top-level error from cobra, wrapping not needed
	return fang.Execute(
		ctx, rootCmd,
		fang.WithVersion(rootCmd.Version),
		fang.WithoutManpage(),
		fang.WithNotifySignal(os.Interrupt),
	)
}

// setup loads the configuration, applies flag overrides and builds the
// environment and runner for this invocation.
func (a *app) setup(cmd *cobra.Command) error {
	projectDir, err := resolveProjectDir(a.params.ProjectDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(&config.LoadOptions{
		ProjectDir: projectDir,
		Stderr:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	a.cfg = cfg

	log.SetupPrettyLogger(cmd.ErrOrStderr(), cfg.Debug)

	images := make([]buildenv.ImagePair, 0, len(a.params.FlashImages))
	for _, raw := range a.params.FlashImages {
		pair, err := buildenv.ParseImagePair(raw)
		if err != nil {
			return err
		}
		images = append(images, pair)
	}
	a.env = buildenv.New(projectDir, a.params.FSTool, images...)

	a.buildID = uuid.NewString()
	a.runner = a.opts.runner
	if a.runner == nil {
		a.runner = &ish.Exec{
			Env:     env.Merge(cfg.Env, map[string]string{EnvBuildID: a.buildID}),
			Dir:     projectDir,
			Stdin:   os.Stdin,
			Stdout:  cmd.OutOrStdout(),
			Stderr:  cmd.ErrOrStderr(),
			DryRun:  cfg.DryRun,
			Verbose: cfg.Verbose,
		}
	}

	slog.Debug("build environment ready",
		slog.String(log.BuildID, a.buildID),
		slog.String(log.Dir, projectDir),
		slog.String(log.Tool, a.env.FSTool()))

	return nil
}

// applyFlags lets explicitly set flags win over every config source.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host-os") {
		cfg.HostOS = a.params.HostOS
	}
	if flags.Changed("interpreter") {
		cfg.Interpreter = a.params.Interpreter
	}
	if flags.Changed("dryrun") {
		cfg.DryRun = a.params.DryRun
	}
	if flags.Changed("verbose") {
		cfg.Verbose = a.params.Verbose
	}
	if flags.Changed("debug") {
		cfg.Debug = a.params.Debug
	}
}

func (a *app) hooks() *hooks.Hooks {
	return hooks.New(a.cfg, a.runner)
}

func (a *app) driver() *pipeline.Driver {
	return &pipeline.Driver{
		Hooks:         a.hooks(),
		Runner:        a.runner,
		BuildCommand:  a.cfg.Build.Command,
		UploadCommand: a.cfg.Upload.Command,
		BuildID:       a.buildID,
	}
}

func resolveProjectDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project directory %s: %w", dir, err)
	}
	return abs, nil
}

func splitList(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}
