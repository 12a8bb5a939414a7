package fwhook

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/yaklabco/fwhook/internal/buildenv"
	"github.com/yaklabco/fwhook/internal/lifecycle"
	"github.com/yaklabco/fwhook/internal/pipeline"
	"github.com/yaklabco/fwhook/internal/platform"
	"github.com/yaklabco/fwhook/internal/watch"
	"github.com/yaklabco/fwhook/pkg/ui"
)

func newConfigureCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Select the host filesystem tool and run the asset generators",
		Long: "Points MKSPIFFSTOOL at the bundled tool on darwin and windows hosts, then runs\n" +
			"the access-point asset builder and the HTML inliner with the project root.\n" +
			"When the tool was overridden, MKSPIFFSTOOL=<path> is printed to stdout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.driver().Configure(cmd.Context(), a.env); err != nil {
				return err
			}
			if a.env.FSToolOverridden() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", buildenv.KeyFSTool, a.env.FSTool())
			}
			return nil
		},
	}
}

func newPostCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "post <event>",
		Short:     "Run the post-actions of a lifecycle event (buildprog, upload)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: lifecycle.EventNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := lifecycle.ParseEvent(args[0])
			if err != nil {
				return err
			}
			result, err := a.driver().Post(cmd.Context(), a.env, event)
			if err != nil {
				return err
			}
			if a.cfg.Verbose {
				writeActions(cmd.ErrOrStderr(), result.Actions)
			}
			return nil
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	var opts pipeline.Options
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole lifecycle: configure, build, buildprog and optionally upload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.driver().Run(cmd.Context(), a.env, opts)
			writeReport(cmd.OutOrStdout(), report)
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.Upload, "upload", false, "upload the firmware after building it")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the asset generators whenever a watched asset changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			watcher, err := watch.New(a.env.ProjectDir, a.cfg.Watch.Patterns, debounce)
			if err != nil {
				return err
			}

			h := a.hooks()
			if err := h.RunGenerators(cmd.Context(), a.env); err != nil {
				return err
			}
			return watcher.Run(cmd.Context(), func(ctx context.Context, _ string) error {
				return h.RunGenerators(ctx, a.env)
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-running the generators")
	return cmd
}

func newEnvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the resolved build environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.hooks().SelectTool(a.env)

			keyStyle, valueStyle := ui.KeyValueStyles()
			out := cmd.OutOrStdout()
			for _, key := range buildenv.Keys() {
				value, _ := a.env.Get(key)
				_, _ = fmt.Fprintln(out, keyStyle.Render(key)+valueStyle.Render(value))
			}
			_, _ = fmt.Fprintln(out, keyStyle.Render("HOST_OS")+valueStyle.Render(platform.HostOS(a.cfg.HostOS)))
			_, _ = fmt.Fprintln(out, keyStyle.Render(EnvBuildID)+valueStyle.Render(a.buildID))
			return nil
		},
	}
}

func writeActions(w io.Writer, actions []lifecycle.ActionResult) {
	for _, action := range actions {
		_, _ = fmt.Fprintf(w, "  %-14s %s\n", action.Name, action.Duration.Round(time.Millisecond))
	}
}

func writeReport(w io.Writer, report *pipeline.Report) {
	if report == nil {
		return
	}
	for _, stage := range report.Stages {
		_, _ = fmt.Fprintf(w, "%-16s %s\n", stage.Name, stage.Duration.Round(time.Millisecond))
		writeActions(w, stage.Actions)
	}
}
