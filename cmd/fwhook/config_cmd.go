package fwhook

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yaklabco/fwhook/config"
	"github.com/yaklabco/fwhook/internal/env"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage fwhook configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			writeConfig(cmd.OutOrStdout(), a.cfg)
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				writeConfig(cmd.OutOrStdout(), a.cfg)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a default fwhook.yaml into the project directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := config.WriteProjectConfig(a.env.ProjectDir)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the configuration file paths",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				out := cmd.OutOrStdout()
				paths := config.ResolveXDGPaths()
				_, _ = fmt.Fprintln(out, "Configuration Paths:")
				_, _ = fmt.Fprintf(out, "  User config:    %s\n", paths.ConfigFilePath())
				_, _ = fmt.Fprintf(out, "  Project config: %s\n", config.ProjectConfigPath(a.env.ProjectDir))
				if a.cfg.ConfigFile() != "" {
					_, _ = fmt.Fprintf(out, "\nActive config file: %s\n", a.cfg.ConfigFile())
				} else {
					_, _ = fmt.Fprintln(out, "\nNo config file currently loaded (using defaults)")
				}
				return nil
			},
		},
	)

	return cmd
}

// writeConfig prints the effective configuration as YAML.
func writeConfig(w io.Writer, cfg *config.Config) {
	_, _ = fmt.Fprintln(w, "# Effective fwhook configuration")
	if cfg.ConfigFile() != "" {
		_, _ = fmt.Fprintf(w, "# Loaded from: %s\n", cfg.ConfigFile())
	} else {
		_, _ = fmt.Fprintln(w, "# (using defaults, no config file found)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "interpreter: %s\n", cfg.Interpreter)
	_, _ = fmt.Fprintf(w, "host_os: %s\n", cfg.HostOS)
	_, _ = fmt.Fprintf(w, "verbose: %v\n", cfg.Verbose)
	_, _ = fmt.Fprintf(w, "debug: %v\n", cfg.Debug)
	_, _ = fmt.Fprintf(w, "dry_run: %v\n", cfg.DryRun)
	_, _ = fmt.Fprintf(w, "tool:\n  dir: %s\n  name: %s\n", cfg.Tool.Dir, cfg.Tool.Name)
	_, _ = fmt.Fprintln(w, "scripts:")
	_, _ = fmt.Fprintf(w, "  ap_tools: %s\n", cfg.Scripts.APTools)
	_, _ = fmt.Fprintf(w, "  replace_html: %s\n", cfg.Scripts.ReplaceHTML)
	_, _ = fmt.Fprintf(w, "  copy_firmware: %s\n", cfg.Scripts.CopyFirmware)
	_, _ = fmt.Fprintf(w, "  auto_ota: %s\n", cfg.Scripts.AutoOTA)
	_, _ = fmt.Fprintf(w, "copy_firmware:\n  arg: %s\n", cfg.CopyFirmware.Arg)
	_, _ = fmt.Fprintf(w, "ota:\n  enabled: %v\n", cfg.OTA.Enabled)
	if len(cfg.Env) > 0 {
		_, _ = fmt.Fprintln(w, "env:")
		for _, assignment := range env.ToAssignments(cfg.Env) {
			key, value, _ := strings.Cut(assignment, "=")
			_, _ = fmt.Fprintf(w, "  %s: %s\n", key, value)
		}
	}
	_, _ = fmt.Fprintf(w, "build:\n  command: [%s]\n", strings.Join(cfg.Build.Command, ", "))
	_, _ = fmt.Fprintf(w, "upload:\n  command: [%s]\n", strings.Join(cfg.Upload.Command, ", "))
	_, _ = fmt.Fprintf(w, "watch:\n  patterns: [%s]\n", strings.Join(cfg.Watch.Patterns, ", "))
}
