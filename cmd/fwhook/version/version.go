package version

import (
	"context"
	"runtime/debug"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/yaklabco/fwhook/pkg/ui"
)

// Version is the CLI version. It can be overridden at build time via:
//
//	-ldflags "-X github.com/yaklabco/fwhook/cmd/fwhook/version.Version=v0.0.0"
var Version = "dev" //nolint:gochecknoglobals // Populated by goreleaser ldflags.

// Commit is the git commit hash, set the same way as Version.
var Commit = "" //nolint:gochecknoglobals // Populated by goreleaser ldflags.

// EffectiveVersion returns the ldflags version, else the module version from
// Go build info, else the VCS revision, else "dev".
func EffectiveVersion(_ context.Context) string {
	v := strings.TrimSpace(Version)
	if v != "" && v != "dev" {
		return v
	}

	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		if mv := strings.TrimSpace(bi.Main.Version); mv != "" && mv != "(devel)" {
			return mv
		}
		var rev, dirty string
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				if s.Value == "true" {
					dirty = "-dirty"
				}
			}
		}
		if rev != "" {
			return rev + dirty
		}
	}

	return "dev"
}

// EffectiveCommit returns Commit, else the VCS revision from Go build info.
func EffectiveCommit(_ context.Context) string {
	if c := strings.TrimSpace(Commit); c != "" {
		return c
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return ""
}

// OverallVersionStringColorized renders a version line with fang-consistent colors.
func OverallVersionStringColorized(ctx context.Context) string {
	cs := ui.GetFangScheme()

	versionStyle := lipgloss.NewStyle().Foreground(cs.QuotedString)
	commitStyle := lipgloss.NewStyle().Foreground(cs.Program)
	sepStyle := lipgloss.NewStyle().Foreground(cs.Base)

	parts := []string{versionStyle.Render(EffectiveVersion(ctx))}
	if c := EffectiveCommit(ctx); c != "" && c != EffectiveVersion(ctx) {
		parts = append(parts, commitStyle.Render(c))
	}

	return strings.Join(parts, sepStyle.Render("-"))
}
