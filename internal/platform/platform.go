// Package platform picks the host-specific filesystem-image tool.
package platform

import (
	"runtime"
	"strings"
)

// Host OS identifiers that get a bundled tool.
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
)

// HostOS returns the lower-cased host OS identifier. A non-empty override
// wins over runtime.GOOS.
func HostOS(override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return strings.ToLower(v)
	}
	return strings.ToLower(runtime.GOOS)
}

// DisplayName is the human name of osID used in log output.
func DisplayName(osID string) string {
	switch osID {
	case OSDarwin:
		return "MacOS"
	case OSWindows:
		return "Windows"
	default:
		return osID
	}
}

// Tool locates the bundled tool under a project.
type Tool struct {
	// Dir is the tool directory relative to the project root.
	Dir string
	// Name is the tool binary name without extension.
	Name string
}

// DefaultTool is tools/mklittlefs.
var DefaultTool = Tool{Dir: "tools", Name: "mklittlefs"} //nolint:gochecknoglobals // default configuration value

// Select returns the tool path for osID, or current and false if osID has no
// bundled tool. root is appended to as-is, so a root with a trailing slash
// produces a double slash.
func (t Tool) Select(osID, root, current string) (string, bool) {
	switch osID {
	case OSDarwin:
		return root + "/" + t.Dir + "/" + t.Name, true
	case OSWindows:
		return root + "/" + t.Dir + "/" + t.Name + ".exe", true
	default:
		return current, false
	}
}

// SelectFSTool is DefaultTool.Select.
func SelectFSTool(osID, root, current string) (string, bool) {
	return DefaultTool.Select(osID, root, current)
}
