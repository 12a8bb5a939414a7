package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
}

func (w ValidationWarning) String() string {
	return fmt.Sprintf("config warning: %s: %s", w.Field, w.Message)
}

// ValidationResults holds the results of configuration validation.
type ValidationResults struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are validation errors.
func (r ValidationResults) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are validation warnings.
func (r ValidationResults) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// ErrorMessage returns a combined error message for all validation errors.
func (r ValidationResults) ErrorMessage() string {
	if !r.HasErrors() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// WriteWarnings writes all warnings to the given writer.
func (r ValidationResults) WriteWarnings(w io.Writer) {
	for _, warn := range r.Warnings {
		_, _ = fmt.Fprintln(w, warn.String())
	}
}

func (r *ValidationResults) addError(field, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResults) addWarning(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationWarning{Field: field, Message: fmt.Sprintf(format, args...)})
}

// WatchPathSeparator is the separator watch patterns are compiled with. A '*'
// does not cross it; '**' does.
const WatchPathSeparator = '/'

// CompileWatchPattern compiles a watch.patterns entry.
func CompileWatchPattern(pattern string) (glob.Glob, error) {
	//nolint:wrapcheck // callers add the field or pattern context
	return glob.Compile(pattern, WatchPathSeparator)
}

// Validate checks the configuration for errors and warnings.
func (c *Config) Validate() ValidationResults {
	var result ValidationResults

	if strings.TrimSpace(c.Interpreter) == "" {
		result.addError("interpreter", "cannot be empty")
	}

	switch c.CopyFirmware.Arg {
	case CopyArgBootloader, CopyArgProjectRoot:
	default:
		result.addError("copy_firmware.arg", "invalid value %q, must be one of: %s, %s",
			c.CopyFirmware.Arg, CopyArgBootloader, CopyArgProjectRoot)
	}

	scripts := []struct{ field, path string }{
		{"scripts.ap_tools", c.Scripts.APTools},
		{"scripts.replace_html", c.Scripts.ReplaceHTML},
		{"scripts.copy_firmware", c.Scripts.CopyFirmware},
		{"scripts.auto_ota", c.Scripts.AutoOTA},
	}
	for _, script := range scripts {
		if strings.TrimSpace(script.path) == "" {
			result.addError(script.field, "script path cannot be empty")
		}
	}

	if strings.TrimSpace(c.Tool.Name) == "" {
		result.addError("tool.name", "cannot be empty")
	}

	for i, pattern := range c.Watch.Patterns {
		if _, err := CompileWatchPattern(pattern); err != nil {
			result.addError(fmt.Sprintf("watch.patterns[%d]", i), "invalid glob %q: %v", pattern, err)
		}
	}

	if c.HostOS != "" && c.HostOS != strings.ToLower(c.HostOS) {
		result.addWarning("host_os", "%q will be lower-cased", c.HostOS)
	}

	return result
}
