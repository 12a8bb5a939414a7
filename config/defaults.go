package config

import (
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	// DefaultInterpreter runs the project's asset and firmware scripts.
	DefaultInterpreter = "node"

	// DefaultToolDir is the bundled tool directory, relative to the project root.
	DefaultToolDir = "tools"

	// DefaultToolName is the filesystem-image tool binary name.
	DefaultToolName = "mklittlefs"

	// Script paths, relative to the project root.
	DefaultAPToolsScript      = "ap/tools.js"
	DefaultReplaceHTMLScript  = "scripts/replaceHtml.js"
	DefaultCopyFirmwareScript = "scripts/copyFirmware.js"
	DefaultAutoOTAScript      = "scripts/autoOTA.js"

	// DefaultCopyFirmwareArg passes the bootloader image path to the
	// firmware-copy script.
	DefaultCopyFirmwareArg = CopyArgBootloader

	// DefaultOTAEnabled registers the OTA post-action on buildprog.
	DefaultOTAEnabled = true
)

// Values accepted by copy_firmware.arg.
const (
	CopyArgBootloader  = "bootloader"
	CopyArgProjectRoot = "project_root"
)

// DefaultWatchPatterns are the asset globs, relative to the project root,
// that trigger the pre-build generators in watch mode.
func DefaultWatchPatterns() []string {
	return []string{"ap/*.html", "ap/*.js", "ap/*.css"}
}

// DefaultBuildCommand builds the firmware image.
func DefaultBuildCommand() []string {
	return []string{"pio", "run"}
}

// DefaultUploadCommand flashes the firmware image.
func DefaultUploadCommand() []string {
	return []string{"pio", "run", "--target", "upload"}
}

// setDefaults configures default values in the viper instance.
func setDefaults(viperInstance *viper.Viper) {
	viperInstance.SetDefault("interpreter", DefaultInterpreter)
	viperInstance.SetDefault("host_os", "")
	viperInstance.SetDefault("verbose", false)
	viperInstance.SetDefault("debug", false)
	viperInstance.SetDefault("dry_run", false)
	viperInstance.SetDefault("tool.dir", DefaultToolDir)
	viperInstance.SetDefault("tool.name", DefaultToolName)
	viperInstance.SetDefault("scripts.ap_tools", DefaultAPToolsScript)
	viperInstance.SetDefault("scripts.replace_html", DefaultReplaceHTMLScript)
	viperInstance.SetDefault("scripts.copy_firmware", DefaultCopyFirmwareScript)
	viperInstance.SetDefault("scripts.auto_ota", DefaultAutoOTAScript)
	viperInstance.SetDefault("copy_firmware.arg", DefaultCopyFirmwareArg)
	viperInstance.SetDefault("ota.enabled", DefaultOTAEnabled)
	viperInstance.SetDefault("build.command", DefaultBuildCommand())
	viperInstance.SetDefault("upload.command", DefaultUploadCommand())
	viperInstance.SetDefault("watch.patterns", DefaultWatchPatterns())
}
