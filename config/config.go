package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/yaklabco/fwhook/internal/env"
)

// Config holds all fwhook configuration values.
type Config struct {
	// Interpreter runs the project scripts (node).
	Interpreter string `mapstructure:"interpreter"`

	// HostOS overrides the detected host OS identifier when non-empty.
	HostOS string `mapstructure:"host_os"`

	// Verbose echoes every child command before it runs.
	Verbose bool `mapstructure:"verbose"`

	// Debug enables debug messages.
	Debug bool `mapstructure:"debug"`

	// DryRun prints child commands instead of running them.
	DryRun bool `mapstructure:"dry_run"`

	Tool         ToolConfig         `mapstructure:"tool"`
	Scripts      ScriptsConfig      `mapstructure:"scripts"`
	CopyFirmware CopyFirmwareConfig `mapstructure:"copy_firmware"`
	OTA          OTAConfig          `mapstructure:"ota"`

	// Env is added to the environment of every child process.
	Env map[string]string `mapstructure:"env"`

	// Build is the command `fwhook run` uses to produce the firmware image.
	Build CommandConfig `mapstructure:"build"`

	// Upload is the command `fwhook run --upload` uses to flash the device.
	Upload CommandConfig `mapstructure:"upload"`

	Watch WatchConfig `mapstructure:"watch"`

	// configFile is the path to the config file that was loaded (if any).
	configFile string
}

// ToolConfig locates the bundled filesystem-image tool.
type ToolConfig struct {
	Dir  string `mapstructure:"dir"`
	Name string `mapstructure:"name"`
}

// ScriptsConfig holds the script paths, relative to the project root.
type ScriptsConfig struct {
	APTools      string `mapstructure:"ap_tools"`
	ReplaceHTML  string `mapstructure:"replace_html"`
	CopyFirmware string `mapstructure:"copy_firmware"`
	AutoOTA      string `mapstructure:"auto_ota"`
}

// CopyFirmwareConfig configures the firmware-copy post-action.
type CopyFirmwareConfig struct {
	// Arg selects what the script receives: CopyArgBootloader or CopyArgProjectRoot.
	Arg string `mapstructure:"arg"`
}

// OTAConfig configures the OTA post-action.
type OTAConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// CommandConfig is an argv run as a pipeline stage.
type CommandConfig struct {
	Command []string `mapstructure:"command"`
}

// WatchConfig configures `fwhook watch`.
type WatchConfig struct {
	Patterns []string `mapstructure:"patterns"`
}

// ConfigFile returns the path to the configuration file that was loaded,
// or an empty string if no file was loaded.
func (c *Config) ConfigFile() string {
	return c.configFile
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ProjectDir is the directory to search for fwhook.yaml.
	// If empty, the current working directory is used.
	ProjectDir string

	// Stderr is where warnings are written.
	// If nil, os.Stderr is used.
	Stderr io.Writer

	SkipProjectConfig bool
	SkipUserConfig    bool
	SkipEnv           bool
}

// Load reads configuration from all sources and returns a Config struct.
// Later sources override earlier ones:
//  1. Defaults
//  2. User config file (~/.config/fwhook/config.yaml)
//  3. Project config file (./fwhook.yaml)
//  4. FWHOOK_* environment variables
//
// If opts is nil, default options are used.
func Load(opts *LoadOptions) (*Config, error) {
	if opts == nil {
		opts = &LoadOptions{}
	}

	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	viperInstance := viper.New()

	setDefaults(viperInstance)
	viperInstance.SetConfigType("yaml")

	var configFileUsed string

	if !opts.SkipUserConfig {
		paths := ResolveXDGPaths()
		viperInstance.SetConfigName(ConfigFileName)
		viperInstance.AddConfigPath(paths.ConfigDir())

		if err := viperInstance.ReadInConfig(); err != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) {
				return nil, fmt.Errorf("failed to read user config file: %w", err)
			}
		} else {
			configFileUsed = viperInstance.ConfigFileUsed()
		}
	}

	if !opts.SkipProjectConfig {
		projectDir := opts.ProjectDir
		if projectDir == "" {
			var err error
			projectDir, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		projectConfigPath := ProjectConfigPath(projectDir)
		if _, err := os.Stat(projectConfigPath); err == nil {
			viperInstance.SetConfigFile(projectConfigPath)
			if err := viperInstance.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read project config file: %w", err)
			}
			configFileUsed = projectConfigPath
		}
	}

	var cfg Config
	if err := viperInstance.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// viper lower-cases map keys; environment variable names are upper case.
	cfg.Env = lo.MapKeys(cfg.Env, func(_ string, key string) string {
		return strings.ToUpper(key)
	})

	if !opts.SkipEnv {
		applyEnvironmentOverrides(&cfg)
	}

	cfg.configFile = configFileUsed

	result := cfg.Validate()
	if result.HasWarnings() {
		result.WriteWarnings(opts.Stderr)
	}
	if result.HasErrors() {
		return nil, errors.New(result.ErrorMessage())
	}

	return &cfg, nil
}

// Environment variables that override configuration values.
const (
	EnvInterpreter     = "FWHOOK_INTERPRETER"
	EnvHostOS          = "FWHOOK_HOST_OS"
	EnvVerbose         = "FWHOOK_VERBOSE"
	EnvDebug           = "FWHOOK_DEBUG"
	EnvDryRun          = "FWHOOK_DRYRUN"
	EnvOTA             = "FWHOOK_OTA"
	EnvCopyFirmwareArg = "FWHOOK_COPY_FIRMWARE_ARG"
)

// applyEnvironmentOverrides applies environment variable overrides to the config.
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv(EnvInterpreter); v != "" {
		cfg.Interpreter = v
	}
	if v := os.Getenv(EnvHostOS); v != "" {
		cfg.HostOS = v
	}
	if v := os.Getenv(EnvCopyFirmwareArg); v != "" {
		cfg.CopyFirmware.Arg = v
	}
	if v, ok := env.LookupBool(EnvVerbose); ok {
		cfg.Verbose = v
	}
	if v, ok := env.LookupBool(EnvDebug); ok {
		cfg.Debug = v
	}
	if v, ok := env.LookupBool(EnvDryRun); ok {
		cfg.DryRun = v
	}
	if v, ok := env.LookupBool(EnvOTA); ok {
		cfg.OTA.Enabled = v
	}
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Interpreter: DefaultInterpreter,
		Tool: ToolConfig{
			Dir:  DefaultToolDir,
			Name: DefaultToolName,
		},
		Scripts: ScriptsConfig{
			APTools:      DefaultAPToolsScript,
			ReplaceHTML:  DefaultReplaceHTMLScript,
			CopyFirmware: DefaultCopyFirmwareScript,
			AutoOTA:      DefaultAutoOTAScript,
		},
		CopyFirmware: CopyFirmwareConfig{Arg: DefaultCopyFirmwareArg},
		OTA:          OTAConfig{Enabled: DefaultOTAEnabled},
		Build:        CommandConfig{Command: DefaultBuildCommand()},
		Upload:       CommandConfig{Command: DefaultUploadCommand()},
		Watch:        WatchConfig{Patterns: DefaultWatchPatterns()},
	}
}

// WriteProjectConfig writes a commented default fwhook.yaml into projectDir.
func WriteProjectConfig(projectDir string) (string, error) {
	configPath := ProjectConfigPath(projectDir)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigYAML()), 0o600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}

// defaultConfigYAML returns the default configuration as YAML.
func defaultConfigYAML() string {
	return `# fwhook configuration

# Interpreter for the project scripts.
interpreter: node

# Override the detected host OS (darwin, windows, linux, ...).
# host_os: darwin

verbose: false
debug: false
dry_run: false

# Bundled filesystem-image tool, used on darwin and windows hosts.
tool:
  dir: tools
  name: mklittlefs

# Script paths relative to the project root.
scripts:
  ap_tools: ap/tools.js
  replace_html: scripts/replaceHtml.js
  copy_firmware: scripts/copyFirmware.js
  auto_ota: scripts/autoOTA.js

# What the firmware-copy script receives: bootloader or project_root.
copy_firmware:
  arg: bootloader

# Run the OTA script after buildprog.
ota:
  enabled: true

# Extra environment for the scripts.
# env:
#   OTA_DOMAIN: ota.example.com

# Commands used by "fwhook run".
build:
  command: [pio, run]
upload:
  command: [pio, run, --target, upload]

# Asset globs that re-run the generators in "fwhook watch".
watch:
  patterns: ["ap/*.html", "ap/*.js", "ap/*.css"]
`
}
