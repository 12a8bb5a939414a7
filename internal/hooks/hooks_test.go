package hooks

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaklabco/fwhook/config"
	"github.com/yaklabco/fwhook/internal/buildenv"
	"github.com/yaklabco/fwhook/internal/exit"
	"github.com/yaklabco/fwhook/internal/lifecycle"
)

const (
	defaultTool    = "/home/u/.platformio/packages/tool-mklittlefs/mklittlefs"
	bootloaderPath = "/proj/.pio/build/esp32dev/bootloader.bin"
)

type call struct {
	cmd  string
	args []string
}

// fakeRunner records every invocation and fails those whose script path
// ends in failOn.
type fakeRunner struct {
	calls  []call
	failOn string
}

func (f *fakeRunner) Run(_ context.Context, cmd string, args ...string) error {
	f.calls = append(f.calls, call{cmd: cmd, args: args})
	if f.failOn != "" && len(args) > 0 && strings.HasSuffix(args[0], f.failOn) {
		return exit.Fatalf(2, "%s failed", f.failOn)
	}
	return nil
}

func newEnv() *buildenv.Environment {
	return buildenv.New("/proj", defaultTool,
		buildenv.ImagePair{Offset: "0x1000", Path: bootloaderPath},
		buildenv.ImagePair{Offset: "0x8000", Path: "/proj/.pio/build/esp32dev/partitions.bin"},
	)
}

func newHooks(hostOS string) (*Hooks, *fakeRunner) {
	cfg := config.DefaultConfig()
	cfg.HostOS = hostOS
	runner := &fakeRunner{}
	return New(cfg, runner), runner
}

func TestSelectTool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hostOS string
		want   string
	}{
		{hostOS: "darwin", want: "/proj//tools/mklittlefs"},
		{hostOS: "windows", want: "/proj//tools/mklittlefs.exe"},
		{hostOS: "linux", want: defaultTool},
	}
	for _, tt := range tests {
		t.Run(tt.hostOS, func(t *testing.T) {
			t.Parallel()
			h, _ := newHooks(tt.hostOS)
			env := newEnv()
			h.SelectTool(env)
			assert.Equal(t, tt.want, env.FSTool())
			assert.Equal(t, tt.hostOS != "linux", env.FSToolOverridden())
		})
	}
}

func TestSelectTool_LogsHostOS(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h, _ := newHooks("darwin")
	h.SelectTool(newEnv())
	assert.Contains(t, buf.String(), `msg="OS: MacOS"`)

	buf.Reset()
	h, _ = newHooks("windows")
	h.SelectTool(newEnv())
	assert.Contains(t, buf.String(), `msg="OS: Windows"`)

	buf.Reset()
	h, _ = newHooks("linux")
	h.SelectTool(newEnv())
	assert.NotContains(t, buf.String(), "OS:")
}

func TestEvaluate_Darwin(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("darwin")
	env := newEnv()
	reg := lifecycle.NewRegistry()

	require.NoError(t, h.Evaluate(t.Context(), env, reg))

	assert.Equal(t, "/proj//tools/mklittlefs", env.FSTool())
	assert.Equal(t, []call{
		{cmd: "node", args: []string{"/proj/ap/tools.js", "/proj/"}},
		{cmd: "node", args: []string{"/proj/scripts/replaceHtml.js", "/proj/"}},
	}, runner.calls)
}

func TestEvaluate_Linux(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("linux")
	env := newEnv()

	require.NoError(t, h.Evaluate(t.Context(), env, lifecycle.NewRegistry()))

	assert.Equal(t, defaultTool, env.FSTool())
	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"/proj/ap/tools.js", "/proj/"}, runner.calls[0].args)
	assert.Equal(t, []string{"/proj/scripts/replaceHtml.js", "/proj/"}, runner.calls[1].args)
}

func TestRunGenerators_FailureStops(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("linux")
	runner.failOn = "ap/tools.js"

	err := h.RunGenerators(t.Context(), newEnv())
	require.Error(t, err)
	assert.Equal(t, 2, exit.Status(err))
	assert.Len(t, runner.calls, 1)
}

func TestEvaluate_GeneratorFailureSkipsRegistration(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("linux")
	runner.failOn = "replaceHtml.js"
	reg := lifecycle.NewRegistry()

	require.Error(t, h.Evaluate(t.Context(), newEnv(), reg))
	assert.Empty(t, reg.Actions(lifecycle.BuildProg))
}

func actionNames(actions []lifecycle.Action) []string {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.Name)
	}
	return names
}

func TestRegister(t *testing.T) {
	t.Parallel()

	h, _ := newHooks("linux")
	reg := lifecycle.NewRegistry()

	require.NoError(t, h.Register(newEnv(), reg))

	assert.Equal(t, []string{ActionCopyFirmware, ActionOTA}, actionNames(reg.Actions(lifecycle.BuildProg)))
	assert.Equal(t, []string{ActionCopyFirmware}, actionNames(reg.Actions(lifecycle.Upload)))
	assert.Empty(t, reg.Actions(lifecycle.Configure))
}

func TestRegister_OTADisabled(t *testing.T) {
	t.Parallel()

	h, _ := newHooks("linux")
	h.Config.OTA.Enabled = false
	reg := lifecycle.NewRegistry()

	require.NoError(t, h.Register(newEnv(), reg))

	assert.Equal(t, []string{ActionCopyFirmware}, actionNames(reg.Actions(lifecycle.BuildProg)))
	assert.Equal(t, []string{ActionCopyFirmware}, actionNames(reg.Actions(lifecycle.Upload)))
}

func TestBuildProg_Bootloader(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("linux")
	env := newEnv()
	reg := lifecycle.NewRegistry()
	require.NoError(t, h.Register(env, reg))

	_, err := reg.Fire(t.Context(), lifecycle.BuildProg, lifecycle.Invocation{Env: env})
	require.NoError(t, err)

	assert.Equal(t, []call{
		{cmd: "node", args: []string{"/proj/scripts/copyFirmware.js", bootloaderPath}},
		{cmd: "node", args: []string{"/proj/scripts/autoOTA.js", "/proj/"}},
	}, runner.calls)
}

func TestUpload_CopiesOnce(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("linux")
	env := newEnv()
	reg := lifecycle.NewRegistry()
	require.NoError(t, h.Register(env, reg))

	_, err := reg.Fire(t.Context(), lifecycle.Upload, lifecycle.Invocation{Env: env})
	require.NoError(t, err)

	assert.Equal(t, []call{
		{cmd: "node", args: []string{"/proj/scripts/copyFirmware.js", bootloaderPath}},
	}, runner.calls)
}

func TestBuildProg_ProjectRootArg(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("linux")
	h.Config.CopyFirmware.Arg = config.CopyArgProjectRoot
	h.Config.OTA.Enabled = false
	env := buildenv.New("/proj", defaultTool)
	reg := lifecycle.NewRegistry()
	require.NoError(t, h.Register(env, reg))

	_, err := reg.Fire(t.Context(), lifecycle.BuildProg, lifecycle.Invocation{Env: env})
	require.NoError(t, err)

	assert.Equal(t, []call{
		{cmd: "node", args: []string{"/proj/scripts/copyFirmware.js", "/proj/"}},
	}, runner.calls)
}

func TestRegister_NoBootloader(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("linux")
	reg := lifecycle.NewRegistry()

	require.NoError(t, h.Register(buildenv.New("/proj", defaultTool), reg))

	result, err := reg.Fire(t.Context(), lifecycle.BuildProg, lifecycle.Invocation{})
	require.ErrorIs(t, err, buildenv.ErrNoBootloaderImage)
	assert.Equal(t, 1, exit.Status(err))
	require.Len(t, result.Actions, 1)
	assert.Equal(t, ActionCopyFirmware, result.Actions[0].Name)
	assert.Empty(t, runner.calls)
}

func TestRegister_UnknownCopyArg(t *testing.T) {
	t.Parallel()

	h, _ := newHooks("linux")
	h.Config.CopyFirmware.Arg = "firmware_dir"

	err := h.Register(newEnv(), lifecycle.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firmware_dir")
}

func TestEvaluate_NoFlashImages(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("darwin")
	env := buildenv.New("/proj", defaultTool)
	reg := lifecycle.NewRegistry()

	require.NoError(t, h.Evaluate(t.Context(), env, reg))

	assert.Equal(t, "/proj//tools/mklittlefs", env.FSTool())
	assert.Len(t, runner.calls, 2)
	assert.Len(t, reg.Actions(lifecycle.BuildProg), 2)
}

func TestBuildProg_CopyFailureSkipsOTA(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("linux")
	runner.failOn = "copyFirmware.js"
	env := newEnv()
	reg := lifecycle.NewRegistry()
	require.NoError(t, h.Register(env, reg))

	result, err := reg.Fire(t.Context(), lifecycle.BuildProg, lifecycle.Invocation{Env: env})
	require.Error(t, err)
	assert.Equal(t, 2, result.ExitCode)
	assert.Len(t, runner.calls, 1)
}

func TestCustomInterpreterAndScripts(t *testing.T) {
	t.Parallel()

	h, runner := newHooks("linux")
	h.Config.Interpreter = "bun"
	h.Config.Scripts.APTools = "web/build.js"

	require.NoError(t, h.RunGenerators(t.Context(), newEnv()))
	assert.Equal(t, call{cmd: "bun", args: []string{"/proj/web/build.js", "/proj/"}}, runner.calls[0])
}
