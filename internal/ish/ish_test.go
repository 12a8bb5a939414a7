package ish

import (
	"bytes"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaklabco/fwhook/internal/buildctx"
	"github.com/yaklabco/fwhook/internal/exit"
)

func TestExec_Args(t *testing.T) {
	out := &bytes.Buffer{}
	e := &Exec{Stdout: out}

	require.NoError(t, e.Run(t.Context(), os.Args[0], "-printArgs", "/proj/"))
	assert.Equal(t, "[/proj/]\n", out.String())
}

func TestExec_ExitCode(t *testing.T) {
	e := &Exec{}

	ran, err := e.Exec(t.Context(), os.Args[0], "-helper", "-exit", "99")
	require.Error(t, err)
	assert.True(t, ran)
	assert.Equal(t, 99, exit.Status(err))
}

func TestExec_RawExitCode(t *testing.T) {
	e := &Exec{}

	ran, code, err := e.run(t.Context(), os.Args[0], "-helper", "-exit", "4")
	require.Error(t, err)
	assert.True(t, ran)
	assert.Equal(t, 4, code)

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 4, exit.Status(err))
}

func TestExec_Env(t *testing.T) {
	const name = "FWHOOK_SOME_REALLY_SPECIFIC_VAR"
	out := &bytes.Buffer{}
	e := &Exec{Env: map[string]string{name: "foobar"}, Stdout: out}

	require.NoError(t, e.Run(t.Context(), os.Args[0], "-printVar", name))
	assert.Equal(t, "foobar\n", out.String())
}

func TestExec_EventFromContext(t *testing.T) {
	out := &bytes.Buffer{}
	e := &Exec{Stdout: out}
	ctx := buildctx.WithEvent(t.Context(), "upload")

	require.NoError(t, e.Run(ctx, os.Args[0], "-printVar", buildctx.EnvEvent))
	assert.Equal(t, "upload\n", out.String())
}

func TestExec_NotRun(t *testing.T) {
	e := &Exec{}

	ran, err := e.Exec(t.Context(), "thiswontwork-fwhook")
	require.Error(t, err)
	assert.False(t, ran)
	assert.False(t, CmdRan(err))
}

func TestExec_Expand(t *testing.T) {
	out := &bytes.Buffer{}
	e := &Exec{Env: map[string]string{"ROOT": "/proj/"}, Stdout: out}

	require.NoError(t, e.Run(t.Context(), os.Args[0], "-printArgs", "${ROOT}ap/tools.js"))
	assert.Equal(t, "[/proj/ap/tools.js]\n", out.String())
}

func TestExec_DryRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("echo is a shell builtin on windows")
	}
	out := &bytes.Buffer{}
	e := &Exec{DryRun: true, Stdout: out}

	require.NoError(t, e.Run(t.Context(), "node", "/proj/ap/tools.js", "/proj/"))
	assert.Equal(t, "DRYRUN: node /proj/ap/tools.js /proj/", strings.TrimSpace(out.String()))
}
