package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	t.Parallel()

	for _, e := range Events() {
		got, err := ParseEvent(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}

	got, err := ParseEvent(" BuildProg ")
	require.NoError(t, err)
	assert.Equal(t, BuildProg, got)

	_, err = ParseEvent("checkprogsize")
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestEvent_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "buildprog", BuildProg.String())
	assert.Equal(t, "upload", Upload.String())
	assert.Equal(t, "Event(9)", Event(9).String())
	assert.Equal(t, []string{"configure", "buildprog", "upload"}, EventNames())
}
