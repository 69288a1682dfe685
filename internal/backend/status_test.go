package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, testCase := range []struct {
		native string
		status Status
		valid  bool
	}{
		{"created", StatusCreated, true},
		{"configured", StatusCreated, true},
		{"running", StatusRunning, true},
		{"paused", StatusPaused, true},
		{"pausing", StatusPaused, true},
		{"restarting", StatusRestarting, true},
		{"removing", StatusRemoving, true},
		{"exited", StatusExited, true},
		{"stopped", StatusExited, true},
		{"dead", StatusDead, true},
		{"levitating", "", false},
		{"", "", false},
	} {
		t.Run(testCase.native, func(t *testing.T) {
			status, err := ParseStatus(testCase.native)
			if !testCase.valid {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, testCase.status, status)
			require.NoError(t, status.Validate())
		})
	}
}

func TestStatusIsRunning(t *testing.T) {
	require.True(t, StatusRunning.IsRunning())
	require.True(t, StatusRestarting.IsRunning())
	require.False(t, StatusCreated.IsRunning())
	require.False(t, StatusExited.IsRunning())
	require.False(t, StatusPaused.IsRunning())
}

func TestStatusValidate(t *testing.T) {
	require.Error(t, Status("unknown").Validate())
	require.NoError(t, StatusDead.Validate())
}
