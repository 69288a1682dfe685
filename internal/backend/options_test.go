package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	opts := Merge(
		Options{OptionForce: true, OptionStopTimeout: 10},
		Options{OptionTag: "v1"},
	)

	force, err := opts.Bool(OptionForce)
	require.NoError(t, err)
	require.True(t, force)

	missing, err := opts.Bool("no-such-option")
	require.NoError(t, err)
	require.False(t, missing)

	timeout, err := opts.Duration(OptionStopTimeout, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, timeout)

	timeout, err = opts.Duration("no-such-option", time.Minute)
	require.NoError(t, err)
	require.Equal(t, time.Minute, timeout)

	tag, err := opts.String(OptionTag, "latest")
	require.NoError(t, err)
	require.Equal(t, "v1", tag)
}

func TestOptionsTypeErrors(t *testing.T) {
	opts := Options{OptionForce: "yes", OptionStopTimeout: "soon", OptionTag: 42}

	_, err := opts.Bool(OptionForce)
	require.Error(t, err)

	_, err = opts.Duration(OptionStopTimeout, 0)
	require.Error(t, err)

	_, err = opts.String(OptionTag, "")
	require.Error(t, err)
}

func TestMergeOverrides(t *testing.T) {
	merged := Merge(Options{OptionForce: false}, Options{OptionForce: true})

	force, err := merged.Bool(OptionForce)
	require.NoError(t, err)
	require.True(t, force)
}

func TestDetailsValidate(t *testing.T) {
	details := Details{FieldPK: "abc", FieldStatus: StatusRunning}
	require.NoError(t, details.Validate(FieldPK, FieldStatus))
	require.Error(t, details.Validate(FieldPK, FieldStatus, FieldImage))

	status, ok := details.Status()
	require.True(t, ok)
	require.Equal(t, StatusRunning, status)
}
