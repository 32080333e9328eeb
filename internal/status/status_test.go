package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ResourceUnavailable, cause, "loading tile %d", 7)
	require.Contains(t, err.Error(), "resource-unavailable")
	require.Contains(t, err.Error(), "disk full")
	require.ErrorIs(t, err, cause)
}

func TestIsAndCodeOf(t *testing.T) {
	err := New(Canceled, "job stopped")
	require.True(t, Is(err, Canceled))
	require.False(t, Is(err, Timeout))
	require.Equal(t, Canceled, CodeOf(err))
	require.Equal(t, OK, CodeOf(nil))
	require.Equal(t, GeneralError, CodeOf(errors.New("plain")))
}

func TestRecoverableAndFatalPolicy(t *testing.T) {
	require.True(t, ResourceUnavailable.Recoverable())
	require.True(t, Timeout.Recoverable())
	require.False(t, Canceled.Recoverable())
	require.True(t, AssertionFailure.Fatal())
	require.False(t, ResourceUnavailable.Fatal())
}
