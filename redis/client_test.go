package redis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithReleaseUpdateErrorSurvivesRelease(t *testing.T) {
	updateErr := errors.New("document is missing")
	released := false
	err := withRelease(func() error {
		released = true
		return nil
	}, func() error {
		return updateErr
	})
	require.True(t, released, "lock must be released after a failed update")
	require.Equal(t, updateErr, err)
}

func TestWithReleaseUpdateErrorWinsOverReleaseError(t *testing.T) {
	updateErr := errors.New("save failed")
	err := withRelease(func() error {
		return errors.New("release failed")
	}, func() error {
		return updateErr
	})
	require.Equal(t, updateErr, err)
}

func TestWithReleaseReportsReleaseError(t *testing.T) {
	releaseErr := errors.New("lock expired")
	err := withRelease(func() error {
		return releaseErr
	}, func() error {
		return nil
	})
	require.Equal(t, releaseErr, err)
}

func TestWithReleaseSuccess(t *testing.T) {
	released := false
	err := withRelease(func() error {
		released = true
		return nil
	}, func() error {
		return nil
	})
	require.NoError(t, err)
	require.True(t, released)
}
