package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "team not found")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "team not found", MessageOf(err))
}

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, "transaction failed", cause)

	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestKindOfSurvivesFmtWrapping(t *testing.T) {
	err := fmt.Errorf("respond to offer: %w", New(KindPermissionDenied, "not your offer"))
	assert.Equal(t, KindPermissionDenied, KindOf(err))
	assert.Equal(t, "not your offer", MessageOf(err))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestKindOfNil(t *testing.T) {
	require.Equal(t, Kind(""), KindOf(nil))
	require.Equal(t, "", MessageOf(nil))
}

func TestIsKind(t *testing.T) {
	err := Newf(KindFailedPrecondition, "cannot demote the last captain of team %d", 7)
	assert.True(t, IsKind(err, KindFailedPrecondition))
	assert.False(t, IsKind(err, KindPermissionDenied))
	assert.Equal(t, "cannot demote the last captain of team 7", MessageOf(err))
}
