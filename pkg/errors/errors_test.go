package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClonedSentinelMatchesByCode(t *testing.T) {
	err := Validation("please select a date")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "please select a date", err.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestFromErrorNormalisesUnknownErrors(t *testing.T) {
	cause := errors.New("socket closed")
	appErr := FromError(fmt.Errorf("listing classes: %w", cause))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, FromError(nil))
}

func TestFromErrorKeepsWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("roster: %w", Wrap(errors.New("timeout"), ErrFetchFailed.Code, ErrFetchFailed.Status, ErrFetchFailed.Message))

	appErr := FromError(wrapped)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Contains(t, appErr.Error(), "timeout")
}
