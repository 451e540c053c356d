package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	forbidden := NewForbidden("nope")
	wrapped := fmt.Errorf("accept: %w", forbidden)
	assert.Same(t, forbidden, ToDomainError(wrapped))

	notFound := ToDomainError(fmt.Errorf("lookup: %w", sql.ErrNoRows))
	assert.Equal(t, CodeNotFound, notFound.Code)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	boom := errors.New("boom")
	internal := ToDomainError(boom)
	assert.Equal(t, CodeInternal, internal.Code)
	assert.ErrorIs(t, internal, boom)
	assert.Equal(t, "internal server error: boom", internal.Error())
}

func TestMapError(t *testing.T) {
	assert.NoError(t, MapError(nil))
	err := MapError(errors.New("x"))
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeInternal))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("create: %w", NewThrottleExceeded(3, 3))
	assert.True(t, HasCode(err, CodeThrottleExceeded))
	assert.False(t, HasCode(err, CodeForbidden))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestConstructorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), CodeValidationFailed, http.StatusBadRequest},
		{NewFieldErrors(map[string]string{"note": "required"}), CodeValidationFailed, http.StatusBadRequest},
		{NewNotFound("ticket", nil), CodeNotFound, http.StatusNotFound},
		{NewUnauthorized("login"), CodeUnauthorized, http.StatusUnauthorized},
		{NewForbidden("no"), CodeForbidden, http.StatusForbidden},
		{NewInvalidTransition("no", nil), CodeInvalidTransition, http.StatusConflict},
		{NewThrottleExceeded(3, 4), CodeThrottleExceeded, http.StatusTooManyRequests},
		{NewConflict("dup", nil), CodeConflict, http.StatusConflict},
	}
	for _, tc := range cases {
		domainErr := ToDomainError(tc.err)
		assert.Equal(t, tc.code, domainErr.Code)
		assert.Equal(t, tc.status, domainErr.HTTPStatus)
	}

	fields := ToDomainError(NewFieldErrors(map[string]string{"note": "required"}))
	assert.Equal(t, map[string]string{"note": "required"}, fields.Details["fields"])
	assert.Equal(t, "ticket not found", NewNotFound("ticket", nil).Error())
}
