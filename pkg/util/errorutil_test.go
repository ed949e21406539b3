package util_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/membership-service/pkg/util"
)

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{util.NewNotFound("member"), util.CodeNotFound, http.StatusNotFound},
		{util.NewAlreadyConfirmed(), util.CodeAlreadyConfirmed, http.StatusConflict},
		{util.NewInvalidCode(), util.CodeInvalidCode, http.StatusBadRequest},
		{util.NewExpiredCode(), util.CodeExpiredCode, http.StatusBadRequest},
		{util.NewAdmissionRejected("confirm"), util.CodeRateLimited, http.StatusTooManyRequests},
		{util.NewPasswordAlreadySet(), util.CodePasswordAlreadySet, http.StatusConflict},
		{util.NewNotificationFailure("confirmation code", errors.New("down")), util.CodeNotificationFailure, http.StatusBadGateway},
		{util.NewTokenIssuanceFailure(errors.New("down")), util.CodeTokenIssuanceFailure, http.StatusBadGateway},
		{util.NewUnauthorized("nope"), util.CodeUnauthorized, http.StatusUnauthorized},
		{util.NewConflict("dup", nil), util.CodeConflict, http.StatusConflict},
		{util.NewValidationError("bad", nil), util.CodeValidationFailed, http.StatusBadRequest},
	}

	for _, tc := range cases {
		domainErr := util.ToDomainError(tc.err)
		assert.Equal(t, tc.code, domainErr.Code)
		assert.Equal(t, tc.status, domainErr.HTTPStatus)
		assert.NotEmpty(t, domainErr.Message)
	}
}

func TestExpiredAndInvalidAreDistinct(t *testing.T) {
	assert.NotEqual(t,
		util.ToDomainError(util.NewInvalidCode()).Code,
		util.ToDomainError(util.NewExpiredCode()).Code,
	)
}

func TestNotificationFailurePreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := util.NewNotificationFailure("confirmation code", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "confirmation code")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	domainErr := util.ToDomainError(errors.New("boom"))
	require.NotNil(t, domainErr)
	assert.Equal(t, util.CodeInternalError, domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
}

func TestHasCode(t *testing.T) {
	err := util.NewInvalidCode()
	assert.True(t, util.HasCode(err, util.CodeInvalidCode))
	assert.False(t, util.HasCode(err, util.CodeExpiredCode))
	assert.False(t, util.HasCode(errors.New("plain"), util.CodeInvalidCode))
	assert.False(t, util.HasCode(nil, util.CodeInvalidCode))
}
