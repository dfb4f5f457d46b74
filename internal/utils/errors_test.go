package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessageFormats(t *testing.T) {
	inner := errors.New("boom")

	assert.Equal(t, "Op: msg: boom", E(CodeInternal, "Op", "msg", inner).Error())
	assert.Equal(t, "Op: msg", E(CodeInternal, "Op", "msg", nil).Error())
	assert.Equal(t, "Op: boom", E(CodeInternal, "Op", "", inner).Error())
	assert.Equal(t, "msg", E(CodeInternal, "", "msg", nil).Error())
}

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", E(CodeConflict, "SessionService.End", "session has ended", nil))

	require.True(t, IsCode(err, CodeConflict))
	require.False(t, IsCode(err, CodeNotFound))
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidArgument: http.StatusBadRequest,
		CodeUnsupported:     http.StatusBadRequest,
		CodeNotFound:        http.StatusNotFound,
		CodeConflict:        http.StatusConflict,
		CodeUnavailable:     http.StatusServiceUnavailable,
		CodeGeneration:      http.StatusBadGateway,
		CodeTimeout:         http.StatusGatewayTimeout,
		CodeInternal:        http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(E(code, "op", "msg", nil)), string(code))
	}

	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "session has ended", PublicMessage(E(CodeConflict, "op", "session has ended", nil)))
	assert.Equal(t, "Something went wrong, please retry.", PublicMessage(errors.New("socket closed")))
}
