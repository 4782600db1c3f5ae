package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("exchange: %w", New(KindTokenExchangeFailed, http.StatusBadRequest, "token exchange failed"))

	assert.True(t, errors.Is(err, ErrTokenExchangeFailed))
	assert.True(t, errors.Is(err, &Error{Kind: KindTokenExchangeFailed, Status: http.StatusBadRequest}))
	assert.False(t, errors.Is(err, &Error{Kind: KindTokenExchangeFailed, Status: http.StatusUnauthorized}))
	assert.False(t, errors.Is(err, ErrUserInfoFetchFailed))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "kind only",
			err:  &Error{Kind: KindNotFound},
			want: "not_found",
		},
		{
			name: "message and status",
			err:  New(KindFetchFailed, http.StatusForbidden, "list tasks"),
			want: "list tasks (status 403)",
		},
		{
			name: "wrapped cause",
			err:  Wrap(KindItemCreationFailed, 0, errors.New("boom"), "create task"),
			want: "create task: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOfAndStatusOf(t *testing.T) {
	cause := errors.New("network down")
	err := fmt.Errorf("outer: %w", Wrap(KindUserInfoFetchFailed, http.StatusBadGateway, cause, "userinfo"))

	assert.Equal(t, KindUserInfoFetchFailed, KindOf(err))
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrUnverifiedEmail, http.StatusForbidden},
		{ErrMalformedCallback, http.StatusBadRequest},
		{ErrInvalidSession, http.StatusUnauthorized},
		{ErrNotFound, http.StatusNotFound},
		{New(KindFetchFailed, http.StatusInternalServerError, "list"), http.StatusBadGateway},
		{New(KindFetchFailed, http.StatusUnauthorized, "list"), http.StatusUnauthorized},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
