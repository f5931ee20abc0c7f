package cerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeHTTPMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{code: OK, want: http.StatusOK},
		{code: InvalidArgument, want: http.StatusBadRequest},
		{code: NotFound, want: http.StatusNotFound},
		{code: AlreadyExists, want: http.StatusConflict},
		{code: FailedPrecondition, want: http.StatusPreconditionFailed},
		{code: DeadlineExceeded, want: http.StatusGatewayTimeout},
		{code: Unavailable, want: http.StatusServiceUnavailable},
		{code: Canceled, want: 499},
		{code: Internal, want: http.StatusInternalServerError},
		{code: Unknown, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPCode())
		})
	}
}

func TestNewError_StackOnlyForServerErrors(t *testing.T) {
	clientErr := NewError(InvalidArgument, "title is required", nil)
	assert.Empty(t, clientErr.Stack)

	serverErr := NewError(Internal, "server error", errors.New("disk full"))
	assert.NotEmpty(t, serverErr.Stack)
}

func TestIsCode(t *testing.T) {
	err := NewError(NotFound, "task x not found", nil)
	assert.True(t, IsCode(err, NotFound))
	assert.False(t, IsCode(err, InvalidArgument))

	wrapped := fmt.Errorf("lookup failed: %w", err)
	assert.True(t, IsCode(wrapped, NotFound))

	assert.False(t, IsCode(errors.New("plain"), NotFound))
	assert.False(t, IsCode(nil, NotFound))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("yaml: unmarshal error")
	err := NewError(Internal, "server error", cause)
	assert.ErrorIs(t, err, cause)
}
