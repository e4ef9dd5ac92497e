package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	storeErr := NewStoreError(errors.New("connection reset"), "Failed to fetch users")

	tests := []struct {
		name    string
		err     error
		want    ErrorKind
		wantMsg string
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "plain", err: errors.New("boom"), want: KindUnknown, wantMsg: "boom"},
		{name: "not found", err: NewNotFound("User %q not found.", "u1"), want: KindNotFound, wantMsg: `User "u1" not found.`},
		{name: "wrapped", err: errors.Wrap(NewForbidden("no"), "ctx"), want: KindForbidden, wantMsg: "no"},
		{name: "store keeps native text", err: storeErr, want: KindStoreError, wantMsg: "Failed to fetch users: connection reset"},
		{name: "validation", err: NewValidationError(nil, FieldError{Field: "email", Error: "required"}), want: KindInvalidArgument, wantMsg: "email: required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
			if tt.err != nil {
				assert.Equal(t, tt.wantMsg, MessageOf(tt.err))
			}
		})
	}

	assert.True(t, errors.Is(storeErr, errors.Cause(storeErr.(*Error).Err)))
	assert.Nil(t, NewStoreError(nil, "unused"))
	assert.Nil(t, NewMailError(nil, "unused"))
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("integrity"), "ctx")))
	assert.False(t, IsShutdown(errors.New("nope")))
}
