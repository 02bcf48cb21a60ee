package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "plain",
			err:  New(ErrorTypeConfiguration, "username is required"),
			want: "configuration error: username is required",
		},
		{
			name: "with code and stage",
			err:  &Error{Type: ErrorTypeNotFound, Stage: StageUser, Code: 404, Message: "user not found"},
			want: "not_found error (code 404) at user: user not found",
		},
		{
			name: "with cause",
			err:  Wrap(fmt.Errorf("dial tcp: refused"), ErrorTypeNetwork, "request failed"),
			want: "network error: request failed: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWithStage(t *testing.T) {
	cause := stderrors.New("boom")

	t.Run("typed error keeps type", func(t *testing.T) {
		err := WithStage(Wrap(cause, ErrorTypeNetwork, "request failed"), StageProjectDetail)
		assert.True(t, IsType(err, ErrorTypeNetwork))
		assert.Equal(t, StageProjectDetail, StageOf(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("untyped error becomes unknown", func(t *testing.T) {
		err := WithStage(cause, StageEmit)
		assert.Equal(t, ErrorTypeUnknown, TypeOf(err))
		assert.Equal(t, StageEmit, StageOf(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("first stage wins", func(t *testing.T) {
		err := WithStage(WithStage(cause, StageMirror), StageEmit)
		assert.Equal(t, StageMirror, StageOf(err))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WithStage(nil, StageUser))
	})

	t.Run("wrapped with fmt", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", WithStage(New(ErrorTypeAsset, "bad asset"), StageMirror))
		assert.True(t, IsType(err, ErrorTypeAsset))
		assert.Equal(t, StageMirror, StageOf(err))
	})
}

func TestTypeForStatus(t *testing.T) {
	cases := map[int]ErrorType{
		400: ErrorTypeUnknown,
		401: ErrorTypeAuth,
		403: ErrorTypeAuth,
		404: ErrorTypeNotFound,
		429: ErrorTypeRateLimit,
		500: ErrorTypeServerError,
		503: ErrorTypeServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, TypeForStatus(code), "status %d", code)
	}
}
