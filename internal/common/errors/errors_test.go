package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Classification(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		notFound   bool
		validation bool
		conflict   bool
		internal   bool
	}{
		{ErrCodeGiftNotFound, true, false, false, false},
		{ErrCodeUserNotFound, true, false, false, false},
		{ErrCodeValidation, false, true, false, false},
		{ErrCodeInsufficientStock, false, false, true, false},
		{ErrCodeInsufficientHoldings, false, false, true, false},
		{ErrCodeDatabaseError, false, false, false, true},
		{ErrCodeTelegramAPI, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			e := New(tt.code, "msg")
			assert.Equal(t, tt.notFound, e.IsNotFound())
			assert.Equal(t, tt.validation, e.IsValidation())
			assert.Equal(t, tt.conflict, e.IsConflict())
			assert.Equal(t, tt.internal, e.IsInternal())
		})
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	e := NewDatabaseError("select gifts", cause)

	assert.True(t, stderrors.Is(e, cause))
	assert.Contains(t, e.Error(), "connection reset")
	assert.Equal(t, "select gifts", e.Details["operation"])
}

func TestAsAppError_FindsWrapped(t *testing.T) {
	inner := New(ErrCodeGiftNotFound, "Gift not found")
	wrapped := fmt.Errorf("settle: %w", inner)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
	_, ok = AsAppError(nil)
	assert.False(t, ok)
}
