package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gift-store-backend/internal/common/errors"
)

func TestLogin(t *testing.T) {
	svc := NewSessionService(Credentials{Username: "admin", Password: "pa55"})

	assert.NoError(t, svc.Login(context.Background(), "admin", "pa55"))

	for _, c := range []struct{ user, pass string }{
		{"admin", "wrong"},
		{"root", "pa55"},
		{"", ""},
		{"admin", "pa55 "},
	} {
		err := svc.Login(context.Background(), c.user, c.pass)
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok, c)
		assert.True(t, appErr.IsUnauthorized(), c)
	}
}

func TestLogin_NoPasswordConfigured(t *testing.T) {
	svc := NewSessionService(Credentials{Username: "admin"})

	assert.Error(t, svc.Login(context.Background(), "admin", ""))
}
