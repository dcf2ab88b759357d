package service

import (
	"context"
	"crypto/subtle"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/logger"
)

type Credentials struct {
	Username string
	Password string
}

type SessionService interface {
	Login(ctx context.Context, username, password string) error
}

type sessionService struct {
	creds Credentials
}

func NewSessionService(creds Credentials) SessionService {
	return &sessionService{creds: creds}
}

// Login сверяет пару логин/пароль с конфигом; без пароля в конфиге вход закрыт
func (s *sessionService) Login(_ context.Context, username, password string) error {
	if s.creds.Password == "" {
		logger.Warn().Msg("Admin login attempted but ADMIN_PASSWORD is not configured")
		return errors.NewUnauthorizedError("invalid credentials")
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.creds.Username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Password))
	if userOK&passOK != 1 {
		logger.Warn().Str("username", username).Msg("Admin login rejected")
		return errors.NewUnauthorizedError("invalid credentials")
	}

	logger.Info().Str("username", username).Msg("Admin logged in")
	return nil
}
