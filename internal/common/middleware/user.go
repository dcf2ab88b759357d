package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"gift-store-backend/internal/common/errors"
)

// UserEnsurer создаёт или обновляет пользователя по данным Telegram
type UserEnsurer interface {
	EnsureTelegramUser(ctx context.Context, tgID int64, username, avatarURL string) (int64, error)
}

// AutoCreateUser upserts the Mini App user and stores the internal id in the context.
func AutoCreateUser(users UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tgUser, ok := TelegramUser(c)
		if !ok {
			AbortWithError(c, errors.NewUnauthorizedError("Telegram Init Data required"))
			return
		}

		userID, err := users.EnsureTelegramUser(c.Request.Context(), tgUser.ID, tgUser.Username, tgUser.PhotoURL)
		if err != nil {
			AbortWithError(c, errors.Wrap(err, errors.ErrCodeInternal, "Failed to create/update user"))
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}
