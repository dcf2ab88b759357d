package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/logger"
)

const (
	ContextKeyTelegramUser = "user"
	ContextKeyTgID         = "tg_id"

	HeaderInitData = "X-Telegram-Init-Data"
)

// TelegramInitDataMiddleware проверяет подпись init data мини-приложения.
// ttl = 0 отключает проверку срока действия.
func TelegramInitDataMiddleware(botToken string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderInitData)
		if raw == "" {
			raw = c.GetHeader("init_data")
		}
		if raw == "" {
			raw = c.Query("init_data")
		}
		if raw == "" {
			AbortWithError(c, errors.NewUnauthorizedError("Telegram Init Data required"))
			return
		}

		if botToken == "" {
			logger.Error().Msg("BOT_TOKEN not configured, cannot validate init data")
			AbortWithError(c, errors.New(errors.ErrCodeInternal, "Server configuration error"))
			return
		}

		if err := initdata.Validate(raw, botToken, ttl); err != nil {
			logger.Debug().Err(err).Msg("Init data validation failed")
			AbortWithError(c, errors.NewUnauthorizedError("invalid init data"))
			return
		}

		parsed, err := initdata.Parse(raw)
		if err != nil {
			AbortWithError(c, errors.NewBadRequestError("failed to parse init data"))
			return
		}
		if parsed.User.ID == 0 {
			AbortWithError(c, errors.NewUnauthorizedError("init data has no user"))
			return
		}

		c.Set(ContextKeyTelegramUser, parsed.User)
		c.Set(ContextKeyTgID, parsed.User.ID)
		c.Next()
	}
}

// TelegramUser returns the Mini App user stored by TelegramInitDataMiddleware.
func TelegramUser(c *gin.Context) (initdata.User, bool) {
	v, exists := c.Get(ContextKeyTelegramUser)
	if !exists {
		return initdata.User{}, false
	}
	u, ok := v.(initdata.User)
	return u, ok
}

// CurrentUserID returns the internal user id set by AutoCreateUser.
func CurrentUserID(c *gin.Context) (int64, bool) {
	id := getUserID(c)
	return id, id != 0
}
