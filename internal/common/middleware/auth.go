package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gift-store-backend/internal/common/errors"
)

const (
	AdminCookieName  = "admin_session"
	AdminCookieValue = "1"
)

// AdminAuthorizer решает, есть ли у запроса права администратора
type AdminAuthorizer interface {
	Authorize(r *http.Request) bool
}

// CookieAuthorizer accepts the shared admin session cookie.
type CookieAuthorizer struct{}

func (CookieAuthorizer) Authorize(r *http.Request) bool {
	cookie, err := r.Cookie(AdminCookieName)
	if err != nil {
		return false
	}
	return cookie.Value == AdminCookieValue
}

// RequireAdmin отклоняет запросы без админской сессии с 401
func RequireAdmin(authorizer AdminAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authorizer.Authorize(c.Request) {
			AbortWithError(c, errors.NewUnauthorizedError("admin session required"))
			return
		}
		c.Next()
	}
}
