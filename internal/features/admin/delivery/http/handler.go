package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/middleware"
	"gift-store-backend/internal/features/admin/models"
	"gift-store-backend/internal/features/admin/service"
)

type SessionHandler struct {
	service    service.SessionService
	sessionTTL time.Duration
	secure     bool
}

// NewSessionHandler: secure включает флаг Secure у cookie (production)
func NewSessionHandler(service service.SessionService, sessionTTL time.Duration, secure bool) *SessionHandler {
	return &SessionHandler{service: service, sessionTTL: sessionTTL, secure: secure}
}

// RegisterRoutes mounts login/logout; they must stay outside the RequireAdmin group.
func (h *SessionHandler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.POST("/login", h.login)
	admin.POST("/logout", h.logout)
}

// @Summary Admin login
// @Description Sets the admin_session cookie on matching credentials.
// @Tags admin
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.OKResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /admin/login [post]
func (h *SessionHandler) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.NewBadRequestError(err.Error()))
		return
	}

	if err := h.service.Login(c.Request.Context(), req.Username, req.Password); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	h.setCookie(c, middleware.AdminCookieValue, int(h.sessionTTL.Seconds()))
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}

// @Summary Admin logout
// @Tags admin
// @Produce json
// @Success 200 {object} models.OKResponse
// @Router /admin/logout [post]
func (h *SessionHandler) logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}

func (h *SessionHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AdminCookieName, value, maxAge, "/", "", h.secure, true)
}
