package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/middleware"
	"gift-store-backend/internal/features/user/models"
	"gift-store-backend/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// RegisterRoutes: tg проверяет init data, admin требует админскую сессию
func (h *UserHandler) RegisterRoutes(tg, admin *gin.RouterGroup) {
	tg.POST("/auth/telegram", h.authTelegram)
	tg.GET("/me", h.getMe)

	users := admin.Group("/users")
	{
		users.GET("", h.searchUsers)
		users.POST("", h.upsertUser)
	}
}

// @Summary Telegram handshake
// @Description Creates the user on first launch of the Mini App or refreshes username and avatar.
// @Tags users
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid init data"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /auth/telegram [post]
func (h *UserHandler) authTelegram(c *gin.Context) {
	tgUser, ok := middleware.TelegramUser(c)
	if !ok {
		middleware.AbortWithError(c, errors.NewUnauthorizedError("Telegram Init Data required"))
		return
	}

	userID, err := h.service.EnsureTelegramUser(c.Request.Context(), tgUser.ID, tgUser.Username, tgUser.PhotoURL)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{OK: true, UserID: userID})
}

// @Summary Get current user
// @Description Profile of the current Mini App user; stars are included only with stars=true.
// @Tags users
// @Produce json
// @Security TelegramInitData
// @Param stars query bool false "Include stars balance"
// @Success 200 {object} models.MeResponse
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid init data"
// @Router /me [get]
func (h *UserHandler) getMe(c *gin.Context) {
	tgUser, ok := middleware.TelegramUser(c)
	if !ok {
		middleware.AbortWithError(c, errors.NewUnauthorizedError("Telegram Init Data required"))
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), tgUser.ID, c.Query("stars") == "true")
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MeResponse{OK: true, User: profile})
}

// @Summary Search users
// @Description Case-insensitive username search or exact tg id match, first 100 by id.
// @Tags admin
// @Produce json
// @Param q query string false "Username part or tg id"
// @Success 200 {array} models.User
// @Failure 401 {object} middleware.ErrorResponse "Admin session required"
// @Router /admin/users [get]
func (h *UserHandler) searchUsers(c *gin.Context) {
	users, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// @Summary Create or update user
// @Tags admin
// @Accept json
// @Produce json
// @Param user body models.AdminUpsertRequest true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} middleware.ErrorResponse "tg_id is required"
// @Failure 401 {object} middleware.ErrorResponse "Admin session required"
// @Router /admin/users [post]
func (h *UserHandler) upsertUser(c *gin.Context) {
	var input models.AdminUpsertRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.AbortWithError(c, errors.NewBadRequestError(err.Error()))
		return
	}

	user, err := h.service.AdminUpsert(c.Request.Context(), input.TgID.Int64(), input.Username)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}
