package models

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
