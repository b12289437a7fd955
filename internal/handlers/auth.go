package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jame-iro/agrolink-backend/internal/model"
	"github.com/Jame-iro/agrolink-backend/internal/service"
)

type Auth struct {
	Svc service.Auth
	Dir service.Directory
}

func NewAuth(svc service.Auth, dir service.Directory) *Auth {
	return &Auth{Svc: svc, Dir: dir}
}

// Telegram handles POST /api/auth/telegram.
func (h *Auth) Telegram(c *gin.Context) {
	var req struct {
		InitData string `json:"initData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	user, token, err := h.Svc.Login(c.Request.Context(), req.InitData)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user": gin.H{
			"id":         user.ID,
			"telegramId": user.TelegramID,
			"firstName":  user.FirstName,
			"username":   user.Username,
			"role":       user.Role,
		},
	})
}

// SetRole handles PUT /api/auth/role.
func (h *Auth) SetRole(c *gin.Context) {
	var req struct {
		TelegramID int64      `json:"telegramId"`
		Role       model.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	user, err := h.Dir.SetRole(c.Request.Context(), req.TelegramID, req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":         user.ID,
			"telegramId": user.TelegramID,
			"firstName":  user.FirstName,
			"username":   user.Username,
			"role":       user.Role,
		},
	})
}
