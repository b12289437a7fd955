package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jame-iro/agrolink-backend/internal/service"
)

type Upload struct {
	Svc service.Uploader
}

func NewUpload(svc service.Uploader) *Upload { return &Upload{Svc: svc} }

// Image handles POST /api/upload: a base64 payload proxied to the image
// host, the hosted URLs returned.
func (h *Upload) Image(c *gin.Context) {
	var req struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	result, err := h.Svc.Upload(c.Request.Context(), req.Image)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"url":       result.URL,
		"thumbUrl":  result.ThumbURL,
		"deleteUrl": result.DeleteURL,
	})
}
