package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) subscribeNewsletter(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.newsletterService.Subscribe(c.Request.Context(), req.Email); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "you are subscribed"})
}
