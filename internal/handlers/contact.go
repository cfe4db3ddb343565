package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"creatorstribe/internal/service"
)

type inquiryRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Company string `json:"company" binding:"max=200"`
	Budget  string `json:"budget" binding:"max=100"`
	Message string `json:"message" binding:"required"`
}

func (h HandlerSet) SubmitInquiry(c *gin.Context) {
	var req inquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.contact.Submit(c.Request.Context(), service.Inquiry{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Budget:  req.Budget,
		Message: req.Message,
	})
	if err != nil {
		if errors.Is(err, service.ErrIncompleteInquiry) || errors.Is(err, service.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("submit inquiry failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "received"})
}
