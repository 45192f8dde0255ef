package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"voicebook/internal/models"
	"voicebook/internal/services"
)

type SessionHandler struct {
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// @Summary      Start a booking session
// @Tags         Session
// @Accept       json
// @Produce      json
// @Router       /session/start [post]
func (h *SessionHandler) Start(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, greeting := h.sessions.Start(req.Store, req.Product, req.Details)
	c.JSON(http.StatusOK, gin.H{
		"session_id":        id,
		"assistant_message": greeting,
	})
}

// @Summary      Send a message to a booking session
// @Tags         Session
// @Accept       json
// @Produce      json
// @Router       /session/message [post]
func (h *SessionHandler) Message(c *gin.Context) {
	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.sessions.HandleMessage(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		// soft payload for unknown sessions: the existing frontend
		// checks the error key, not the status code
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": "Invalid session"})
			return
		}
		log.Printf("[session][message] failed id=%s: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Message handling failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assistant_message": result.AssistantMessage,
		"completed":         result.Completed,
		"invoice_url":       nullableString(result.InvoiceURL),
	})
}

// nullableString keeps the wire contract: invoice_url is null until the
// invoice exists, thereafter a stable URL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
