package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"voicebook/internal/services"
)

// VerifyHandler drives the two-step OTP registration.
type VerifyHandler struct {
	otp services.OTPService
}

func NewVerifyHandler(otp services.OTPService) *VerifyHandler {
	return &VerifyHandler{otp: otp}
}

// @Summary      Request a registration OTP
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Router       /auth/send-otp [post]
func (h *VerifyHandler) SendOTP(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.otp.RequestCode(req.Name, req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		case errors.Is(err, services.ErrDeliveryFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP email"})
		default:
			log.Printf("[otp][send] failed for %q: %v", req.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to your email"})
}

// @Summary      Verify a registration OTP
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Router       /auth/verify-otp [post]
func (h *VerifyHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.otp.VerifyCode(req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, services.ErrNoPendingRegistration):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No pending registration for this email"})
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Code expired, please request a new one"})
		case errors.Is(err, services.ErrCodeInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		default:
			log.Printf("[otp][verify] failed for %q: %v", req.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account created. Please log in."})
}
