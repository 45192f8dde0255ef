package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voicebook/internal/handlers"
	"voicebook/internal/middleware"
	"voicebook/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	tokens services.TokenService,
	authHandler *handlers.AuthHandler,
	verifyHandler *handlers.VerifyHandler,
	sessionHandler *handlers.SessionHandler,
) *gin.Engine {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ---- auth
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/send-otp", verifyHandler.SendOTP)
		auth.POST("/verify-otp", verifyHandler.VerifyOTP)
		auth.GET("/me", middleware.AuthMiddleware(tokens), authHandler.Me)
	}

	// ---- booking sessions
	session := r.Group("/session")
	{
		session.POST("/start", sessionHandler.Start)
		session.POST("/message", sessionHandler.Message)
	}

	return r
}
