package app

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"voicebook/internal/config"
	"voicebook/internal/handlers"
	"voicebook/internal/llm"
	"voicebook/internal/pdf"
	"voicebook/internal/repositories"
	"voicebook/internal/routes"
	"voicebook/internal/services"
)

func Run() {
	cfg := config.LoadConfig()

	// === Repos ===
	userRepo := repositories.NewUserRepository(cfg.Files.UsersFile)

	// === Services ===
	authService := services.NewAuthService()
	tokenService := services.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)

	userService := services.NewUserService(userRepo, authService, tokenService)
	otpService := services.NewOTPService(userRepo, authService, emailService)

	extractor := llm.NewClient(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.BaseURL,
		cfg.OpenAITimeout(),
		cfg.OpenAI.DryRun,
	)
	invoiceGen := pdf.NewInvoiceGenerator(cfg.Files.InvoicesDir)
	sessionService := services.NewSessionService(extractor, invoiceGen, cfg.Server.PublicBaseURL)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService)
	verifyHandler := handlers.NewVerifyHandler(otpService)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// generated invoices are served statically
	router.Static("/invoices", cfg.Files.InvoicesDir)

	routes.SetupRoutes(router, tokenService, authHandler, verifyHandler, sessionHandler)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Server failed: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
