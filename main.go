package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"airthlab/config"
	"airthlab/db"
	"airthlab/handlers"
	"airthlab/middleware"
	"airthlab/services"
	"airthlab/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err := db.Migrate(conn, "schema.sql"); err != nil {
		log.Fatal("Failed to apply schema: ", err)
	}
	log.Println("Database schema verified")

	st := store.New(conn)
	tokens := services.NewTokenService(cfg)
	mailer := services.NewSendGridMailer(cfg)
	auth := services.NewAuthService(st, tokens, mailer, cfg)
	subs := services.NewSubscriptionService(st)

	if err := subs.SeedDefaultPlans(context.Background()); err != nil {
		log.Fatal("Failed to seed subscription plans: ", err)
	}
	log.Println("Subscription plan catalog seeded")

	gin.SetMode(cfg.GinMode)
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", handlers.Health(conn))

	authHandler := handlers.NewAuthHandler(auth)
	subsHandler := handlers.NewSubscriptionHandler(subs)
	guard := middleware.AuthRequired(auth)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/request-otp", authHandler.RequestOTP)
		authGroup.POST("/verify-otp", authHandler.VerifyOTP)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
		authGroup.GET("/protected", guard, authHandler.Protected)
		authGroup.POST("/logout", guard, authHandler.Logout)
	}

	subsGroup := r.Group("/subscriptions")
	{
		subsGroup.GET("/plans", subsHandler.ListPlans)
		subsGroup.POST("/subscribe", guard, subsHandler.Subscribe)
		subsGroup.GET("/my-subscription", guard, subsHandler.MySubscription)
		subsGroup.POST("/cancel", guard, subsHandler.Cancel)
	}

	log.Println("Server starting on port " + cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server stopped: ", err)
	}
}
