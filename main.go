package main

import (
	"log"
	"os"

	"barterhub-server/internal/config"
	"barterhub-server/internal/database"
	"barterhub-server/internal/handlers"
	"barterhub-server/internal/matching"
	"barterhub-server/internal/middleware"
	"barterhub-server/internal/redis"
	"barterhub-server/internal/services"
	"barterhub-server/internal/trade"
	"barterhub-server/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg := config.Load()
	setupLogging(cfg)
	gin.SetMode(cfg.GinMode)

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Initialize storage
	storage, err := services.NewStorageService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize domain services
	engine := matching.NewEngine(db, redisClient, cfg)
	tradeService := trade.NewService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, redisClient, cfg)
	userHandler := handlers.NewUserHandler(db)
	itemHandler := handlers.NewItemHandler(db, storage, cfg)
	matchHandler := handlers.NewMatchHandler(db, engine, redisClient, hub)
	tradeHandler := handlers.NewTradeHandler(db, tradeService, hub)
	supportHandler := handlers.NewSupportHandler(db, hub)
	adminHandler := handlers.NewAdminHandler(db)

	registerValidations()

	// Setup routes
	router := setupRoutes(cfg, db, redisClient, authHandler, userHandler, itemHandler,
		matchHandler, tradeHandler, supportHandler, adminHandler, hub)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	logrus.WithField("port", port).Info("Server starting")
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if cfg.GinMode == gin.ReleaseMode {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

// registerValidations adds the "latlng" binding rule used by profile
// location updates.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("latlng", func(fl validator.FieldLevel) bool {
		_, _, ok := matching.ParseLatLng(fl.Field().String())
		return ok
	})
}

func setupRoutes(cfg *config.Config, db *gorm.DB, redisClient *redis.Client,
	authHandler *handlers.AuthHandler, userHandler *handlers.UserHandler,
	itemHandler *handlers.ItemHandler, matchHandler *handlers.MatchHandler,
	tradeHandler *handlers.TradeHandler, supportHandler *handlers.SupportHandler,
	adminHandler *handlers.AdminHandler, hub *websocket.Hub) *gin.Engine {

	router := gin.Default()

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	authRequired := middleware.AuthRequired(cfg.JWTSecret, redisClient)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authRequired, authHandler.Refresh)
			auth.POST("/logout", authRequired, authHandler.Logout)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(authRequired)
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.GET("/friends", userHandler.GetFriends)
			users.GET("/notifications", userHandler.GetNotifications)
			users.PUT("/notifications/read", userHandler.MarkNotificationsRead)
			users.GET("/:id", userHandler.GetUser)
			users.POST("/:id/block", userHandler.BlockUser)
			users.DELETE("/:id/block", userHandler.UnblockUser)
			users.POST("/:id/friend-request", userHandler.SendFriendRequest)
			users.PUT("/friend-requests/:id", userHandler.RespondFriendRequest)
			users.POST("/report", userHandler.ReportUser)
		}

		// Item routes
		items := v1.Group("/items")
		items.Use(authRequired)
		{
			items.POST("/", itemHandler.Create)
			items.GET("/", itemHandler.List)
			items.GET("/:id", itemHandler.Get)
			items.PUT("/:id", itemHandler.Update)
			items.DELETE("/:id", itemHandler.Delete)
			items.POST("/:id/publish", itemHandler.Publish)
			items.PUT("/:id/hidden", itemHandler.SetHidden)
			items.POST("/:id/photos", itemHandler.UploadPhoto)
			items.DELETE("/:id/photos/:photo_id", itemHandler.DeletePhoto)
			items.GET("/:id/matches", matchHandler.GetMatchesForItem)
		}

		// Matching routes
		matches := v1.Group("/matches")
		matches.Use(authRequired)
		{
			matches.POST("/like", matchHandler.LikeItem)
			matches.DELETE("/like/:id", matchHandler.UnlikeItem)
			matches.POST("/reject", matchHandler.RejectCandidate)
			matches.GET("/", matchHandler.GetMutualMatches)
			matches.POST("/:id/trade", tradeHandler.CreateFromMatch)
		}

		// Trade routes
		trades := v1.Group("/trades")
		trades.Use(authRequired)
		{
			trades.POST("/", tradeHandler.Create)
			trades.GET("/", tradeHandler.List)
			trades.POST("/:id/accept", tradeHandler.Accept)
			trades.POST("/:id/reject", tradeHandler.Reject)
			trades.POST("/:id/cancel", tradeHandler.Cancel)
			trades.GET("/:id/messages", tradeHandler.GetMessages)
			trades.POST("/:id/messages", tradeHandler.SendMessage)
		}

		// Support routes
		support := v1.Group("/support")
		support.Use(authRequired)
		{
			support.POST("/", supportHandler.CreateTicket)
			support.GET("/", supportHandler.ListTickets)
			support.GET("/:id/messages", supportHandler.GetMessages)
			support.POST("/:id/messages", supportHandler.SendMessage)
		}

		// WebSocket endpoint
		v1.GET("/ws", authRequired, func(c *gin.Context) {
			websocket.HandleWebSocket(hub, c)
		})

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(authRequired, middleware.AdminRequired(db))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
			admin.GET("/reports", adminHandler.ListReports)
			admin.PUT("/reports/:id", adminHandler.UpdateReport)
			admin.GET("/analytics", adminHandler.GetAnalytics)
			admin.GET("/support", supportHandler.AdminListTickets)
			admin.POST("/support/:id/messages", supportHandler.AdminReply)
			admin.POST("/support/:id/close", supportHandler.CloseTicket)
		}
	}

	return router
}
