package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"casino-engine-backend/internal/config"
	"casino-engine-backend/internal/handlers"
	"casino-engine-backend/internal/middleware"
	"casino-engine-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	var store services.Store
	switch cfg.Storage {
	case "memory":
		store = services.NewMemoryStore(cfg.StartingBalance, cfg.DefaultRiskFactor)
		logger.Info("using in-memory store")
	default:
		store, err = services.NewRedisStore(cfg)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		logger.Info("using redis store", zap.String("addr", cfg.RedisURL))
	}
	defer store.Close()

	jwtService := services.NewJWTService(cfg)
	settlement := services.NewSettlement(store, logger)

	wsHandler := handlers.NewWebSocketHandler(settlement, logger)
	settlement.SetBroadcaster(wsHandler)

	userHandler := handlers.NewUserHandler(settlement, jwtService)
	gameHandler := handlers.NewGameHandler(settlement, store, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/token", userHandler.IssueToken)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		games := protected.Group("/games")
		{
			games.POST("/bet", gameHandler.PlaceBet)
			games.POST("/bets", gameHandler.PlaceBets)
			games.GET("/balance", gameHandler.GetBalance)
			games.GET("/history", gameHandler.GetBetHistory)
			games.GET("/ledger", gameHandler.GetLedgerHistory)
			games.POST("/risk", gameHandler.SetRiskFactor)

			games.GET("/verification", gameHandler.GetVerificationData)
			games.POST("/verify", gameHandler.VerifyBet)

			seeds := games.Group("/seeds")
			{
				seeds.POST("/rotate", gameHandler.RotateSeed)
				seeds.GET("/history", gameHandler.GetSeedHistory)
			}
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
