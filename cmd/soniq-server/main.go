package main

import (
	"context"
	"os"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"soniqserver.com/m/v2/internal/db"
	"soniqserver.com/m/v2/internal/service"
	"soniqserver.com/m/v2/internal/spotify"
)

func main() {
	var logger *zap.Logger
	var err error

	if os.Getenv("DEBUG") == "true" {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		err = godotenv.Load(".env")
		if err != nil {
			logger.Warn("Warning: .env file not found. Using system environment variables.")
		}
	} else {
		logger, err = zap.NewProduction()
		if err != nil {
			panic(err)
		}
	}
	defer logger.Sync()

	service.InitializeLogger(logger)
	spotify.InitializeLogger(logger)
	db.InitializeLogger(logger)

	ctx := context.Background()

	database, err := db.New(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	spotifyConfig, err := spotify.GetConfig()
	if err != nil {
		logger.Fatal("Failed to load Spotify config", zap.Error(err))
	}
	catalog := spotify.NewClient(spotifyConfig)

	serviceConfig, err := service.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load service config", zap.Error(err))
	}

	svc := service.New(database, catalog, serviceConfig, service.NewMetrics(), service.NewMailerFromEnv())

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(service.CORSMiddleware(serviceConfig.FrontendURI))

	router.GET("/", service.HomeHandler)
	router.GET("/health", service.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/register", svc.RegisterHandler)
		api.POST("/login", svc.LoginHandler)
		api.POST("/google-login", svc.GoogleLoginHandler)
		api.POST("/generate-playlist", svc.GeneratePlaylistHandler)
		api.GET("/history/:userId", svc.HistoryHandler)
		api.GET("/spotify/login", svc.SpotifyLoginHandler)
		api.GET("/spotify/callback", svc.SpotifyCallbackHandler)
		api.POST("/create-spotify-playlist", svc.CreateSpotifyPlaylistHandler)
	}

	logger.Info("SoniQ server starting", zap.String("port", serviceConfig.Port))
	if err := router.Run(":" + serviceConfig.Port); err != nil {
		logger.Fatal("Failed to run server", zap.Error(err))
	}
}
