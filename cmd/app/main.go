package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"recyclefi/internal/api"
	"recyclefi/internal/repository"
	"recyclefi/internal/service"
	"recyclefi/pkg/auth"
	"recyclefi/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	userService := service.NewUserService(repo)
	campaignService := service.NewCampaignService(repo, repo)
	taskService := service.NewTaskService(repo)
	approvalService := service.NewApprovalService(repo)

	walletVerifier := auth.NewWalletVerifier()
	session := auth.NewSessionAuth(cfg.Auth.JWTSecret)

	scheduler := service.NewSchedulerService(time.UTC)
	_, err = scheduler.ScheduleDaily(0, 0, func() {
		changed, err := campaignService.RefreshStatuses(context.Background())
		if err != nil {
			zapLogger.Error("Failed to refresh campaign statuses", zap.Error(err))
			return
		}
		if changed > 0 {
			zapLogger.Info("Campaign statuses refreshed", zap.Int64("changed", changed))
		}
	})
	if err != nil {
		zapLogger.Fatal("Failed to schedule status refresh", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, walletVerifier, session)
	api.NewCampaignRoutes(a, campaignService, taskService, session)
	api.NewAdminRoutes(a, campaignService, approvalService, userService, session)
	api.NewGameRoutes(a, repo, userService, session)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
