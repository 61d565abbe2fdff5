// Package main runs the Confraria HTTP server with WebSocket feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/confraria/backend/config"
	"github.com/confraria/backend/internal/approval"
	"github.com/confraria/backend/internal/auth"
	"github.com/confraria/backend/internal/candidates"
	"github.com/confraria/backend/internal/challenges"
	"github.com/confraria/backend/internal/emaillogs"
	"github.com/confraria/backend/internal/meetings"
	"github.com/confraria/backend/internal/members"
	"github.com/confraria/backend/internal/middleware"
	"github.com/confraria/backend/internal/models"
	"github.com/confraria/backend/internal/realtime"
	"github.com/confraria/backend/internal/stats"
	"github.com/confraria/backend/pkg/database"
	"github.com/confraria/backend/pkg/queue"
	"github.com/confraria/backend/pkg/redis"
	"github.com/confraria/backend/pkg/response"
	"github.com/confraria/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.AccessKeyID != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AvatarsBucket:        cfg.AWS.AvatarsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub)
	stopFeed, err := hub.Start(redisPubSub)
	if err != nil {
		logger.Fatal("feed subscription", zap.Error(err))
	}
	defer stopFeed()

	// Auth and credential issuance
	authRepo := auth.NewRepository(pool)
	issuer := auth.NewCredentialIssuer(authRepo)

	// Members
	memberRepo := members.NewRepository(pool)
	memberHandler := members.NewHandler(memberRepo, issuer, jobQueue, s3Client, logger)
	authHandler := auth.NewHandler(authRepo, memberRepo, jwtService, jobQueue, logger)

	// Candidates and the approval quorum
	candidateRepo := candidates.NewRepository(pool)
	engine := approval.NewEngine(candidateRepo, memberRepo, issuer, cfg.Approval.Threshold, logger)
	candidateHandler := candidates.NewHandler(candidateRepo, engine, jobQueue, hub, logger)

	// Challenges and contributions
	challengeRepo := challenges.NewRepository(pool)
	classifier := challenges.NewClassifier(cfg.Classifier.AdviceMinLength)
	challengeService := challenges.NewService(challengeRepo, classifier)
	challengeHandler := challenges.NewHandler(challengeRepo, challengeService, hub)

	// Meetings
	meetingRepo := meetings.NewRepository(pool)
	meetingHandler := meetings.NewHandler(meetingRepo, hub)

	// Stats
	statsRepo := stats.NewRepository(pool)
	statsHandler := stats.NewHandler(statsRepo)

	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo)

	jwtValidate := func(token string) (uuid.UUID, string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, "", err
		}
		return claims.MemberID, claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/recover", authHandler.Recover)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.PATCH("/auth/password", authHandler.ChangePassword)

		// Members
		api.GET("/members", memberHandler.List)
		api.POST("/members", middleware.RequireRole(models.RoleMaster, models.RoleAdmin), memberHandler.Create)
		api.GET("/members/:id", memberHandler.Get)
		api.PATCH("/members/:id", memberHandler.Update)
		api.PATCH("/members/:id/status", middleware.RequireRole(models.RoleMaster, models.RoleAdmin), memberHandler.SetStatus)
		api.PATCH("/members/:id/role", middleware.RequireRole(models.RoleMaster), memberHandler.SetRole)
		api.POST("/members/:id/avatar", memberHandler.UploadAvatar)

		// Candidates
		api.GET("/candidates", candidateHandler.List)
		api.POST("/candidates", candidateHandler.Nominate)
		api.POST("/candidates/:id/vote", candidateHandler.Vote)
		api.POST("/candidates/:id/reject", middleware.RequireRole(models.RoleMaster, models.RoleAdmin), candidateHandler.Reject)

		// Challenges
		api.GET("/challenges", challengeHandler.List)
		api.POST("/challenges", challengeHandler.Create)
		api.GET("/challenges/:id", challengeHandler.Get)
		api.POST("/challenges/:id/close", challengeHandler.Close)
		api.DELETE("/challenges/:id", challengeHandler.Delete)
		api.POST("/challenges/:id/contributions", challengeHandler.Contribute)

		// Meetings
		api.GET("/meetings", meetingHandler.List)
		api.POST("/meetings", middleware.RequireRole(models.RoleMaster, models.RoleAdmin), meetingHandler.Create)
		api.GET("/meetings/:id", meetingHandler.Get)
		api.PATCH("/meetings/:id", middleware.RequireRole(models.RoleMaster, models.RoleAdmin), meetingHandler.Update)
		api.DELETE("/meetings/:id", middleware.RequireRole(models.RoleMaster, models.RoleAdmin), meetingHandler.Delete)
		api.GET("/term", meetingHandler.Term)
		api.POST("/meetings/:id/accept-term", meetingHandler.AcceptTerm)

		// Stats
		api.GET("/stats/me", statsHandler.Me)
		api.GET("/stats/members/:id", statsHandler.Member)
		api.GET("/stats/leaderboard", statsHandler.Leaderboard)

		// Admin
		api.GET("/admin/email-logs", middleware.RequireRole(models.RoleMaster, models.RoleAdmin), emailLogsHandler.List)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
