package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"santa3d-contest/internal/admin"
	"santa3d-contest/internal/bot"
	"santa3d-contest/internal/config"
	"santa3d-contest/internal/instagram"
	"santa3d-contest/internal/judge"
	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/mailer"
	"santa3d-contest/internal/metrics"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/participant"
	"santa3d-contest/internal/pkg"
	"santa3d-contest/internal/repository"
	"santa3d-contest/internal/service"
	"santa3d-contest/internal/storage"
)

// notifierProxy lets services hold a notifier before the bot is connected.
type notifierProxy struct {
	target service.Notifier
}

func (n *notifierProxy) Notify(text string) {
	if n.target != nil {
		n.target.Notify(text)
	}
}

func main() {
	cfg := config.Load()
	logging.BootstrapLogger(cfg.LogLevel, cfg.Server.Env)
	log := logging.Log

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := repository.NewRepository(db)
	m := metrics.New()
	audit := service.NewAuditTrail(repo)
	notifier := &notifierProxy{}

	tokens := pkg.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	mail := mailer.NewSendGridMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.FromEmail, cfg.Mail.FromName)
	videos, err := storage.NewVideoStore(ctx, storage.Options{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		TTL:             cfg.Storage.PresignTTL,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to configure video storage")
	}

	instagramSettings := service.NewInstagramSettings(repo, instagram.Credentials{
		AccessToken: cfg.Instagram.AccessToken,
		AccountID:   cfg.Instagram.AccountID,
	}, audit)
	graph := instagram.NewClient(cfg.Instagram.APIBase, cfg.Instagram.MediaLimit, cfg.Instagram.Timeout, instagramSettings.Credentials).
		WithRateLimit(cfg.Instagram.RateLimit, cfg.Instagram.RateBurst)

	authService := service.NewAuthService(repo, tokens)
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.WithError(err).Fatal("failed to bootstrap administrator")
	}
	criteriaService := service.NewCriteriaService(repo, audit)
	evaluationService := service.NewEvaluationService(repo, m)
	rankingService := service.NewRankingService(repo, cfg.Ranking.MinEvaluations)
	likeService := service.NewLikeService(repo, graph, m, audit)
	contestService := service.NewContestService(repo, graph, audit, notifier)
	judgeService := service.NewJudgeService(repo, mail, videos, audit)
	videoService := service.NewVideoService(repo, audit)
	participantService := service.NewParticipantService(repo, authService, mail, videos, likeService)

	var adminBot *bot.AdminBot
	if cfg.Bot.Token != "" {
		adminBot, err = bot.NewAdminBot(cfg.Bot.Token, cfg.Bot.AdminChats, contestService, rankingService, likeService)
		if err != nil {
			log.WithError(err).Error("telegram bot disabled")
			adminBot = nil
		} else {
			notifier.target = adminBot
		}
	}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), pkg.RequestLogger(), m.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowCredentials = false
	corsConfig.AddAllowHeaders("Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, pkg.Envelope{Success: false, Error: "database unavailable"})
			return
		}
		pkg.Respond(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	public := router.Group("/api/v1")
	adminRoutes := router.Group("/api/v1/admin", pkg.RoleAuthMiddleware(tokens, models.RoleAdmin))
	judgeRoutes := router.Group("/api/v1/judge", pkg.RoleAuthMiddleware(tokens, models.RoleJudge))
	participantRoutes := router.Group("/api/v1/participant", pkg.RoleAuthMiddleware(tokens, models.RoleParticipant))

	admin.NewAdminHandler(admin.Services{
		Auth:        authService,
		Criteria:    criteriaService,
		Judges:      judgeService,
		Evaluations: evaluationService,
		Videos:      videoService,
		Rankings:    rankingService,
		Likes:       likeService,
		Instagram:   instagramSettings,
		Contest:     contestService,
		Audit:       audit,
	}, cfg.Auth.CookieSecure).RegisterRoutes(public, adminRoutes)
	judge.NewJudgeHandler(authService, judgeService, criteriaService, evaluationService, cfg.Auth.CookieSecure).
		RegisterRoutes(public, judgeRoutes)
	participant.NewParticipantHandler(participantService, rankingService, cfg.Ranking.DefaultLimit, cfg.Auth.CookieSecure).
		RegisterRoutes(public, participantRoutes)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if adminBot != nil {
		g.Go(func() error {
			log.Info("telegram admin bot started")
			adminBot.Start(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped")
	}
}
