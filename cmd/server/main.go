package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	httpapi "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/api/http"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/audit"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/auth"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/bid"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/dispute"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/lot"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/resource"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/tender"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/user"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/config"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/infrastructure/countdown"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/infrastructure/postgres"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/infrastructure/sse"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/infrastructure/ws"
)

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	tenderRepo := postgres.NewTenderRepository(pool)
	lotRepo := postgres.NewLotRepository(pool)
	partRepo := postgres.NewParticipationRepository(pool)
	bidRepo := postgres.NewBidRepository(pool)
	resourceRepo := postgres.NewResourceRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()
	wsHub := ws.NewHub(logger)
	scheduler := countdown.New()

	// services
	auditKey := loadHexKey(os.Getenv("AUDIT_SIGNING_KEY"))
	auditSvc := audit.NewService(auditRepo, logger, auditKey)
	disputeSvc := dispute.NewService(messageRepo, eventRepo, tenderRepo, sseHub, wsHub, logger)
	tenderSvc := tender.NewService(tenderRepo, auditSvc, logger)
	lotSvc := lot.NewService(lotRepo, partRepo, bidRepo, tenderRepo, disputeSvc, auditSvc, scheduler, logger)
	bidSvc := bid.NewService(bidRepo, lotRepo, partRepo, tenderRepo, disputeSvc, auditSvc, scheduler, cfg.BidConfirmWait, logger)
	resourceSvc := resource.NewService(resourceRepo, lotRepo, partRepo, disputeSvc, auditSvc, logger)
	userSvc := user.NewService(userRepo, logger)
	authSvc := auth.NewService(userRepo, sessionRepo, cfg.SessionTTL, logger)

	// API server
	apiServer := httpapi.NewServer(tenderSvc, lotSvc, bidSvc, resourceSvc, disputeSvc, auditSvc, authSvc, userSvc, sseHub, wsHub, cfg.SessionCookieName, cfg.SessionCookieSecure)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := sessionRepo.DeleteExpired(context.Background()); err == nil && n > 0 {
				logger.Debug().Int("count", n).Msg("expired sessions removed")
			}
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	scheduler.Stop()
	sseHub.Stop()
	wsHub.Stop()
}

func loadHexKey(hexStr string) []byte {
	if hexStr == "" {
		return nil
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil
	}
	return b
}
