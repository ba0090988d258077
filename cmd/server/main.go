package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	adminhandler "lead-capture/internal/admin/handler"
	"lead-capture/internal/config"
	"lead-capture/internal/db"
	healthhandler "lead-capture/internal/health/handler"
	leadhandler "lead-capture/internal/lead/handler"
	"lead-capture/internal/lead/repository"
	"lead-capture/internal/lead/service"
	"lead-capture/internal/logging"
	pagehandler "lead-capture/internal/page/handler"
	"lead-capture/internal/security"
	"lead-capture/internal/server"
	"lead-capture/internal/telemetry"
	otelsetup "lead-capture/internal/telemetry/otel"
	"lead-capture/internal/telemetry/producer"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", zap.Error(err))
		}
	}()

	checks := map[string]healthhandler.Pinger{}
	var repo repository.Repository
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			return errors.New("DATABASE_URL must be set when APP_ENV=production")
		}
		logger.Warn("DATABASE_URL not set; leads are kept in memory and lost on restart")
		repo = repository.NewMemoryRepository()
	} else {
		conn, err := db.OpenX(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer conn.Close()
		if db.IsSQLite(cfg.DatabaseURL) {
			if err := db.EnsureSchema(ctx, conn); err != nil {
				return fmt.Errorf("db schema: %w", err)
			}
		}
		checks["database"] = conn
		repo = repository.NewSQLRepository(conn)
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		checks["redis"] = healthhandler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		repo = repository.NewCachedRepository(repo, repository.NewRedisCache(rdb), cfg.ListCacheDuration(), logger)
		logger.Info("lead listing cache enabled", zap.Duration("ttl", cfg.ListCacheDuration()))
	}

	// Lead events go to Kafka when configured and always to the OTel log pipeline.
	// Request events go to Kafka only.
	var requestEvents telemetry.EventEmitter
	leadEmitters := []telemetry.EventEmitter{otelsetup.NewEventEmitter(providers.LoggerProvider)}
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.LeadEventsTopic); kp != nil {
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Warn("kafka producer close", zap.Error(err))
			}
		}()
		requestEvents = kp
		leadEmitters = append(leadEmitters, kp)
		logger.Info("lead events enabled", zap.String("topic", cfg.LeadEventsTopic))
	}

	svc, err := service.NewSubmissionService(repo, telemetry.Fanout(leadEmitters...), logger)
	if err != nil {
		return err
	}
	page, err := pagehandler.NewPage(svc, logger)
	if err != nil {
		return err
	}
	admin, err := newAdminHandler(cfg, repo, logger)
	if err != nil {
		return err
	}
	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	if csrfKey == nil {
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			return fmt.Errorf("csrf key: %w", err)
		}
		logger.Warn("CSRF_KEY not set; using an ephemeral key, open forms break on restart")
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewRouter(server.Deps{
			Leads:         leadhandler.NewHandler(svc, logger),
			Page:          page,
			Admin:         admin,
			Health:        healthhandler.NewServer(checks, logger),
			Events:        requestEvents,
			CSRFKey:       csrfKey,
			SecureCookies: cfg.IsProduction(),
			ServiceName:   cfg.ServiceName,
			Logger:        logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()

	if !telemetry.Drain(telemetry.ShutdownDrainDuration) {
		logger.Warn("telemetry emits still in flight at shutdown")
	}
	logger.Info("http server stopped")
	return err
}

func newAdminHandler(cfg *config.Config, repo repository.Repository, logger *zap.Logger) (*adminhandler.Handler, error) {
	signer, pub, ephemeral, err := security.SigningKeys(cfg.AdminJWTPrivateKey, cfg.AdminJWTPublicKey)
	if err != nil {
		return nil, fmt.Errorf("admin keys: %w", err)
	}
	if ephemeral {
		logger.Warn("admin JWT keys not set; using an ephemeral key, admin sessions end on restart")
	}
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set; admin routes are open")
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.AdminJWTIssuer, cfg.AdminJWTAudience, cfg.AdminTokenDuration())
	return adminhandler.NewHandler(repo, adminhandler.Config{
		PasswordHash: cfg.AdminPasswordHash,
		Tokens:       tokens,
		Hasher:       security.NewHasher(cfg.BcryptCost),
		SecureCookie: cfg.IsProduction(),
	}, logger)
}
