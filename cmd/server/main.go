package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/sellerhub/internal/config"
	"github.com/iliyamo/sellerhub/internal/database"
	"github.com/iliyamo/sellerhub/internal/handler"
	"github.com/iliyamo/sellerhub/internal/logger"
	"github.com/iliyamo/sellerhub/internal/mail"
	"github.com/iliyamo/sellerhub/internal/middleware"
	"github.com/iliyamo/sellerhub/internal/queue"
	"github.com/iliyamo/sellerhub/internal/repository"
	"github.com/iliyamo/sellerhub/internal/router"
	"github.com/iliyamo/sellerhub/internal/service"
	"github.com/iliyamo/sellerhub/internal/storage"
	"github.com/iliyamo/sellerhub/internal/storage/local"
	"github.com/iliyamo/sellerhub/internal/storage/minio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(0).Fatal("config", "err", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal("database", "err", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("migrate", "err", err)
	}

	// Redis is optional: without it OTPs and rate limits live in process
	// memory and image responses are not cached.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable, using in-memory otp store and rate limiter", "addr", cfg.Redis.Address())
	} else {
		defer rdb.Close()
	}

	blobs, err := newStorage(ctx, cfg)
	if err != nil {
		log.Fatal("storage", "err", err)
	}
	mailer := newMailer(ctx, cfg, log)

	users := repository.NewUserRepo(db)
	otpSvc := service.NewOTPService(newOTPStore(rdb, cfg.OTP.Prefix), cfg.OTP.TTL, cfg.OTP.Digits)
	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL, users)
	auth := service.NewAuthService(users, otpSvc, tokens, mailer, service.AuthOptions{
		BcryptCost:       cfg.BcryptCost,
		ResetRequiresOTP: cfg.ResetRequiresOTP,
	})

	e := router.New(log.Logger, cfg.CORSOrigin)
	guards := router.Guards{
		Auth:      middleware.JWTAuth(tokens),
		RateLimit: middleware.NewTokenBucket(cfg.RateLimit, rdb),
		Cache:     middleware.NewRedisCache(cfg.Cache, rdb),
	}
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(auth), guards)
	router.RegisterUsers(e, handler.NewUserHandler(auth, tokens), guards)
	router.RegisterSellers(e, handler.NewSellerHandler(repository.NewSellerRepo(db), blobs), guards)
	router.RegisterReviews(e, handler.NewReviewHandler(repository.NewReviewRepo(db), blobs), guards)

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}

func newOTPStore(rdb *redis.Client, prefix string) service.OTPStore {
	if rdb == nil {
		return repository.NewMemoryOTPStore()
	}
	return repository.NewRedisOTPStore(rdb, prefix)
}

func newStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "minio":
		return minio.New(ctx, cfg.Minio)
	default:
		return local.New(cfg.Storage.LocalDir), nil
	}
}

// newMailer picks the OTP mail transport. The queue transport publishes to
// RabbitMQ and starts a consumer that relays through SMTP.
func newMailer(ctx context.Context, cfg config.Config, log *logger.Logger) mail.Sender {
	smtpSender := mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.Mail.From)
	switch cfg.Mail.Transport {
	case "smtp":
		return smtpSender
	case "queue":
		consumer := &queue.Consumer{
			URL:    cfg.RabbitMQ.URL,
			Queue:  cfg.RabbitMQ.MailQueue,
			Sender: smtpSender,
			Log:    log.Logger,
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("mail consumer stopped", "err", err)
			}
		}()
		return queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.MailQueue)
	default:
		return mail.LogSender{Log: log.Logger}
	}
}

