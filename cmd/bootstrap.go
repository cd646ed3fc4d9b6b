package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"atlas-booking/internal/data/cache"
	"atlas-booking/internal/data/repository"
	"atlas-booking/internal/gateway/events"
	"atlas-booking/internal/gateway/mailer"
	"atlas-booking/internal/gateway/payment"
	"atlas-booking/internal/pipeline"
	"atlas-booking/internal/usecase"
	redisinit "atlas-booking/pkg/cache"
	"atlas-booking/pkg/database"
	"atlas-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stack holds what both processes need. close releases it in reverse order.
type stack struct {
	config  *utils.Config
	logger  *zap.Logger
	repo    *repository.Repository
	rdb     *redis.Client
	service *usecase.Service
	closers []func()
}

func (rt *stack) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// bootstrap connects every backing service. notifier may be nil.
func bootstrap(ctx context.Context, name string, notifier func(*utils.Config, *zap.Logger) (pipeline.Notifier, func())) (*stack, error) {
	config, err := utils.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using zap production logger.", err)
		logger, _ = zap.NewProduction()
	}

	rt := &stack{config: config, logger: logger}
	rt.closers = append(rt.closers, func() { _ = logger.Sync() })

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("process", name),
		zap.Bool("debug", config.App.Debug),
	)

	db, err := database.InitDB(ctx, config.Database, logger)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	rt.closers = append(rt.closers, db.Close)
	logger.Info("Database connected successfully")

	rdb, err := redisinit.InitRedis(ctx, config.Redis)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	rt.closers = append(rt.closers, func() { _ = rdb.Close() })
	rt.rdb = rdb
	logger.Info("Redis connected successfully", zap.String("addr", config.Redis.Addr))

	var payments payment.Gateway
	gw, err := payment.NewStripeGateway(config.Stripe.SecretKey, config.Stripe.Currency, logger)
	switch {
	case errors.Is(err, payment.ErrNotConfigured):
		logger.Warn("STRIPE_SECRET_KEY not set, bookings cannot be paid")
	case err != nil:
		rt.close()
		return nil, fmt.Errorf("init stripe: %w", err)
	default:
		payments = gw
	}

	var mail mailer.Mailer
	if config.Mail.APIKey != "" {
		mail = mailer.NewMailerSend(config.Mail.APIKey, config.Mail.FromName, config.Mail.FromEmail, logger)
	} else {
		logger.Warn("MAILERSEND_API_KEY not set, confirmation emails are only logged")
		mail = mailer.NewDevMailer(logger)
	}

	var publisher events.Publisher
	if config.NATS.URL != "" {
		publisher, err = events.NewNATSPublisher(config.NATS.URL, "atlas", logger)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
	} else {
		publisher = events.NewNoopPublisher(logger)
	}
	rt.closers = append(rt.closers, publisher.Close)

	deps := usecase.Deps{
		Payments: payments,
		Mailer:   mail,
		Events:   publisher,
		Drafts:   cache.NewRedisDraftStore(rdb, config.Wizard.DraftTTL(), logger),
		Locker:   cache.NewRedisLocker(rdb, logger),
	}
	if notifier != nil {
		n, closeFn := notifier(config, logger)
		deps.Notifier = n
		rt.closers = append(rt.closers, closeFn)
	}

	rt.repo = repository.NewRepository(db, logger)
	rt.service = usecase.NewService(rt.repo, config, deps, logger)
	return rt, nil
}
