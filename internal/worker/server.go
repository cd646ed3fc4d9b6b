package worker

import (
	"context"
	"errors"
	"fmt"

	"atlas-booking/internal/pipeline"
	"atlas-booking/internal/usecase"
	"atlas-booking/pkg/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Server runs the background tasks: confirmation emails and the periodic
// sweep of pending bookings that never got paid.
type Server struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	sweep     string
	log       *zap.Logger
}

func NewServer(opt asynq.RedisClientOpt, config utils.WorkerConfig, service *usecase.Service, log *zap.Logger) *Server {
	log = log.With(zap.String("component", "worker"))

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: config.Concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
		},
		Logger: log.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Warn("Task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})

	h := &handlers{service: service, log: log}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingConfirmation, h.confirmation)
	mux.HandleFunc(TypeExpirePending, h.expirePending)
	mux.HandleFunc(TypeCleanSessions, h.cleanSessions)

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Logger: log.Sugar()})

	minutes := config.ExpirySweepMinutes
	if minutes < 1 {
		minutes = 5
	}

	return &Server{
		srv:       srv,
		scheduler: scheduler,
		mux:       mux,
		sweep:     fmt.Sprintf("@every %dm", minutes),
		log:       log,
	}
}

// Run blocks until the process receives SIGTERM or SIGINT.
func (s *Server) Run() error {
	entryID, err := s.scheduler.Register(s.sweep, NewExpirePendingTask(), asynq.Queue(QueueDefault))
	if err != nil {
		return fmt.Errorf("register expiry sweep: %w", err)
	}
	if _, err := s.scheduler.Register("@hourly", NewCleanSessionsTask(), asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("register session cleanup: %w", err)
	}
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer s.scheduler.Shutdown()

	s.log.Info("Worker started",
		zap.String("sweep", s.sweep),
		zap.String("entry_id", entryID),
	)
	return s.srv.Run(s.mux)
}

type handlers struct {
	service *usecase.Service
	log     *zap.Logger
}

func (h *handlers) confirmation(ctx context.Context, t *asynq.Task) error {
	p, err := parseConfirmation(t)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if err := h.service.Notification.SendBookingConfirmation(ctx, p.BookingID); err != nil {
		h.log.Warn("Booking confirmation not sent",
			zap.Error(fmt.Errorf("%w: %w", pipeline.ErrNotificationFailure, err)),
			zap.String("booking_id", p.BookingID),
		)
		if errors.Is(err, usecase.ErrNotFound) || errors.Is(err, usecase.ErrInvalidInput) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

func (h *handlers) expirePending(ctx context.Context, _ *asynq.Task) error {
	n, err := h.service.Booking.ExpirePending(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		h.log.Info("Pending bookings expired", zap.Int("count", n))
	}
	return nil
}

func (h *handlers) cleanSessions(ctx context.Context, _ *asynq.Task) error {
	n, err := h.service.Auth.CleanExpiredSessions(ctx)
	if err != nil {
		return err
	}
	h.log.Debug("Expired sessions removed", zap.Int64("count", n))
	return nil
}
