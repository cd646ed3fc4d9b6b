package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atlas-booking/internal/data/cache"
	"atlas-booking/internal/data/repository"
	"atlas-booking/internal/dto/request"
	"atlas-booking/internal/pipeline"
	"atlas-booking/internal/wizard"
	"atlas-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WizardService drives a booking draft through the wizard steps. Every
// method returns the draft it worked on, also alongside an error, so the
// caller can render the current step with its inline notice.
type WizardService interface {
	Start(ctx context.Context) (*wizard.Draft, error)
	Get(ctx context.Context, id string) (*wizard.Draft, error)
	SelectExperience(ctx context.Context, id string, req *request.SelectExperienceRequest) (*wizard.Draft, error)
	SelectDate(ctx context.Context, id string, req *request.SelectDateRequest) (*wizard.Draft, error)
	UpdateTravelers(ctx context.Context, id string, req *request.TravelerRequest) (*wizard.Draft, error)
	UpdateContact(ctx context.Context, id string, req *request.ContactRequest) (*wizard.Draft, error)
	Next(ctx context.Context, id string) (*wizard.Draft, error)
	Back(ctx context.Context, id string) (*wizard.Draft, error)

	// Submit runs the summary -> payment pipeline stage.
	Submit(ctx context.Context, id string) (*wizard.Draft, error)
	// Resume continues a submission after the sign-in redirect.
	Resume(ctx context.Context, req *request.ResumeRequest) (*wizard.Draft, error)
	// Pay takes the payment UI result and verifies it.
	Pay(ctx context.Context, id string, req *request.PaymentResultRequest) (*wizard.Draft, error)
	Discard(ctx context.Context, id string) error
}

const (
	editLockWait     = 2 * time.Second
	lockPollInterval = 25 * time.Millisecond
)

type wizardService struct {
	repo     *repository.Repository
	drafts   cache.DraftStore
	pipeline *pipeline.Pipeline
	secret   string
	now      func() time.Time
	log      *zap.Logger
}

func NewWizardService(
	repo *repository.Repository,
	drafts cache.DraftStore,
	pl *pipeline.Pipeline,
	config *utils.Config,
	log *zap.Logger,
) WizardService {
	return &wizardService{
		repo:     repo,
		drafts:   drafts,
		pipeline: pl,
		secret:   config.JWT.Secret,
		now:      time.Now,
		log:      log.With(zap.String("service", "wizard")),
	}
}

func (s *wizardService) Start(ctx context.Context) (*wizard.Draft, error) {
	d := wizard.New(uuid.NewString(), s.now())
	if userID, ok := utils.GetUserIDFromContext(ctx); ok {
		d.UserID = userID.String()
	}

	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	s.log.Debug("Draft started", zap.String("draft_id", d.ID))
	return d, nil
}

func (s *wizardService) Get(ctx context.Context, id string) (*wizard.Draft, error) {
	return s.load(ctx, id)
}

func (s *wizardService) SelectExperience(ctx context.Context, id string, req *request.SelectExperienceRequest) (*wizard.Draft, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	experienceID, _ := uuid.Parse(req.ExperienceID)
	experience, err := s.repo.Experience.FindByID(ctx, experienceID)
	if err != nil {
		return nil, fmt.Errorf("find experience: %w", err)
	}
	if experience == nil || !experience.IsActive {
		return nil, ErrExperienceUnavailable
	}

	ref := wizard.ExperienceRef{
		Type:      wizard.ExperienceType(experience.Type),
		ID:        experience.ID.String(),
		Title:     experience.Title,
		UnitPrice: experience.UnitPrice,
	}
	if experience.ImageRef != nil {
		ref.ImageRef = *experience.ImageRef
	}

	return s.mutate(ctx, id, func(d *wizard.Draft) error {
		return d.SelectExperience(ref)
	})
}

func (s *wizardService) SelectDate(ctx context.Context, id string, req *request.SelectDateRequest) (*wizard.Draft, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	day, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, req.Date)
	}
	if day.Before(wizard.Day(s.now())) {
		return nil, ErrDateInPast
	}

	return s.mutate(ctx, id, func(d *wizard.Draft) error {
		return d.SelectDate(day)
	})
}

func (s *wizardService) UpdateTravelers(ctx context.Context, id string, req *request.TravelerRequest) (*wizard.Draft, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(d *wizard.Draft) error {
		switch req.Action {
		case request.TravelerAddAdult:
			return d.IncrementAdults()
		case request.TravelerRemoveAdult:
			return d.DecrementAdults()
		case request.TravelerAddChild:
			return d.IncrementChildren()
		case request.TravelerRemoveChild:
			return d.DecrementChildren()
		default:
			return fmt.Errorf("%w: traveler action %q", ErrInvalidInput, req.Action)
		}
	})
}

func (s *wizardService) UpdateContact(ctx context.Context, id string, req *request.ContactRequest) (*wizard.Draft, error) {
	return s.mutate(ctx, id, func(d *wizard.Draft) error {
		return d.SetContact(wizard.Contact{
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Email:           req.Email,
			Phone:           req.Phone,
			SpecialRequests: req.SpecialRequests,
		})
	})
}

func (s *wizardService) Next(ctx context.Context, id string) (*wizard.Draft, error) {
	return s.mutate(ctx, id, (*wizard.Draft).Next)
}

func (s *wizardService) Back(ctx context.Context, id string) (*wizard.Draft, error) {
	return s.mutate(ctx, id, (*wizard.Draft).Back)
}

func (s *wizardService) Submit(ctx context.Context, id string) (*wizard.Draft, error) {
	return s.runPipeline(ctx, id, func(d *wizard.Draft) error {
		return s.pipeline.Submit(ctx, d)
	})
}

func (s *wizardService) Resume(ctx context.Context, req *request.ResumeRequest) (*wizard.Draft, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, ok := utils.GetUserIDFromContext(ctx); !ok {
		return nil, pipeline.ErrAuthRequired
	}

	draftID, err := utils.ParseResumeToken(req.ResumeToken, s.secret)
	if err != nil {
		s.log.Warn("Rejected resume token", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return s.runPipeline(ctx, draftID, func(d *wizard.Draft) error {
		return s.pipeline.Resume(ctx, d)
	})
}

func (s *wizardService) Pay(ctx context.Context, id string, req *request.PaymentResultRequest) (*wizard.Draft, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	return s.runPipeline(ctx, id, func(d *wizard.Draft) error {
		return s.pipeline.Pay(ctx, d, reportedPayment{result: req})
	})
}

func (s *wizardService) Discard(ctx context.Context, id string) error {
	release, err := s.lock(ctx, id, editLockWait)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, id)
}

// load fetches a draft the caller may act on. Drafts bound to a user are
// visible to that user only.
func (s *wizardService) load(ctx context.Context, id string) (*wizard.Draft, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDraftNotFound
	}

	if d.UserID != "" {
		userID, ok := utils.GetUserIDFromContext(ctx)
		if !ok {
			// the owner must sign in again to see it
			return nil, pipeline.ErrAuthRequired
		}
		if userID.String() != d.UserID {
			return nil, ErrDraftForbidden
		}
	}
	return d, nil
}

// lock takes the draft lock, polling for up to wait while a submission
// holds it. Loading, changing and storing a draft all happen under it.
func (s *wizardService) lock(ctx context.Context, id string, wait time.Duration) (func(), error) {
	release, err := s.pipeline.Lock(ctx, id)
	if wait <= 0 || !errors.Is(err, pipeline.ErrSubmissionInFlight) {
		return release, err
	}

	timeout := time.NewTimer(wait)
	defer timeout.Stop()
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			return nil, err
		case <-ticker.C:
		}

		release, err = s.pipeline.Lock(ctx, id)
		if !errors.Is(err, pipeline.ErrSubmissionInFlight) {
			return release, err
		}
	}
}

// mutate applies a wizard edit and stores the draft when it succeeds.
func (s *wizardService) mutate(ctx context.Context, id string, fn func(*wizard.Draft) error) (*wizard.Draft, error) {
	release, err := s.lock(ctx, id, editLockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(d); err != nil {
		return d, err
	}

	d.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, d); err != nil {
		return d, err
	}
	return d, nil
}

// runPipeline stores the draft whatever the pipeline outcome, because
// failures leave their notice on it. A second submission while one is
// running is rejected with a read-only copy of the draft.
func (s *wizardService) runPipeline(ctx context.Context, id string, run func(*wizard.Draft) error) (*wizard.Draft, error) {
	release, err := s.lock(ctx, id, 0)
	if errors.Is(err, pipeline.ErrSubmissionInFlight) {
		d, lerr := s.load(ctx, id)
		if lerr != nil {
			return nil, lerr
		}
		return d, err
	}
	if err != nil {
		return nil, err
	}
	defer release()

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	runErr := run(d)

	d.UpdatedAt = s.now()
	if err := s.drafts.Save(context.WithoutCancel(ctx), d); err != nil {
		s.log.Error("Failed to save draft after pipeline step",
			zap.Error(err),
			zap.String("draft_id", d.ID),
			zap.NamedError("pipeline_error", runErr),
		)
		if runErr == nil {
			return d, err
		}
	}
	return d, runErr
}

// reportedPayment adapts the payment UI result to a pipeline collector.
type reportedPayment struct {
	result *request.PaymentResultRequest
}

func (p reportedPayment) Collect(_ context.Context, _ string) (string, error) {
	e := p.result.Error
	if e == nil {
		return p.result.PaymentIntentID, nil
	}

	switch e.Type {
	case "card_error", "validation_error":
		return "", &pipeline.DeclineError{
			Code:        e.Code,
			DeclineCode: e.DeclineCode,
			Message:     e.Message,
		}
	default:
		return "", fmt.Errorf("payment ui reported %s: %s", e.Type, e.Message)
	}
}
