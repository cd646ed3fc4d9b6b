package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"atlas-booking/internal/data/entity"
	"atlas-booking/internal/data/repository"
	"atlas-booking/internal/dto/request"
	"atlas-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ExperienceService interface {
	// ListExperiences lists active experiences, optionally of a single type.
	ListExperiences(ctx context.Context, query *request.ExperienceQuery) (*response.PaginatedResponse[response.ExperienceResponse], error)
	GetExperience(ctx context.Context, id string) (*response.ExperienceResponse, error)

	// Admin
	CreateExperience(ctx context.Context, req *request.CreateExperienceRequest) (*response.ExperienceResponse, error)
	UpdateExperience(ctx context.Context, id string, req *request.UpdateExperienceRequest) (*response.ExperienceResponse, error)
	DeleteExperience(ctx context.Context, id string) error
}

type experienceService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewExperienceService(repo *repository.Repository, log *zap.Logger) ExperienceService {
	return &experienceService{
		repo: repo,
		log:  log.With(zap.String("service", "experience")),
	}
}

func (s *experienceService) ListExperiences(ctx context.Context, query *request.ExperienceQuery) (*response.PaginatedResponse[response.ExperienceResponse], error) {
	if err := validate(query); err != nil {
		return nil, err
	}

	filter := repository.ExperienceFilter{ActiveOnly: true}
	if query.Type != "" {
		t := entity.ExperienceType(query.Type)
		filter.Type = &t
	}

	total, err := s.repo.Experience.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count experiences: %w", err)
	}

	experiences, err := s.repo.Experience.FindAll(ctx, filter, query.Limit(), query.Offset())
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}

	items := make([]response.ExperienceResponse, 0, len(experiences))
	for _, e := range experiences {
		items = append(items, response.ExperienceToResponse(e))
	}

	return response.NewPaginatedResponse(items, query.Page, query.Limit(), total), nil
}

func (s *experienceService) GetExperience(ctx context.Context, id string) (*response.ExperienceResponse, error) {
	e, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.IsActive {
		return nil, ErrExperienceUnavailable
	}

	resp := response.ExperienceToResponse(e)
	return &resp, nil
}

func (s *experienceService) CreateExperience(ctx context.Context, req *request.CreateExperienceRequest) (*response.ExperienceResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	now := time.Now()
	e := &entity.Experience{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Type:        entity.ExperienceType(req.Type),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    strings.TrimSpace(req.Location),
		UnitPrice:   req.UnitPrice,
		ImageRef:    req.ImageRef,
		IsActive:    true,
	}

	if err := s.repo.Experience.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create experience: %w", err)
	}

	s.log.Info("Experience created",
		zap.String("experience_id", e.ID.String()),
		zap.String("type", string(e.Type)),
	)

	resp := response.ExperienceToResponse(e)
	return &resp, nil
}

func (s *experienceService) UpdateExperience(ctx context.Context, id string, req *request.UpdateExperienceRequest) (*response.ExperienceResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	e, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		e.Type = entity.ExperienceType(*req.Type)
	}
	if req.Title != nil {
		e.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		e.Description = req.Description
	}
	if req.Location != nil {
		e.Location = strings.TrimSpace(*req.Location)
	}
	if req.UnitPrice != nil {
		e.UnitPrice = *req.UnitPrice
	}
	if req.ImageRef != nil {
		e.ImageRef = req.ImageRef
	}
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
	}
	e.UpdatedAt = time.Now()

	if err := s.repo.Experience.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update experience: %w", err)
	}

	s.log.Info("Experience updated", zap.String("experience_id", e.ID.String()))

	resp := response.ExperienceToResponse(e)
	return &resp, nil
}

func (s *experienceService) DeleteExperience(ctx context.Context, id string) error {
	e, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Experience.Delete(ctx, e.ID)
}

func (s *experienceService) find(ctx context.Context, id string) (*entity.Experience, error) {
	experienceID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: experience id", ErrInvalidInput)
	}

	e, err := s.repo.Experience.FindByID(ctx, experienceID)
	if err != nil {
		return nil, fmt.Errorf("find experience: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("experience %s: %w", id, ErrNotFound)
	}
	return e, nil
}
