package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/draw-master/draw-master-api/internal/models"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
)

const (
	catalogCacheKey     = "catalog:approved"
	catalogCachePattern = "catalog:*"
)

type classRepository interface {
	Create(ctx context.Context, class *models.Class) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, error)
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error
	UpdateFeedback(ctx context.Context, id, feedback string) error
	UpdateCapacity(ctx context.Context, id string, availableSeat int, price float64) error
}

// CreateClassRequest is the payload an instructor submits for review.
type CreateClassRequest struct {
	Name          string  `json:"name" validate:"required"`
	Image         string  `json:"image"`
	AvailableSeat int     `json:"available_seat" validate:"required,min=1"`
	Price         float64 `json:"price" validate:"required,min=0"`
}

// UpdateClassRequest adjusts seats and price on an existing listing.
type UpdateClassRequest struct {
	AvailableSeat int     `json:"available_seat" validate:"required,min=0"`
	Price         float64 `json:"price" validate:"required,min=0"`
}

// ClassService provides catalog and review workflow use cases.
type ClassService struct {
	repo      classRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	popLimit  int
}

// NewClassService constructs a ClassService instance.
func NewClassService(repo classRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, popularLimit int) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassService{repo: repo, cache: cache, validator: validate, logger: logger, popLimit: popularLimit}
}

// Create submits a new class. Listings always enter the catalog pending;
// only an admin approval makes them visible to students.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest, instructor *models.JWTClaims) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := &models.Class{
		Name:            req.Name,
		Image:           req.Image,
		InstructorID:    instructor.UserID,
		InstructorEmail: instructor.Email,
		AvailableSeat:   req.AvailableSeat,
		Price:           req.Price,
		Status:          models.ClassStatusPending,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.logger.Info("class submitted", zap.String("id", class.ID), zap.String("instructor", instructor.Email))
	return class, nil
}

// ListApproved returns the public catalog, most-enrolled first, serving
// from cache when possible. A non-positive limit falls back to the
// configured popular-listing size, so the bare catalog request returns
// the top classes rather than the whole table.
func (s *ClassService) ListApproved(ctx context.Context, limit int) ([]models.Class, error) {
	if limit <= 0 {
		limit = s.popLimit
	}
	key := catalogCacheKey
	if limit > 0 {
		key = fmt.Sprintf("%s:limit:%d", catalogCacheKey, limit)
	}
	var cached []models.Class
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	classes, err := s.repo.List(ctx, models.ClassFilter{Status: models.ClassStatusApproved, Limit: limit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if err := s.cache.Set(ctx, key, classes, 0); err != nil {
		s.logger.Warn("catalog cache population failed", zap.Error(err))
	}
	return classes, nil
}

// ListAll returns every class regardless of status. Admin-only surface.
func (s *ClassService) ListAll(ctx context.Context) ([]models.Class, error) {
	classes, err := s.repo.List(ctx, models.ClassFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// ListByInstructor returns the classes an instructor has submitted,
// in every status.
func (s *ClassService) ListByInstructor(ctx context.Context, email string) ([]models.Class, error) {
	classes, err := s.repo.List(ctx, models.ClassFilter{InstructorEmail: email})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Get returns a single class by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
	}
	return class, nil
}

// Approve moves a class into the public catalog.
func (s *ClassService) Approve(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, models.ClassStatusApproved)
}

// Deny rejects a class. Denied classes remain visible to their
// instructor and to admins, never to students.
func (s *ClassService) Deny(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, models.ClassStatusDenied)
}

// Feedback attaches admin review feedback to a class without touching
// its status.
func (s *ClassService) Feedback(ctx context.Context, id, feedback string) error {
	if feedback == "" {
		return appErrors.Clone(appErrors.ErrValidation, "feedback is required")
	}
	if err := s.repo.UpdateFeedback(ctx, id, feedback); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save feedback")
	}
	return nil
}

// UpdateCapacity lets the owning instructor adjust seats and price.
// Ownership is checked against the caller's email, not their id, since
// the listing carries the instructor email it was submitted with.
func (s *ClassService) UpdateCapacity(ctx context.Context, id string, req UpdateClassRequest, caller *models.JWTClaims) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if class.InstructorEmail != caller.Email {
		return nil, appErrors.ErrForbidden
	}
	if err := s.repo.UpdateCapacity(ctx, id, req.AvailableSeat, req.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.invalidateCatalog(ctx)
	class.AvailableSeat = req.AvailableSeat
	class.Price = req.Price
	return class, nil
}

func (s *ClassService) setStatus(ctx context.Context, id string, status models.ClassStatus) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}
	s.invalidateCatalog(ctx)
	s.logger.Info("class status updated", zap.String("id", id), zap.String("status", string(status)))
	return nil
}

func (s *ClassService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogCachePattern); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
