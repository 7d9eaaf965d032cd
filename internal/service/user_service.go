package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/draw-master/draw-master-api/internal/models"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	CreateIfAbsent(ctx context.Context, user *models.User) (bool, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ListInstructors(ctx context.Context, limit int) ([]models.User, error)
}

// UserService provides account directory use cases.
type UserService struct {
	repo   userRepository
	logger *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// List returns users matching the filter together with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return users, pagination, nil
}

// ListInstructors returns users with the instructor role, newest first.
// A non-positive limit returns all of them.
func (s *UserService) ListInstructors(ctx context.Context, limit int) ([]models.User, error) {
	instructors, err := s.repo.ListInstructors(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, nil
}

// SyncUser upserts an account record for an externally authenticated
// identity. Repeated calls for the same email are no-ops; the stored
// role is never overwritten.
func (s *UserService) SyncUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	inserted, err := s.repo.CreateIfAbsent(ctx, user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync user")
	}
	if inserted {
		s.logger.Info("user created", zap.String("email", user.Email), zap.String("role", string(user.Role)))
		return user, nil
	}
	existing, err := s.repo.FindByEmail(ctx, user.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	return existing, nil
}

// SetRole promotes or demotes a user. Only admin and instructor are
// assignable targets; nobody is demoted back to student through this path.
func (s *UserService) SetRole(ctx context.Context, id string, role models.UserRole) (*models.User, error) {
	if role != models.RoleAdmin && role != models.RoleInstructor {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be admin or instructor")
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	s.logger.Info("user role updated", zap.String("id", id), zap.String("role", string(role)))
	return user, nil
}
