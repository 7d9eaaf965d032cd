package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/draw-master/draw-master-api/internal/models"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
)

type cartRepository interface {
	Insert(ctx context.Context, item *models.CartItem) (bool, error)
	ListByEmail(ctx context.Context, email string) ([]models.CartItemDetail, error)
	Delete(ctx context.Context, classID, email string) error
}

// AddToCartResult reports whether the selection was new. Picking the
// same class twice is not an error, only an acknowledgement.
type AddToCartResult struct {
	Item            *models.CartItem `json:"item,omitempty"`
	AlreadySelected bool             `json:"already_selected"`
}

// CartService manages a student's transient class selections.
type CartService struct {
	repo   cartRepository
	logger *zap.Logger
}

// NewCartService constructs a CartService instance.
func NewCartService(repo cartRepository, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{repo: repo, logger: logger}
}

// Add places a class in the caller's cart. Duplicate selections are
// reported, not rejected.
func (s *CartService) Add(ctx context.Context, classID, email string) (*AddToCartResult, error) {
	if classID == "" || email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id and email are required")
	}
	item := &models.CartItem{ClassID: classID, Email: email}
	inserted, err := s.repo.Insert(ctx, item)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add to cart")
	}
	if !inserted {
		return &AddToCartResult{AlreadySelected: true}, nil
	}
	return &AddToCartResult{Item: item}, nil
}

// List returns the caller's selections joined with catalog details.
func (s *CartService) List(ctx context.Context, email string) ([]models.CartItemDetail, error) {
	items, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cart")
	}
	return items, nil
}

// Remove drops a selection. Removing an absent item succeeds quietly so
// the operation can be retried.
func (s *CartService) Remove(ctx context.Context, classID, email string) error {
	if err := s.repo.Delete(ctx, classID, email); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove from cart")
	}
	return nil
}
