package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draw-master/draw-master-api/internal/gateway"
	"github.com/draw-master/draw-master-api/internal/models"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
	"github.com/draw-master/draw-master-api/pkg/jobs"
)

// JobTypeCartCleanup retries the post-checkout cart delete when the
// inline attempt fails.
const JobTypeCartCleanup = "cart_cleanup"

type checkoutClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ReserveSeat(ctx context.Context, id string) (bool, error)
}

type checkoutPaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	ListEnrolledClasses(ctx context.Context, email string) ([]models.EnrolledClass, error)
}

type checkoutCartRepository interface {
	Delete(ctx context.Context, classID, email string) error
}

type cleanupEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// IntentRequest asks the gateway for a charge authorization ahead of
// checkout.
type IntentRequest struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

// IntentResponse carries the client secret the frontend confirms with.
type IntentResponse struct {
	ClientSecret string `json:"client_secret"`
	AmountMinor  int64  `json:"amount_minor"`
	Currency     string `json:"currency"`
}

// CheckoutRequest finalizes an enrollment for a class in the caller's
// cart.
type CheckoutRequest struct {
	ClassID string `json:"class_id" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

// CartCleanupPayload identifies the cart row a retry job must remove.
type CartCleanupPayload struct {
	ClassID string
	Email   string
}

// CheckoutService runs the enrollment workflow. The ledger write is the
// commit point: everything before it can fail without side effects on
// our side, everything after it is best effort.
type CheckoutService struct {
	classes   checkoutClassRepository
	payments  checkoutPaymentRepository
	cart      checkoutCartRepository
	gateway   gateway.Gateway
	queue     cleanupEnqueuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	currency  string
}

// NewCheckoutService constructs a CheckoutService instance.
func NewCheckoutService(
	classes checkoutClassRepository,
	payments checkoutPaymentRepository,
	cart checkoutCartRepository,
	gw gateway.Gateway,
	queue cleanupEnqueuer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	currency string,
) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if currency == "" {
		currency = "usd"
	}
	return &CheckoutService{
		classes:   classes,
		payments:  payments,
		cart:      cart,
		gateway:   gw,
		queue:     queue,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		currency:  currency,
	}
}

// CreateIntent requests a charge authorization for the given price. The
// price is converted to minor units by truncation, never rounding up.
func (s *CheckoutService) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intent payload")
	}
	intent, err := s.gateway.CreateIntent(ctx, gateway.MinorUnits(req.Price), s.currency)
	if err != nil {
		return nil, gatewayError(err)
	}
	return &IntentResponse{
		ClientSecret: intent.ClientSecret,
		AmountMinor:  intent.AmountMinor,
		Currency:     intent.Currency,
	}, nil
}

// Checkout charges the caller for a class and enrolls them. The steps
// run in a fixed order:
//
//  1. charge through the gateway; a rejection leaves everything untouched
//  2. conditionally reserve a seat; the catalog row arbitrates the race
//  3. append the ledger entry; this is the enrollment commit point
//  4. remove the cart selection, retried in the background on failure
//
// When the seat reservation loses the race after the charge captured,
// the ledger entry is written as NEEDS_RECONCILIATION so the captured
// money is never silently lost, and the caller gets a conflict.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest, caller *models.JWTClaims) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid checkout payload")
	}
	if req.Email != caller.Email {
		return nil, appErrors.ErrForbidden
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
	}
	if class.Status != models.ClassStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is not open for enrollment")
	}

	amountMinor := gateway.MinorUnits(class.Price)
	intent, err := s.gateway.CreateIntent(ctx, amountMinor, s.currency)
	if err != nil {
		s.metrics.ObserveCheckout(CheckoutOutcomeGatewayFailed)
		return nil, gatewayError(err)
	}

	reserved, err := s.classes.ReserveSeat(ctx, req.ClassID)
	if err != nil {
		// Charge captured, seat state unknown. Treat as lost so the
		// ledger keeps the money trail either way.
		s.logger.Error("seat reservation errored after charge",
			zap.String("class_id", req.ClassID), zap.String("transaction_id", intent.ID), zap.Error(err))
		reserved = false
	}

	payment := &models.Payment{
		ClassID:       req.ClassID,
		Email:         req.Email,
		Amount:        class.Price,
		AmountMinor:   amountMinor,
		Currency:      s.currency,
		TransactionID: intent.ID,
		Status:        models.PaymentStatusCompleted,
	}
	if !reserved {
		payment.Status = models.PaymentStatusNeedsReconciliation
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		// Money moved and we could not record it. Nothing downstream
		// can fix this automatically, so surface it loudly.
		s.logger.Error("ledger write failed after charge",
			zap.String("class_id", req.ClassID), zap.String("transaction_id", intent.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	if !reserved {
		s.metrics.ObserveCheckout(CheckoutOutcomeCapacityExhausted)
		s.logger.Warn("checkout flagged for reconciliation",
			zap.String("payment_id", payment.ID), zap.String("class_id", req.ClassID))
		return payment, appErrors.ErrCapacityExhausted
	}

	s.cleanupCart(ctx, req.ClassID, req.Email)
	s.metrics.ObserveCheckout(CheckoutOutcomeCompleted)
	s.logger.Info("checkout completed",
		zap.String("payment_id", payment.ID), zap.String("class_id", req.ClassID), zap.String("email", req.Email))
	return payment, nil
}

// ListEnrollments returns the caller's enrolled classes, derived from
// the ledger.
func (s *CheckoutService) ListEnrollments(ctx context.Context, email string) ([]models.EnrolledClass, error) {
	enrolled, err := s.payments.ListEnrolledClasses(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrolled, nil
}

func (s *CheckoutService) cleanupCart(ctx context.Context, classID, email string) {
	err := s.cart.Delete(ctx, classID, email)
	if err == nil {
		return
	}
	s.logger.Warn("inline cart cleanup failed, queueing retry",
		zap.String("class_id", classID), zap.String("email", email), zap.Error(err))
	if s.queue == nil {
		return
	}
	job := jobs.Job{
		ID:       uuid.NewString(),
		Type:     JobTypeCartCleanup,
		Payload:  CartCleanupPayload{ClassID: classID, Email: email},
		Enqueued: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Error("cart cleanup enqueue failed",
			zap.String("class_id", classID), zap.String("email", email), zap.Error(err))
	}
}

// CartCleanupHandler returns the queue handler that retries cart
// deletes.
func CartCleanupHandler(cart checkoutCartRepository) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(CartCleanupPayload)
		if !ok {
			return nil
		}
		return cart.Delete(ctx, payload.ClassID, payload.Email)
	}
}

func gatewayError(err error) error {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return appErrors.Wrap(err, appErrors.ErrGateway.Code, appErrors.ErrGateway.Status, gwErr.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrGateway.Code, appErrors.ErrGateway.Status, appErrors.ErrGateway.Message)
}
