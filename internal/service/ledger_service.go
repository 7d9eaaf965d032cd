package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/draw-master/draw-master-api/internal/models"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
	"github.com/draw-master/draw-master-api/pkg/export"
)

type ledgerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListByEmail(ctx context.Context, email string) ([]models.Payment, error)
	ListByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error)
	ListAll(ctx context.Context) ([]models.Payment, error)
	Resolve(ctx context.Context, id, note string) error
}

// LedgerService provides read and export surfaces over the payment
// ledger, plus the reconciliation workflow for flagged entries.
type LedgerService struct {
	repo   ledgerRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewLedgerService constructs a LedgerService instance.
func NewLedgerService(repo ledgerRepository, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Get returns a ledger entry visible to its payer or an admin.
func (s *LedgerService) Get(ctx context.Context, id string, caller *models.JWTClaims) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch payment")
	}
	if payment.Email != caller.Email && caller.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	return payment, nil
}

// ListByPayer returns the caller's ledger entries, newest first.
func (s *LedgerService) ListByPayer(ctx context.Context, email string) ([]models.Payment, error) {
	payments, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// Receipt renders a PDF receipt for a ledger entry.
func (s *LedgerService) Receipt(ctx context.Context, id string, caller *models.JWTClaims) ([]byte, error) {
	payment, err := s.Get(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	fields := []export.Field{
		{Label: "Payment ID", Value: payment.ID},
		{Label: "Class ID", Value: payment.ClassID},
		{Label: "Payer", Value: payment.Email},
		{Label: "Amount", Value: fmt.Sprintf("%.2f %s", payment.Amount, payment.Currency)},
		{Label: "Transaction", Value: payment.TransactionID},
		{Label: "Status", Value: string(payment.Status)},
		{Label: "Date", Value: payment.CreatedAt.Format("2006-01-02 15:04:05 MST")},
	}
	pdf, err := s.pdf.RenderReceipt("Payment Receipt", fields)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return pdf, nil
}

// ExportCSV renders the full ledger as CSV for admin download.
func (s *LedgerService) ExportCSV(ctx context.Context) ([]byte, error) {
	payments, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	data := export.Dataset{
		Headers: []string{"id", "class_id", "email", "amount", "currency", "transaction_id", "status", "created_at"},
		Rows:    make([]map[string]string, 0, len(payments)),
	}
	for _, p := range payments {
		data.Rows = append(data.Rows, map[string]string{
			"id":             p.ID,
			"class_id":       p.ClassID,
			"email":          p.Email,
			"amount":         fmt.Sprintf("%.2f", p.Amount),
			"currency":       p.Currency,
			"transaction_id": p.TransactionID,
			"status":         string(p.Status),
			"created_at":     p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return out, nil
}

// ListFlagged returns ledger entries awaiting manual follow-up.
func (s *LedgerService) ListFlagged(ctx context.Context) ([]models.Payment, error) {
	payments, err := s.repo.ListByStatus(ctx, models.PaymentStatusNeedsReconciliation)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list flagged payments")
	}
	return payments, nil
}

// Resolve closes a flagged entry with a note. Only entries currently
// flagged can be resolved; resolving twice is a conflict.
func (s *LedgerService) Resolve(ctx context.Context, id, note string) (*models.Payment, error) {
	if note == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resolution note is required")
	}
	if err := s.repo.Resolve(ctx, id, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "payment is not awaiting reconciliation")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve payment")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch payment")
	}
	s.logger.Info("payment reconciled", zap.String("id", id))
	return payment, nil
}

// Sweep logs the current reconciliation backlog. It runs on a schedule
// so flagged entries do not sit unnoticed between admin visits.
func (s *LedgerService) Sweep(ctx context.Context) {
	flagged, err := s.repo.ListByStatus(ctx, models.PaymentStatusNeedsReconciliation)
	if err != nil {
		s.logger.Error("reconciliation sweep failed", zap.Error(err))
		return
	}
	if len(flagged) == 0 {
		return
	}
	s.logger.Warn("payments awaiting reconciliation", zap.Int("count", len(flagged)))
}
