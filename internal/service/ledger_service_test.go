package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draw-master/draw-master-api/internal/models"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
)

type mockLedgerRepo struct {
	payments map[string]*models.Payment
}

func (m *mockLedgerRepo) FindByID(_ context.Context, id string) (*models.Payment, error) {
	payment, ok := m.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *payment
	return &copied, nil
}

func (m *mockLedgerRepo) ListByEmail(_ context.Context, email string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if p.Email == email {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockLedgerRepo) ListByStatus(_ context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockLedgerRepo) ListAll(_ context.Context) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockLedgerRepo) Resolve(_ context.Context, id, note string) error {
	payment, ok := m.payments[id]
	if !ok || payment.Status != models.PaymentStatusNeedsReconciliation {
		return sql.ErrNoRows
	}
	payment.Status = models.PaymentStatusResolved
	payment.ReconcileNote = &note
	return nil
}

func seedPayment(status models.PaymentStatus) *models.Payment {
	return &models.Payment{
		ID:            "64f6c5d7e8f9a0b1c2d3e4f5",
		ClassID:       "64c3f2e4a5b6c7d8e9f0a1b2",
		Email:         "anna@example.com",
		Amount:        49.99,
		AmountMinor:   4999,
		Currency:      "usd",
		TransactionID: "pi_test_123",
		Status:        status,
		CreatedAt:     time.Date(2026, 5, 12, 10, 30, 0, 0, time.UTC),
	}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "64b2e1d3f5a6b7c8d9e0f1a2", Email: "admin@example.com", Role: models.RoleAdmin}
}

func TestLedgerServiceGetVisibility(t *testing.T) {
	repo := &mockLedgerRepo{payments: map[string]*models.Payment{
		"64f6c5d7e8f9a0b1c2d3e4f5": seedPayment(models.PaymentStatusCompleted),
	}}
	svc := NewLedgerService(repo, nil)

	payment, err := svc.Get(context.Background(), "64f6c5d7e8f9a0b1c2d3e4f5", studentClaims("anna@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "pi_test_123", payment.TransactionID)

	_, err = svc.Get(context.Background(), "64f6c5d7e8f9a0b1c2d3e4f5", studentClaims("boris@example.com"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "64f6c5d7e8f9a0b1c2d3e4f5", adminClaims())
	require.NoError(t, err)
}

func TestLedgerServiceReceiptRendersPDF(t *testing.T) {
	repo := &mockLedgerRepo{payments: map[string]*models.Payment{
		"64f6c5d7e8f9a0b1c2d3e4f5": seedPayment(models.PaymentStatusCompleted),
	}}
	svc := NewLedgerService(repo, nil)

	pdf, err := svc.Receipt(context.Background(), "64f6c5d7e8f9a0b1c2d3e4f5", studentClaims("anna@example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestLedgerServiceExportCSV(t *testing.T) {
	repo := &mockLedgerRepo{payments: map[string]*models.Payment{
		"64f6c5d7e8f9a0b1c2d3e4f5": seedPayment(models.PaymentStatusCompleted),
	}}
	svc := NewLedgerService(repo, nil)

	out, err := svc.ExportCSV(context.Background())
	require.NoError(t, err)
	body := string(out)
	assert.Contains(t, body, "id,class_id,email,amount,currency,transaction_id,status,created_at")
	assert.Contains(t, body, "pi_test_123")
	assert.Contains(t, body, "49.99")
}

func TestLedgerServiceResolveFlow(t *testing.T) {
	repo := &mockLedgerRepo{payments: map[string]*models.Payment{
		"64f6c5d7e8f9a0b1c2d3e4f5": seedPayment(models.PaymentStatusNeedsReconciliation),
	}}
	svc := NewLedgerService(repo, nil)

	flagged, err := svc.ListFlagged(context.Background())
	require.NoError(t, err)
	require.Len(t, flagged, 1)

	payment, err := svc.Resolve(context.Background(), "64f6c5d7e8f9a0b1c2d3e4f5", "refunded via dashboard")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusResolved, payment.Status)
	require.NotNil(t, payment.ReconcileNote)
	assert.Equal(t, "refunded via dashboard", *payment.ReconcileNote)

	// Resolving twice hits the status guard.
	_, err = svc.Resolve(context.Background(), "64f6c5d7e8f9a0b1c2d3e4f5", "again")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceResolveRequiresNote(t *testing.T) {
	svc := NewLedgerService(&mockLedgerRepo{}, nil)

	_, err := svc.Resolve(context.Background(), "64f6c5d7e8f9a0b1c2d3e4f5", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceCompletedPaymentsAreImmutable(t *testing.T) {
	repo := &mockLedgerRepo{payments: map[string]*models.Payment{
		"64f6c5d7e8f9a0b1c2d3e4f5": seedPayment(models.PaymentStatusCompleted),
	}}
	svc := NewLedgerService(repo, nil)

	_, err := svc.Resolve(context.Background(), "64f6c5d7e8f9a0b1c2d3e4f5", "should not apply")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.PaymentStatusCompleted, repo.payments["64f6c5d7e8f9a0b1c2d3e4f5"].Status)
}
