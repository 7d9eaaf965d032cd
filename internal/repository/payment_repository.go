package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/draw-master/draw-master-api/internal/models"
	"github.com/draw-master/draw-master-api/pkg/objectid"
)

const paymentColumns = `id, class_id, email, amount, amount_minor, currency, transaction_id, status, reconcile_note, created_at`

// PaymentRepository handles the append-only payment ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create appends a ledger entry. Existing rows are never touched.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = objectid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, class_id, email, amount, amount_minor, currency, transaction_id, status, reconcile_note, created_at)
        VALUES (:id, :class_id, :email, :amount, :amount_minor, :currency, :transaction_id, :status, :reconcile_note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByID returns a ledger entry.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by id: %w", err)
	}
	return &payment, nil
}

// ListByEmail returns the payer's ledger entries, newest first.
func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE email = $1 ORDER BY created_at DESC`, paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, email); err != nil {
		return nil, fmt.Errorf("list payments by email: %w", err)
	}
	return payments, nil
}

// ListEnrolledClasses joins completed payments against the catalog.
// The inner join silently drops ledger rows whose class has since been
// deleted, so the result can be smaller than the ledger count.
func (r *PaymentRepository) ListEnrolledClasses(ctx context.Context, email string) ([]models.EnrolledClass, error) {
	const query = `SELECT c.id, c.name, c.image, c.instructor_id, c.instructor_name, c.instructor_email,
        c.status, c.available_seat, c.enrolled, c.price, c.feedback, c.created_at, c.updated_at,
        p.id AS payment_id, p.created_at AS enrolled_at
        FROM payments p
        JOIN classes c ON c.id = p.class_id
        WHERE p.email = $1 AND p.status = $2
        ORDER BY p.created_at DESC`
	var classes []models.EnrolledClass
	if err := r.db.SelectContext(ctx, &classes, query, email, models.PaymentStatusCompleted); err != nil {
		return nil, fmt.Errorf("list enrolled classes: %w", err)
	}
	return classes, nil
}

// ListByStatus returns ledger entries in the given workflow state.
func (r *PaymentRepository) ListByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE status = $1 ORDER BY created_at ASC`, paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, status); err != nil {
		return nil, fmt.Errorf("list payments by status: %w", err)
	}
	return payments, nil
}

// ListAll returns the full ledger, newest first.
func (r *PaymentRepository) ListAll(ctx context.Context) ([]models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments ORDER BY created_at DESC`, paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// Resolve marks a flagged entry as manually reconciled. Only entries in
// NEEDS_RECONCILIATION can transition; the guard keeps the rest of the
// ledger immutable.
func (r *PaymentRepository) Resolve(ctx context.Context, id, note string) error {
	const query = `UPDATE payments SET status = $2, reconcile_note = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.PaymentStatusResolved, note, models.PaymentStatusNeedsReconciliation)
	if err != nil {
		return fmt.Errorf("resolve payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve payment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
