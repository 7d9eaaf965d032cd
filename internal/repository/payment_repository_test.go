package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draw-master/draw-master-api/internal/models"
)

func TestPaymentRepositoryListEnrolledClassesSkipsDeleted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	// The join only yields rows whose class still exists: a ledger with
	// two entries but one surviving class produces a single result.
	rows := sqlmock.NewRows([]string{"id", "name", "image", "instructor_id", "instructor_name", "instructor_email", "status", "available_seat", "enrolled", "price", "feedback", "created_at", "updated_at", "payment_id", "enrolled_at"}).
		AddRow("class-1", "Sketching", "", "inst-1", "Ava", "ava@example.com", models.ClassStatusApproved, 4, 13, 29.99, nil, time.Now(), time.Now(), "pay-1", time.Now())
	mock.ExpectQuery(`SELECT c\.id, c\.name,.+FROM payments p\s+JOIN classes c ON c\.id = p\.class_id`).
		WithArgs("student@example.com", models.PaymentStatusCompleted).
		WillReturnRows(rows)

	classes, err := repo.ListEnrolledClasses(context.Background(), "student@example.com")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "pay-1", classes[0].PaymentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryResolveOnlyFlaggedEntries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $2, reconcile_note = $3 WHERE id = $1 AND status = $4")).
		WithArgs("pay-1", models.PaymentStatusResolved, "refunded manually", models.PaymentStatusNeedsReconciliation).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Resolve(context.Background(), "pay-1", "refunded manually")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryResolveCompletedEntryFails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $2, reconcile_note = $3 WHERE id = $1 AND status = $4")).
		WithArgs("pay-2", models.PaymentStatusResolved, "oops", models.PaymentStatusNeedsReconciliation).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Resolve(context.Background(), "pay-2", "oops")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "class_id", "email", "amount", "amount_minor", "currency", "transaction_id", "status", "reconcile_note", "created_at"}).
		AddRow("pay-1", "class-1", "student@example.com", 29.99, 2999, "usd", "pi_123", models.PaymentStatusNeedsReconciliation, nil, time.Now())
	mock.ExpectQuery(`SELECT .+ FROM payments WHERE status = \$1 ORDER BY created_at ASC`).
		WithArgs(models.PaymentStatusNeedsReconciliation).
		WillReturnRows(rows)

	payments, err := repo.ListByStatus(context.Background(), models.PaymentStatusNeedsReconciliation)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(2999), payments[0].AmountMinor)
	require.NoError(t, mock.ExpectationsWereMet())
}
