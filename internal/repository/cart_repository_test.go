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

func TestCartRepositoryInsertNew(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCartRepository(db)

	mock.ExpectExec("INSERT INTO cart_items").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.Insert(context.Background(), &models.CartItem{ClassID: "class-1", Email: "student@example.com"})
	require.NoError(t, err)
	assert.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepositoryInsertDuplicateDoesNothing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCartRepository(db)

	mock.ExpectExec("INSERT INTO cart_items").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Insert(context.Background(), &models.CartItem{ClassID: "class-1", Email: "student@example.com"})
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepositoryDeleteAbsentEntryIsIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCartRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE class_id = $1 AND email = $2")).
		WithArgs("class-1", "student@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "class-1", "student@example.com")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepositoryListByEmailJoinsCatalog(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCartRepository(db)

	rows := sqlmock.NewRows([]string{"id", "class_id", "email", "created_at", "class_name", "image", "instructor_name", "available_seat", "price"}).
		AddRow("cart-1", "class-1", "student@example.com", time.Now(), "Sketching", "", "Ava", 5, 29.99)
	mock.ExpectQuery(`SELECT ci\.id, ci\.class_id, ci\.email, ci\.created_at,.+FROM cart_items ci`).
		WithArgs("student@example.com").
		WillReturnRows(rows)

	items, err := repo.ListByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sketching", items[0].ClassName)
	require.NoError(t, mock.ExpectationsWereMet())
}
