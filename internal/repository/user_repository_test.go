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

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "name", "photo_url", "role", "password_hash", "created_at", "updated_at"}).
		AddRow("user-1", "ava@example.com", "Ava", "", models.RoleInstructor, "hash", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, name, photo_url, role, password_hash, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("ava@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "ava@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateIfAbsentExistingEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.CreateIfAbsent(context.Background(), &models.User{Email: "ava@example.com", Name: "Ava"})
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateIfAbsentDefaultsStudentRole(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Email: "new@example.com", Name: "New"}
	inserted, err := repo.CreateIfAbsent(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEmpty(t, user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateRoleMissingUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("missing", models.RoleAdmin, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRole(context.Background(), "missing", models.RoleAdmin)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
