package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draw-master/draw-master-api/internal/models"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
)

type mockUserRepo struct {
	users       map[string]*models.User
	updateCalls int
	updateErr   error
	listTotal   int
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) CreateIfAbsent(_ context.Context, user *models.User) (bool, error) {
	for _, u := range m.users {
		if u.Email == user.Email {
			return false, nil
		}
	}
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	if user.ID == "" {
		user.ID = "64b2e1d3f5a6b7c8d9e0f1a2"
	}
	m.users[user.ID] = user
	return true, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id string, role models.UserRole) error {
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Role = role
	return nil
}

func (m *mockUserRepo) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, m.listTotal, nil
}

func (m *mockUserRepo) ListInstructors(_ context.Context, _ int) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == models.RoleInstructor {
			out = append(out, *u)
		}
	}
	return out, nil
}

func TestUserServiceSetRole(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"64b2e1d3f5a6b7c8d9e0f1a2": {ID: "64b2e1d3f5a6b7c8d9e0f1a2", Email: "anna@example.com", Role: models.RoleStudent},
	}}
	svc := NewUserService(repo, nil)

	user, err := svc.SetRole(context.Background(), "64b2e1d3f5a6b7c8d9e0f1a2", models.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, user.Role)
	assert.Equal(t, 1, repo.updateCalls)
}

func TestUserServiceSetRoleRejectsStudentTarget(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil)

	_, err := svc.SetRole(context.Background(), "64b2e1d3f5a6b7c8d9e0f1a2", models.RoleStudent)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.updateCalls)
}

func TestUserServiceSetRoleMissingUser(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil)

	_, err := svc.SetRole(context.Background(), "64b2e1d3f5a6b7c8d9e0f1a2", models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceSyncUserIsIdempotent(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil)

	first, err := svc.SyncUser(context.Background(), &models.User{Email: "anna@example.com", Name: "Anna"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, first.Role)

	// The stored role survives a second sync that claims a different one.
	repo.users[first.ID].Role = models.RoleAdmin
	second, err := svc.SyncUser(context.Background(), &models.User{Email: "anna@example.com", Name: "Anna"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.RoleAdmin, second.Role)
	assert.Len(t, repo.users, 1)
}

func TestUserServiceListDefaultsPagination(t *testing.T) {
	repo := &mockUserRepo{listTotal: 42}
	svc := NewUserService(repo, nil)

	_, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 42, pagination.TotalCount)
}
