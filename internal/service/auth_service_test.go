package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/draw-master/draw-master-api/internal/models"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
)

type mockAuthRepo struct {
	users    map[string]*models.User
	findErr  error
	inserted int
}

func (m *mockAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	user, ok := m.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) CreateIfAbsent(_ context.Context, user *models.User) (bool, error) {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	if _, exists := m.users[user.Email]; exists {
		return false, nil
	}
	if user.ID == "" {
		user.ID = "64a1f0c2e4b0a1b2c3d4e5f6"
	}
	m.users[user.Email] = user
	m.inserted++
	return true, nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "draw-master-api",
	}
}

func TestAuthServiceRegisterAssignsStudentRole(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "anna@example.com",
		Password: "secret123",
		Name:     "Anna",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, 1, repo.inserted)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", claims.Email)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{users: map[string]*models.User{
		"anna@example.com": {ID: "64a1f0c2e4b0a1b2c3d4e5f6", Email: "anna@example.com"},
	}}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "anna@example.com",
		Password: "secret123",
		Name:     "Anna",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAuthServiceLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthRepo{users: map[string]*models.User{
		"anna@example.com": {
			ID:           "64a1f0c2e4b0a1b2c3d4e5f6",
			Email:        "anna@example.com",
			Role:         models.RoleInstructor,
			PasswordHash: string(hash),
		},
	}}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "anna@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "64a1f0c2e4b0a1b2c3d4e5f6", claims.UserID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthRepo{users: map[string]*models.User{
		"anna@example.com": {Email: "anna@example.com", PasswordHash: string(hash)},
	}}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "anna@example.com", Password: "nope-nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, testAuthConfig())

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
