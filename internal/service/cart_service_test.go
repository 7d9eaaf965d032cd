package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draw-master/draw-master-api/internal/models"
)

type mockCartRepo struct {
	mu          sync.Mutex
	items       map[string]models.CartItem
	deleteCalls int
	deleteErr   error
}

func cartKey(classID, email string) string {
	return classID + "|" + email
}

func (m *mockCartRepo) Insert(_ context.Context, item *models.CartItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]models.CartItem)
	}
	key := cartKey(item.ClassID, item.Email)
	if _, exists := m.items[key]; exists {
		return false, nil
	}
	if item.ID == "" {
		item.ID = "64e5b4c6d7e8f9a0b1c2d3e4"
	}
	m.items[key] = *item
	return true, nil
}

func (m *mockCartRepo) ListByEmail(_ context.Context, email string) ([]models.CartItemDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CartItemDetail
	for _, item := range m.items {
		if item.Email == email {
			out = append(out, models.CartItemDetail{CartItem: item})
		}
	}
	return out, nil
}

func (m *mockCartRepo) Delete(_ context.Context, classID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.items, cartKey(classID, email))
	return nil
}

func TestCartServiceAddReportsDuplicate(t *testing.T) {
	repo := &mockCartRepo{}
	svc := NewCartService(repo, nil)

	first, err := svc.Add(context.Background(), "64c3f2e4a5b6c7d8e9f0a1b2", "anna@example.com")
	require.NoError(t, err)
	assert.False(t, first.AlreadySelected)
	require.NotNil(t, first.Item)

	second, err := svc.Add(context.Background(), "64c3f2e4a5b6c7d8e9f0a1b2", "anna@example.com")
	require.NoError(t, err)
	assert.True(t, second.AlreadySelected)
	assert.Nil(t, second.Item)

	items, err := svc.List(context.Background(), "anna@example.com")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCartServiceSameClassDifferentStudents(t *testing.T) {
	repo := &mockCartRepo{}
	svc := NewCartService(repo, nil)

	_, err := svc.Add(context.Background(), "64c3f2e4a5b6c7d8e9f0a1b2", "anna@example.com")
	require.NoError(t, err)
	res, err := svc.Add(context.Background(), "64c3f2e4a5b6c7d8e9f0a1b2", "boris@example.com")
	require.NoError(t, err)
	assert.False(t, res.AlreadySelected)
}

func TestCartServiceRemoveIsIdempotent(t *testing.T) {
	repo := &mockCartRepo{}
	svc := NewCartService(repo, nil)

	_, err := svc.Add(context.Background(), "64c3f2e4a5b6c7d8e9f0a1b2", "anna@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), "64c3f2e4a5b6c7d8e9f0a1b2", "anna@example.com"))
	require.NoError(t, svc.Remove(context.Background(), "64c3f2e4a5b6c7d8e9f0a1b2", "anna@example.com"))
	assert.Equal(t, 2, repo.deleteCalls)
}

func TestCartServiceAddValidatesInput(t *testing.T) {
	svc := NewCartService(&mockCartRepo{}, nil)

	_, err := svc.Add(context.Background(), "", "anna@example.com")
	require.Error(t, err)
}
