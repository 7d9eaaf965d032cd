package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draw-master/draw-master-api/internal/middleware"
	"github.com/draw-master/draw-master-api/internal/models"
	"github.com/draw-master/draw-master-api/internal/service"
)

type cartRepoStub struct {
	items map[string]models.CartItem
}

func (s *cartRepoStub) Insert(_ context.Context, item *models.CartItem) (bool, error) {
	if s.items == nil {
		s.items = make(map[string]models.CartItem)
	}
	key := item.ClassID + "|" + item.Email
	if _, exists := s.items[key]; exists {
		return false, nil
	}
	item.ID = "64e5b4c6d7e8f9a0b1c2d3e4"
	s.items[key] = *item
	return true, nil
}

func (s *cartRepoStub) ListByEmail(_ context.Context, email string) ([]models.CartItemDetail, error) {
	var out []models.CartItemDetail
	for _, item := range s.items {
		if item.Email == email {
			out = append(out, models.CartItemDetail{CartItem: item})
		}
	}
	return out, nil
}

func (s *cartRepoStub) Delete(_ context.Context, classID, email string) error {
	delete(s.items, classID+"|"+email)
	return nil
}

func studentContext(w *httptest.ResponseRecorder) (*gin.Context, *models.JWTClaims) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	claims := &models.JWTClaims{UserID: "64a1f0c2e4b0a1b2c3d4e5f6", Email: "anna@example.com", Role: models.RoleStudent}
	c.Set(middleware.ContextUserKey, claims)
	return c, claims
}

func TestCartHandlerAddReportsDuplicate(t *testing.T) {
	repo := &cartRepoStub{}
	h := NewCartHandler(service.NewCartService(repo, nil))
	body := []byte(`{"class_id":"64c3f2e4a5b6c7d8e9f0a1b2"}`)

	for i, expected := range []string{`"already_selected":false`, `"already_selected":true`} {
		w := httptest.NewRecorder()
		c, _ := studentContext(w)
		req, _ := http.NewRequest(http.MethodPost, "/cart-classes", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		h.Add(c)
		require.Equal(t, http.StatusOK, w.Code, "attempt %d", i)
		assert.Contains(t, w.Body.String(), expected)
	}
	assert.Len(t, repo.items, 1)
}

func TestCartHandlerAddRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewCartHandler(service.NewCartService(&cartRepoStub{}, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/cart-classes", bytes.NewReader([]byte(`{"class_id":"64c3f2e4a5b6c7d8e9f0a1b2"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	h.Add(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthorized access")
}

func TestCartHandlerRemoveRequiresID(t *testing.T) {
	h := NewCartHandler(service.NewCartService(&cartRepoStub{}, nil))

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/delete-classes", nil)
	c.Request = req
	h.Remove(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartHandlerRemoveMismatchedEmail(t *testing.T) {
	repo := &cartRepoStub{}
	svc := service.NewCartService(repo, nil)
	_, err := svc.Add(context.Background(), "64c3f2e4a5b6c7d8e9f0a1b2", "anna@example.com")
	require.NoError(t, err)
	h := NewCartHandler(svc)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/delete-classes?id=64c3f2e4a5b6c7d8e9f0a1b2&email=boris%40example.com", nil)
	c.Request = req
	h.Remove(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "forbidden access")
	assert.Len(t, repo.items, 1, "another payer's cart entry stays put")
}

func TestCartHandlerRemoveWithMatchingEmail(t *testing.T) {
	repo := &cartRepoStub{}
	svc := service.NewCartService(repo, nil)
	_, err := svc.Add(context.Background(), "64c3f2e4a5b6c7d8e9f0a1b2", "anna@example.com")
	require.NoError(t, err)
	h := NewCartHandler(svc)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/delete-classes?id=64c3f2e4a5b6c7d8e9f0a1b2&email=anna%40example.com", nil)
	c.Request = req
	h.Remove(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.items)
}

func TestCartHandlerRemove(t *testing.T) {
	repo := &cartRepoStub{}
	svc := service.NewCartService(repo, nil)
	_, err := svc.Add(context.Background(), "64c3f2e4a5b6c7d8e9f0a1b2", "anna@example.com")
	require.NoError(t, err)
	h := NewCartHandler(svc)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/delete-classes?id=64c3f2e4a5b6c7d8e9f0a1b2", nil)
	c.Request = req
	h.Remove(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.items)
}
