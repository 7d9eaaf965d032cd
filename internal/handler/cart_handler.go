package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draw-master/draw-master-api/internal/service"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
	"github.com/draw-master/draw-master-api/pkg/response"
)

// CartHandler wires HTTP endpoints to the cart service.
type CartHandler struct {
	service *service.CartService
}

// NewCartHandler creates a new handler.
func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{service: svc}
}

type addToCartRequest struct {
	ClassID string `json:"class_id" binding:"required"`
}

// Add godoc
// @Summary Add class to cart
// @Description Selecting the same class twice is acknowledged, not rejected
// @Tags Cart
// @Accept json
// @Produce json
// @Param payload body addToCartRequest true "Cart payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /cart-classes [post]
func (h *CartHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cart payload"))
		return
	}

	result, err := h.service.Add(c.Request.Context(), req.ClassID, claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List selected classes
// @Description The caller's cart joined with catalog details
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /selected-classes [get]
func (h *CartHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.List(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Remove godoc
// @Summary Remove class from cart
// @Description Removing an absent selection succeeds quietly
// @Tags Cart
// @Produce json
// @Param id query string true "Class ID"
// @Param email query string false "Owner email, must match the caller"
// @Success 204 "No Content"
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /delete-classes [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classID := c.Query("id")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id query parameter is required"))
		return
	}
	// The email query names the cart owner; only the caller's own cart
	// is reachable.
	if email := c.Query("email"); email != "" && email != claims.Email {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	if err := h.service.Remove(c.Request.Context(), classID, claims.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
