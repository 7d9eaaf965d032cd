package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/draw-master/draw-master-api/internal/service"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
	"github.com/draw-master/draw-master-api/pkg/response"
)

// ClassHandler wires HTTP endpoints to the class service.
type ClassHandler struct {
	service *service.ClassService
}

// NewClassHandler creates a new handler.
func NewClassHandler(svc *service.ClassService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// ListApproved godoc
// @Summary List approved classes
// @Description Public catalog, most enrolled first
// @Tags Classes
// @Produce json
// @Param limit query int false "Limit"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) ListApproved(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	classes, err := h.service.ListApproved(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// ListAll godoc
// @Summary List all classes
// @Description Every class in any review status
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/all [get]
func (h *ClassHandler) ListAll(c *gin.Context) {
	classes, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// ListMine godoc
// @Summary List own classes
// @Description Classes submitted by the calling instructor
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /my-classes [get]
func (h *ClassHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classes, err := h.service.ListByInstructor(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Create godoc
// @Summary Submit a class
// @Description New classes enter the catalog pending admin review
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	class, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class capacity and price
// @Description Only the owning instructor may update
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.UpdateClassRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /class/{id} [patch]
func (h *ClassHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	class, err := h.service.UpdateCapacity(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Approve godoc
// @Summary Approve class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /approve-class/{id} [patch]
func (h *ClassHandler) Approve(c *gin.Context) {
	if err := h.service.Approve(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "approved"}, nil)
}

// Deny godoc
// @Summary Deny class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /deny-class/{id} [patch]
func (h *ClassHandler) Deny(c *gin.Context) {
	if err := h.service.Deny(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "denied"}, nil)
}

type feedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// Feedback godoc
// @Summary Attach review feedback
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body feedbackRequest true "Feedback payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /feedback-class/{id} [patch]
func (h *ClassHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	if err := h.service.Feedback(c.Request.Context(), c.Param("id"), req.Feedback); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "feedback saved"}, nil)
}
