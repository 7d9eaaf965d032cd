package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/draw-master/draw-master-api/internal/models"
	"github.com/draw-master/draw-master-api/internal/service"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
	"github.com/draw-master/draw-master-api/pkg/response"
)

// UserHandler wires HTTP endpoints to the user service.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Description List users with optional role filter and pagination
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{Search: c.Query("search")}
	if role := c.Query("role"); role != "" {
		userRole := models.UserRole(role)
		filter.Role = &userRole
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// ListInstructors godoc
// @Summary List instructors
// @Description Public directory of instructor accounts
// @Tags Users
// @Produce json
// @Param limit query int false "Limit"
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *UserHandler) ListInstructors(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	instructors, err := h.service.ListInstructors(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, nil)
}

type syncUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

// Sync godoc
// @Summary Sync user
// @Description Create the account if absent, used after external sign-in
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body syncUserRequest true "User payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Sync(c *gin.Context) {
	var req syncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}

	user, err := h.service.SyncUser(c.Request.Context(), &models.User{
		Email:    req.Email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

type setRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// SetRole godoc
// @Summary Set user role
// @Description Promote a user to instructor or admin
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body setRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /users/role/{id} [patch]
func (h *UserHandler) SetRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}

	user, err := h.service.SetRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
