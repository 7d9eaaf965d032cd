package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/draw-master/draw-master-api/internal/service"
	appErrors "github.com/draw-master/draw-master-api/pkg/errors"
	"github.com/draw-master/draw-master-api/pkg/response"
)

// PaymentHandler wires HTTP endpoints to the checkout and ledger
// services.
type PaymentHandler struct {
	checkout *service.CheckoutService
	ledger   *service.LedgerService
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(checkout *service.CheckoutService, ledger *service.LedgerService) *PaymentHandler {
	return &PaymentHandler{checkout: checkout, ledger: ledger}
}

// CreateIntent godoc
// @Summary Create payment intent
// @Description Request a charge authorization for the given price
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.IntentRequest true "Intent payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /create-payment-intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req service.IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid intent payload"))
		return
	}

	res, err := h.checkout.CreateIntent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

type checkoutRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

// Checkout godoc
// @Summary Checkout a class
// @Description Charge, reserve a seat and record the enrollment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body checkoutRequestBody true "Checkout payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /payments/{id} [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var body checkoutRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid checkout payload"))
		return
	}

	req := service.CheckoutRequest{ClassID: c.Param("id"), Email: body.Email}
	payment, err := h.checkout.Checkout(c.Request.Context(), req, claims)
	if err != nil {
		// A flagged payment still carries a reference the client should
		// see alongside the conflict.
		appErr := appErrors.FromError(err)
		if payment != nil && appErr.Code == appErrors.ErrCapacityExhausted.Code {
			c.Header("Cache-Control", "no-store")
			c.JSON(appErr.Status, response.Envelope{Data: payment, Error: appErr})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// ListMine godoc
// @Summary List own payments
// @Description The caller's ledger entries, newest first
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	payments, err := h.ledger.ListByPayer(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// ListEnrolled godoc
// @Summary List enrolled classes
// @Description Classes derived from the caller's completed payments
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrolled-classes [get]
func (h *PaymentHandler) ListEnrolled(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	enrolled, err := h.checkout.ListEnrollments(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrolled, nil)
}

// Receipt godoc
// @Summary Download payment receipt
// @Description PDF receipt, visible to the payer or an admin
// @Tags Payments
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	pdf, err := h.ledger.Receipt(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Export godoc
// @Summary Export payment ledger
// @Description Full ledger as CSV
// @Tags Payments
// @Produce text/csv
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /payments/export [get]
func (h *PaymentHandler) Export(c *gin.Context) {
	out, err := h.ledger.ExportCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("payments-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", out)
}

// ListReconciliation godoc
// @Summary List flagged payments
// @Description Ledger entries awaiting manual follow-up
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /payments/reconciliation [get]
func (h *PaymentHandler) ListReconciliation(c *gin.Context) {
	payments, err := h.ledger.ListFlagged(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

type resolveRequest struct {
	Note string `json:"note" binding:"required"`
}

// Resolve godoc
// @Summary Resolve a flagged payment
// @Description Close a reconciliation case with a note
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body resolveRequest true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /payments/reconciliation/{id} [patch]
func (h *PaymentHandler) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}

	payment, err := h.ledger.Resolve(c.Request.Context(), c.Param("id"), req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}
