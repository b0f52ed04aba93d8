package handlers

import (
	"errors"
	"net/http"

	"bridge-backend/internal/dto"
	"bridge-backend/internal/models"
	"bridge-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentHandler handles payment request API requests
type PaymentHandler struct {
	payments *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler instance
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreatePaymentHandler handles POST /api/payments
func (h *PaymentHandler) CreatePaymentHandler(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	payment, err := h.payments.CreatePayment(c.Request.Context(), req.Email, req.Amount, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// GetPaymentHandler handles GET /api/payments/:payid
func (h *PaymentHandler) GetPaymentHandler(c *gin.Context) {
	payment, err := h.payments.GetPayment(c.Request.Context(), c.Param("payid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListPaymentsHandler handles GET /api/payments?email=...
func (h *PaymentHandler) ListPaymentsHandler(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email query parameter is required"})
		return
	}

	payments, err := h.payments.ListPaymentsByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// UpdatePaymentStatusHandler handles PATCH /api/payments/:payid/status
func (h *PaymentHandler) UpdatePaymentStatusHandler(c *gin.Context) {
	var req dto.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	status := models.PaymentStatus(req.Status)
	switch status {
	case models.PaymentStatusPending, models.PaymentStatusProcessing,
		models.PaymentStatusCompleted, models.PaymentStatusFailed:
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid status: " + req.Status})
		return
	}

	if err := h.payments.UpdateStatus(c.Request.Context(), c.Param("payid"), status, req.TxHash); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payid": c.Param("payid"), "status": status})
}
