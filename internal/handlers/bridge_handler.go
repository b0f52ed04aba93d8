package handlers

import (
	"net/http"

	"bridge-backend/internal/dto"
	"bridge-backend/internal/models"
	"bridge-backend/internal/services"
	"bridge-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BridgeHandler handles transfer API requests
type BridgeHandler struct {
	bridge   *services.BridgeService
	payments *services.PaymentService
}

// NewBridgeHandler creates a new BridgeHandler instance
func NewBridgeHandler(bridge *services.BridgeService, payments *services.PaymentService) *BridgeHandler {
	return &BridgeHandler{bridge: bridge, payments: payments}
}

// TransferHandler handles POST /api/bridge/transfer
// Runs the burn -> attest -> mint sequence to completion and returns both
// transaction hashes. When a payid is supplied the durable payment record is
// updated alongside.
func (h *BridgeHandler) TransferHandler(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	amount, err := utils.ParseUSDCAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:          err.Error(),
			Classification: "configuration",
		})
		return
	}

	ctx := c.Request.Context()
	if req.PayID != "" {
		if err := h.payments.UpdateStatus(ctx, req.PayID, models.PaymentStatusProcessing, ""); err != nil {
			logrus.WithField("payid", req.PayID).WithError(err).Warn("failed to mark payment processing")
		}
	}

	result, err := h.bridge.Bridge(ctx, services.TransferRequest{
		SourceChain:   req.SourceChain,
		DestChain:     req.DestChain,
		WalletAddress: req.WalletAddress,
		Amount:        amount,
	})
	if err != nil {
		if req.PayID != "" {
			if updateErr := h.payments.UpdateStatus(ctx, req.PayID, models.PaymentStatusFailed, ""); updateErr != nil {
				logrus.WithField("payid", req.PayID).WithError(updateErr).Warn("failed to mark payment failed")
			}
		}
		status, resp := classifyError(err)
		c.JSON(status, resp)
		return
	}

	if req.PayID != "" {
		if err := h.payments.UpdateStatus(ctx, req.PayID, models.PaymentStatusCompleted, result.TransactionHash); err != nil {
			logrus.WithField("payid", req.PayID).WithError(err).Warn("failed to mark payment completed")
		}
	}

	c.JSON(http.StatusOK, result)
}
