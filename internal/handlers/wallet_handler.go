package handlers

import (
	"errors"
	"net/http"

	"bridge-backend/internal/clients"
	"bridge-backend/internal/config"
	"bridge-backend/internal/dto"
	"bridge-backend/internal/events"
	"bridge-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles smart wallet provisioning API requests
type WalletHandler struct {
	provisioner *services.WalletProvisionerService
	publisher   *events.NATSProgressPublisher // nil when NATS is disabled
}

// NewWalletHandler creates a new WalletHandler instance
func NewWalletHandler(provisioner *services.WalletProvisionerService, publisher *events.NATSProgressPublisher) *WalletHandler {
	return &WalletHandler{provisioner: provisioner, publisher: publisher}
}

// CreateWalletHandler handles POST /api/wallet/create
// Creates a burn-only wallet on a single chain.
func (h *WalletHandler) CreateWalletHandler(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	wallet, err := h.provisioner.CreateWalletOnChain(c.Request.Context(), req.ChainKey, req.MintRecipient)
	if err != nil {
		status, resp := classifyError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// CreateAllWalletsHandler handles POST /api/wallet/create-all
// Provisions the transfer wallet plus one burn wallet per chain. Per-chain
// burn failures are reported in the body, not as an HTTP error.
func (h *WalletHandler) CreateAllWalletsHandler(c *gin.Context) {
	var req dto.CreateAllWalletsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.provisioner.CreateWalletForAllChains(c.Request.Context(), req.Email, req.Destination)
	if err != nil {
		status, resp := classifyError(err)
		c.JSON(status, resp)
		return
	}

	if h.publisher != nil {
		wallets := append([]services.CreatedWallet{*result.TransferWallet}, result.BurnWallets...)
		h.publisher.PublishWalletCreated(events.WalletCreatedEvent{
			Email:   req.Email,
			Wallets: wallets,
		})
	}

	c.JSON(http.StatusOK, result)
}

// classifyError maps a failure onto the error taxonomy and an HTTP status.
func classifyError(err error) (int, dto.ErrorResponse) {
	switch {
	case errors.Is(err, config.ErrUnsupportedChain):
		return http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Classification: "configuration"}
	case errors.Is(err, clients.ErrOwnerMismatch):
		return http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error(), Classification: "configuration"}
	case errors.Is(err, clients.ErrAttestationTimeout):
		return http.StatusGatewayTimeout, dto.ErrorResponse{Error: err.Error(), Classification: "attestation_timeout"}
	case errors.Is(err, clients.ErrEventNotFound):
		return http.StatusBadGateway, dto.ErrorResponse{Error: err.Error(), Classification: "semantic"}
	default:
		return http.StatusBadGateway, dto.ErrorResponse{Error: err.Error(), Classification: "transient"}
	}
}
