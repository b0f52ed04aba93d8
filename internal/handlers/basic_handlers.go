package handlers

import (
	"context"
	"net/http"
	"time"

	"bridge-backend/internal/clients"
	"bridge-backend/internal/config"
	"bridge-backend/internal/db"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports database and per-chain RPC reachability.
type HealthHandler struct {
	cfg  *config.Config
	dial clients.ChainDialer
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(cfg *config.Config, dial clients.ChainDialer) *HealthHandler {
	return &HealthHandler{cfg: cfg, dial: dial}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	degraded := false
	checks := gin.H{"database": "ok"}

	if err := db.Ping(); err != nil {
		checks["database"] = err.Error()
		degraded = true
	}

	for key, chain := range h.cfg.Blockchain.Chains {
		checks["chain_"+key] = "ok"
		if err := h.probeChain(c.Request.Context(), chain); err != nil {
			checks["chain_"+key] = err.Error()
			degraded = true
		}
	}

	status := http.StatusOK
	state := "ok"
	if degraded {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (h *HealthHandler) probeChain(ctx context.Context, chain config.ChainConfig) error {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn, err := h.dial(probeCtx, chain, h.cfg.Blockchain.OperatorPrivateKey)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.BlockNumber(probeCtx)
	return err
}
