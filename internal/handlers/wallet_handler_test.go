package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"bridge-backend/internal/clients"
	"bridge-backend/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatus     int
		classification string
	}{
		{
			name:           "unsupported chain",
			err:            fmt.Errorf("%w: solana", config.ErrUnsupportedChain),
			wantStatus:     http.StatusBadRequest,
			classification: "configuration",
		},
		{
			name:           "owner mismatch",
			err:            fmt.Errorf("create wallet: %w", clients.ErrOwnerMismatch),
			wantStatus:     http.StatusInternalServerError,
			classification: "configuration",
		},
		{
			name:           "attestation timeout",
			err:            fmt.Errorf("attestation stage: %w", clients.ErrAttestationTimeout),
			wantStatus:     http.StatusGatewayTimeout,
			classification: "attestation_timeout",
		},
		{
			name:           "event missing from receipt",
			err:            fmt.Errorf("decode: %w", clients.ErrEventNotFound),
			wantStatus:     http.StatusBadGateway,
			classification: "semantic",
		},
		{
			name:           "anything else is transient",
			err:            errors.New("connection reset by peer"),
			wantStatus:     http.StatusBadGateway,
			classification: "transient",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := classifyError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.classification, resp.Classification)
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}
