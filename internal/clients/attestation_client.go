package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bridge-backend/internal/config"
	"bridge-backend/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Attestation statuses reported by the Iris API.
const (
	AttestationStatusPending  = "pending_confirmations"
	AttestationStatusComplete = "complete"
)

// ErrAttestationTimeout marks a poll budget exhausted without a completed
// attestation. Distinct from transport failures, which are swallowed while
// attempts remain.
var ErrAttestationTimeout = errors.New("attestation not ready after polling")

// AttestationResponse is the Iris v2 messages payload.
type AttestationResponse struct {
	Messages []CCTPMessage `json:"messages"`
}

// CCTPMessage is a single CCTP message with its attestation state.
type CCTPMessage struct {
	Attestation       string `json:"attestation"`
	Message           string `json:"message"`
	Status            string `json:"status"`
	EventNonce        string `json:"eventNonce"`
	SourceDomain      uint32 `json:"sourceDomain"`
	DestinationDomain uint32 `json:"destinationDomain"`
}

// AttestationClient polls Circle's attestation service for burn transactions.
type AttestationClient struct {
	BaseURL string
	Client  *http.Client

	// Attestations are never ready immediately, so the first poll is delayed.
	InitialWait  time.Duration
	PollInterval time.Duration
	MaxAttempts  int
}

// NewAttestationClient creates an Iris client from configuration.
func NewAttestationClient(cfg config.CircleConfig) *AttestationClient {
	return &AttestationClient{
		BaseURL:      cfg.AttestationBaseURL,
		Client:       &http.Client{Timeout: 30 * time.Second},
		InitialWait:  time.Duration(cfg.InitialWait) * time.Second,
		PollInterval: time.Duration(cfg.FetchRetryInterval) * time.Second,
		MaxAttempts:  cfg.FetchRetries,
	}
}

// FetchAttestation polls until a completed attestation for burnTxHash is
// returned or the attempt budget is exhausted. "Not yet ready" (pending
// status, empty message list) is not an error and drives continued polling;
// network errors consume attempts but do not abort early.
func (c *AttestationClient) FetchAttestation(ctx context.Context, sourceDomain uint32, burnTxHash string) (*CCTPMessage, error) {
	if err := sleepCtx(ctx, c.InitialWait); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		message, err := c.fetchOnce(ctx, sourceDomain, burnTxHash)
		if err != nil {
			lastErr = err
			metrics.AttestationPolls.WithLabelValues("error").Inc()
			logrus.WithFields(logrus.Fields{
				"tx_hash": burnTxHash,
				"domain":  sourceDomain,
				"attempt": attempt,
			}).WithError(err).Warn("attestation poll failed")
		} else if message != nil {
			metrics.AttestationPolls.WithLabelValues("complete").Inc()
			return message, nil
		} else {
			metrics.AttestationPolls.WithLabelValues("pending").Inc()
			logrus.WithFields(logrus.Fields{
				"tx_hash": burnTxHash,
				"attempt": attempt,
				"max":     c.MaxAttempts,
			}).Info("attestation not ready yet")
		}

		if attempt < c.MaxAttempts {
			if err := sleepCtx(ctx, c.PollInterval); err != nil {
				return nil, err
			}
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w (tx %s, last error: %v)", ErrAttestationTimeout, burnTxHash, lastErr)
	}
	return nil, fmt.Errorf("%w (tx %s)", ErrAttestationTimeout, burnTxHash)
}

// fetchOnce performs one poll. A nil message with nil error means "not ready".
func (c *AttestationClient) fetchOnce(ctx context.Context, sourceDomain uint32, burnTxHash string) (*CCTPMessage, error) {
	url := fmt.Sprintf("%s/v2/messages/%d?transactionHash=%s", c.BaseURL, sourceDomain, burnTxHash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// 404 means the message is not indexed yet, not a failure.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attestation API failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result AttestationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	for i := range result.Messages {
		message := &result.Messages[i]
		if message.Status == AttestationStatusComplete && message.Attestation != "" {
			return message, nil
		}
	}
	return nil, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
