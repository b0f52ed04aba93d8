package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"bridge-backend/internal/clients"
	"bridge-backend/internal/config"
	"bridge-backend/internal/metrics"
	"bridge-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AttestationFetcher is the attestation polling dependency of the bridge.
type AttestationFetcher interface {
	FetchAttestation(ctx context.Context, sourceDomain uint32, burnTxHash string) (*clients.CCTPMessage, error)
}

// TransferRequest describes one cross-chain USDC transfer.
type TransferRequest struct {
	SourceChain   string
	DestChain     string
	WalletAddress string
	Amount        *big.Int // smallest USDC unit
}

// MintResult is the destination-side half of a completed transfer.
type MintResult struct {
	Chain           string `json:"chain"`
	TransactionHash string `json:"transactionHash"`
	GasUsed         uint64 `json:"gasUsed"`
}

// TransferResult is the stable answer to "did this complete?".
type TransferResult struct {
	Chain           string      `json:"chain"`
	TransactionHash string      `json:"transactionHash"`
	WalletAddress   string      `json:"walletAddress"`
	AmountBurned    uint64      `json:"amountBurned"`
	GasUsed         uint64      `json:"gasUsed"`
	Mint            *MintResult `json:"arbitrumMint,omitempty"`
	ElapsedMs       int64       `json:"elapsedMs"`
}

// TransferAttempt is the in-memory state of one transfer. Not persisted;
// outcome persistence belongs to the caller.
type TransferAttempt struct {
	ID            string
	SourceChain   string
	WalletAddress string
	Amount        *big.Int
	BurnTxHash    string
	Attestation   string
	Message       string
	MintTxHash    string
	Status        TransferStatus
	StartedAt     time.Time
}

// BridgeService drives the burn -> attest -> mint sequence for a single
// transfer request. Requests are independent; there is no shared mutable
// orchestration state across concurrent transfers.
type BridgeService struct {
	cfg         *config.Config
	dial        clients.ChainDialer
	attestation AttestationFetcher
	observer    ProgressObserver // may be nil

	// Chain writes: few attempts, long delay.
	stageRetry utils.RetryOptions
	// Whole-sequence blanket for faults spanning stage boundaries. Re-running
	// after a confirmed burn burns again from the wallet balance.
	outerRetry utils.RetryOptions
}

// NewBridgeService creates a BridgeService.
func NewBridgeService(cfg *config.Config, dial clients.ChainDialer, attestation AttestationFetcher, observer ProgressObserver) *BridgeService {
	return &BridgeService{
		cfg:         cfg,
		dial:        dial,
		attestation: attestation,
		observer:    observer,
		stageRetry:  utils.RetryOptions{MaxAttempts: 3, BaseDelay: 2000 * time.Millisecond},
		outerRetry:  utils.RetryOptions{MaxAttempts: 3, BaseDelay: 2000 * time.Millisecond},
	}
}

// Bridge runs the full transfer sequence to completion or exhausted failure.
func (s *BridgeService) Bridge(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	sourceChain, err := s.cfg.GetChain(req.SourceChain)
	if err != nil {
		return nil, err
	}
	if req.DestChain == "" {
		return nil, fmt.Errorf("destination chain is required")
	}
	destChain, err := s.cfg.GetChain(req.DestChain)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(req.WalletAddress) {
		return nil, fmt.Errorf("invalid wallet address: %s", req.WalletAddress)
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	attempt := &TransferAttempt{
		ID:            uuid.New().String(),
		SourceChain:   req.SourceChain,
		WalletAddress: req.WalletAddress,
		Amount:        req.Amount,
		StartedAt:     time.Now(),
	}

	result, err := utils.RunWithRetries(ctx, "bridge-transfer", s.outerRetry, func() (*TransferResult, error) {
		return s.runSequence(ctx, attempt, sourceChain, destChain)
	})
	if err != nil {
		attempt.Status = TransferStatusFailed
		metrics.TransferStages.WithLabelValues(string(StageComplete), "failed").Inc()
		return nil, err
	}

	metrics.TransferDuration.Observe(time.Since(attempt.StartedAt).Seconds())
	return result, nil
}

func (s *BridgeService) runSequence(ctx context.Context, attempt *TransferAttempt, sourceChain, destChain config.ChainConfig) (*TransferResult, error) {
	// Stage 1: burn on the source chain.
	s.notify(attempt, StageBurn, sourceChain.Key, "", "submitting burn")
	attempt.Status = TransferStatusBurnSubmitted

	burnReceipt, err := utils.RunWithRetries(ctx, "burn-"+sourceChain.Key, s.stageRetry, func() (*receiptInfo, error) {
		conn, err := s.dial(ctx, sourceChain, s.cfg.Blockchain.OperatorPrivateKey)
		if err != nil {
			return nil, err
		}
		defer conn.Close()

		receipt, err := conn.BurnUSDC(ctx, common.HexToAddress(attempt.WalletAddress), attempt.Amount)
		if err != nil {
			return nil, err
		}
		return &receiptInfo{TxHash: receipt.TxHash.Hex(), GasUsed: receipt.GasUsed}, nil
	})
	if err != nil {
		metrics.TransferStages.WithLabelValues(string(StageBurn), "failed").Inc()
		return nil, fmt.Errorf("burn stage: %w", err)
	}
	attempt.BurnTxHash = burnReceipt.TxHash
	attempt.Status = TransferStatusBurnConfirmed
	metrics.TransferStages.WithLabelValues(string(StageBurn), "confirmed").Inc()

	logrus.WithFields(logrus.Fields{
		"transfer_id": attempt.ID,
		"chain":       sourceChain.Key,
		"tx_hash":     attempt.BurnTxHash,
		"amount":      attempt.Amount.String(),
	}).Info("burn confirmed")

	// Stage 2: wait for Circle's attestation of the burn.
	s.notify(attempt, StageAttestation, sourceChain.Key, attempt.BurnTxHash, "polling attestation service")
	attempt.Status = TransferStatusAttestationPending

	message, err := s.attestation.FetchAttestation(ctx, sourceChain.Domain, attempt.BurnTxHash)
	if err != nil {
		metrics.TransferStages.WithLabelValues(string(StageAttestation), "failed").Inc()
		return nil, fmt.Errorf("attestation stage: %w", err)
	}
	attempt.Attestation = message.Attestation
	attempt.Message = message.Message
	attempt.Status = TransferStatusAttestationComplete
	metrics.TransferStages.WithLabelValues(string(StageAttestation), "complete").Inc()

	// Stage 3: mint on the destination chain.
	s.notify(attempt, StageMint, destChain.Key, "", "submitting receiveMessage")
	attempt.Status = TransferStatusMintSubmitted

	messageBytes := common.FromHex(attempt.Message)
	attestationBytes := common.FromHex(attempt.Attestation)

	mintReceipt, err := utils.RunWithRetries(ctx, "mint-"+destChain.Key, s.stageRetry, func() (*receiptInfo, error) {
		conn, err := s.dial(ctx, destChain, s.cfg.Blockchain.OperatorPrivateKey)
		if err != nil {
			return nil, err
		}
		defer conn.Close()

		receipt, err := conn.ReceiveMessage(ctx, messageBytes, attestationBytes)
		if err != nil {
			return nil, err
		}
		return &receiptInfo{TxHash: receipt.TxHash.Hex(), GasUsed: receipt.GasUsed}, nil
	})
	if err != nil {
		metrics.TransferStages.WithLabelValues(string(StageMint), "failed").Inc()
		return nil, fmt.Errorf("mint stage: %w", err)
	}
	attempt.MintTxHash = mintReceipt.TxHash
	attempt.Status = TransferStatusMintConfirmed
	metrics.TransferStages.WithLabelValues(string(StageMint), "confirmed").Inc()

	result := &TransferResult{
		Chain:           sourceChain.Key,
		TransactionHash: attempt.BurnTxHash,
		WalletAddress:   attempt.WalletAddress,
		AmountBurned:    attempt.Amount.Uint64(),
		GasUsed:         burnReceipt.GasUsed,
		Mint: &MintResult{
			Chain:           destChain.Key,
			TransactionHash: attempt.MintTxHash,
			GasUsed:         mintReceipt.GasUsed,
		},
		ElapsedMs: time.Since(attempt.StartedAt).Milliseconds(),
	}

	s.notify(attempt, StageComplete, destChain.Key, attempt.MintTxHash, "transfer complete")
	metrics.TransferStages.WithLabelValues(string(StageComplete), "confirmed").Inc()

	logrus.WithFields(logrus.Fields{
		"transfer_id": attempt.ID,
		"burn_tx":     attempt.BurnTxHash,
		"mint_tx":     attempt.MintTxHash,
		"elapsed_ms":  result.ElapsedMs,
	}).Info("bridge transfer complete")
	return result, nil
}

type receiptInfo struct {
	TxHash  string
	GasUsed uint64
}

// notify dispatches a stage transition to the observer without ever blocking
// the state machine.
func (s *BridgeService) notify(attempt *TransferAttempt, stage TransferStage, chain, txHash, detail string) {
	if s.observer == nil {
		return
	}
	event := ProgressEvent{
		TransferID: attempt.ID,
		Stage:      stage,
		Chain:      chain,
		TxHash:     txHash,
		Detail:     detail,
		Timestamp:  time.Now(),
	}
	go s.observer.Notify(event)
}
