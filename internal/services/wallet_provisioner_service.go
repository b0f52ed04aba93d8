package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bridge-backend/internal/clients"
	"bridge-backend/internal/config"
	"bridge-backend/internal/metrics"
	"bridge-backend/internal/models"
	"bridge-backend/internal/repository"
	"bridge-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreationOutcome tags how a wallet address was obtained.
type CreationOutcome string

const (
	OutcomeSubmitted CreationOutcome = "submitted-confirmed"
	OutcomeRecovered CreationOutcome = "already-known-recovered"
)

// CreatedWallet is the result of one wallet provisioning call.
type CreatedWallet struct {
	ChainKey    string            `json:"chain"`
	Address     string            `json:"address"`
	Role        models.WalletRole `json:"role"`
	Destination string            `json:"destination"`
	TxHash      string            `json:"tx_hash,omitempty"`
	Outcome     CreationOutcome   `json:"outcome"`
}

// BatchResult is the union of whatever succeeded during batch provisioning.
// Per-chain burn failures are surfaced here, not raised.
type BatchResult struct {
	TransferWallet *CreatedWallet    `json:"transfer_wallet"`
	BurnWallets    []CreatedWallet   `json:"burn_wallets"`
	Failures       map[string]string `json:"failures,omitempty"`
}

// WalletProvisionerService creates per-chain smart wallets through the
// owner-gated factory contracts. Existence is derived from factory events;
// database rows are only a cache.
type WalletProvisionerService struct {
	cfg         *config.Config
	dial        clients.ChainDialer
	accountRepo repository.AccountRepository

	burnRetry     utils.RetryOptions
	transferRetry utils.RetryOptions

	// Event lookback windows, in blocks. Bounded, so the dedupe check is
	// best-effort rather than a lock.
	dedupeLookback   uint64
	recoveryLookback uint64
	recoveryWait     time.Duration
}

// NewWalletProvisionerService creates a WalletProvisionerService.
func NewWalletProvisionerService(cfg *config.Config, dial clients.ChainDialer, accountRepo repository.AccountRepository) *WalletProvisionerService {
	return &WalletProvisionerService{
		cfg:         cfg,
		dial:        dial,
		accountRepo: accountRepo,
		// Transient RPC failures can hit any sub-step, so the whole attempt
		// (ownership check + submit + wait + decode) is redone with a fresh
		// connection each time.
		burnRetry:     utils.RetryOptions{MaxAttempts: 6, BaseDelay: 1500 * time.Millisecond},
		transferRetry: utils.RetryOptions{MaxAttempts: 3, BaseDelay: 3000 * time.Millisecond},

		dedupeLookback:   50,
		recoveryLookback: 20,
		recoveryWait:     10 * time.Second,
	}
}

// CreateWalletOnChain creates a burn-only wallet on chainKey whose burns mint
// to mintRecipient on the transfer chain. Unsupported chain keys fail before
// any RPC call.
func (s *WalletProvisionerService) CreateWalletOnChain(ctx context.Context, chainKey, mintRecipient string) (*CreatedWallet, error) {
	chain, err := s.cfg.GetChain(chainKey)
	if err != nil {
		return nil, err
	}
	if chain.Role != config.ChainRoleBurn {
		return nil, fmt.Errorf("chain %s has no burn wallet factory", chainKey)
	}

	recipient, err := utils.AddressToBytes32(mintRecipient)
	if err != nil {
		return nil, err
	}

	destinationDomain := s.cfg.Blockchain.DestinationDomain

	wallet, err := utils.RunWithRetries(ctx, "create-burn-wallet-"+chainKey, s.burnRetry, func() (*CreatedWallet, error) {
		conn, err := s.dial(ctx, chain, s.cfg.Blockchain.OperatorPrivateKey)
		if err != nil {
			return nil, err
		}
		defer conn.Close()

		if err := conn.VerifyOwnership(ctx); err != nil {
			if errors.Is(err, clients.ErrOwnerMismatch) {
				// configuration error, not a transient fault
				return nil, utils.Permanent(err)
			}
			return nil, err
		}

		receipt, err := conn.CreateWallet(ctx, destinationDomain, recipient)
		if err != nil {
			return nil, err
		}

		event, err := conn.DecodeWalletCreated(receipt)
		if err != nil {
			// missing event after a successful receipt is most likely a
			// transient inconsistency; the whole attempt is redone
			return nil, err
		}

		return &CreatedWallet{
			ChainKey:    chainKey,
			Address:     event.Wallet.Hex(),
			Role:        models.WalletRoleBurn,
			Destination: mintRecipient,
			TxHash:      receipt.TxHash.Hex(),
			Outcome:     OutcomeSubmitted,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.WalletsCreated.WithLabelValues(chainKey, string(models.WalletRoleBurn)).Inc()
	logrus.WithFields(logrus.Fields{
		"chain":   chainKey,
		"wallet":  wallet.Address,
		"tx_hash": wallet.TxHash,
	}).Info("burn wallet created")
	return wallet, nil
}

// CreateTransferWallet creates the transfer-only wallet for destination on
// the transfer chain. The factory event log makes the call idempotent: a
// wallet already created for the same destination within the lookback window
// is returned without submitting anything.
func (s *WalletProvisionerService) CreateTransferWallet(ctx context.Context, destination string) (*CreatedWallet, error) {
	chain, err := s.cfg.TransferChain()
	if err != nil {
		return nil, err
	}

	dest, err := utils.AddressToBytes32(destination)
	if err != nil {
		return nil, err
	}

	// Idempotency pre-check against recent factory events.
	if existing, err := s.findRecentWallet(ctx, chain, &dest, s.dedupeLookback); err == nil && existing != nil {
		logrus.WithFields(logrus.Fields{
			"chain":  chain.Key,
			"wallet": existing.Address,
		}).Info("transfer wallet already provisioned, skipping creation")
		return existing, nil
	}

	wallet, err := utils.RunWithRetries(ctx, "create-transfer-wallet", s.transferRetry, func() (*CreatedWallet, error) {
		conn, err := s.dial(ctx, chain, s.cfg.Blockchain.OperatorPrivateKey)
		if err != nil {
			return nil, err
		}
		defer conn.Close()

		if err := conn.VerifyOwnership(ctx); err != nil {
			if errors.Is(err, clients.ErrOwnerMismatch) {
				return nil, utils.Permanent(err)
			}
			return nil, err
		}

		receipt, err := conn.CreateWallet(ctx, dest)
		if err != nil {
			if clients.IsDuplicateSubmission(err) {
				// The network already has this transaction. Wait for it to
				// land and recover the address from recent events instead of
				// resubmitting.
				if waitErr := sleepCtx(ctx, s.recoveryWait); waitErr != nil {
					return nil, waitErr
				}
				recovered, lookupErr := s.findRecentWalletOn(ctx, conn, &dest, s.recoveryLookback)
				if lookupErr != nil {
					return nil, fmt.Errorf("duplicate submission recovery: %w", lookupErr)
				}
				if recovered == nil {
					return nil, fmt.Errorf("duplicate submission but wallet not found within %d blocks", s.recoveryLookback)
				}
				metrics.WalletCreationRecovered.Inc()
				return recovered, nil
			}
			return nil, err
		}

		event, err := conn.DecodeWalletCreated(receipt)
		if err != nil {
			return nil, err
		}

		return &CreatedWallet{
			ChainKey:    chain.Key,
			Address:     event.Wallet.Hex(),
			Role:        models.WalletRoleTransfer,
			Destination: destination,
			TxHash:      receipt.TxHash.Hex(),
			Outcome:     OutcomeSubmitted,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.WalletsCreated.WithLabelValues(chain.Key, string(models.WalletRoleTransfer)).Inc()
	return wallet, nil
}

// CreateWalletForAllChains provisions the full wallet set for an account:
// the transfer wallet first (its address is the mint recipient for every
// burn wallet), then one burn wallet per burn chain. Burn-chain failures are
// isolated; transfer-wallet failure is fatal to the whole batch.
func (s *WalletProvisionerService) CreateWalletForAllChains(ctx context.Context, email, destination string) (*BatchResult, error) {
	transferWallet, err := s.CreateTransferWallet(ctx, destination)
	if err != nil {
		return nil, fmt.Errorf("transfer wallet creation failed: %w", err)
	}

	result := &BatchResult{
		TransferWallet: transferWallet,
		Failures:       map[string]string{},
	}

	for _, chain := range s.cfg.BurnChains() {
		wallet, err := s.CreateWalletOnChain(ctx, chain.Key, transferWallet.Address)
		if err != nil {
			logrus.WithField("chain", chain.Key).WithError(err).Error("burn wallet creation failed")
			result.Failures[chain.Key] = err.Error()
			continue
		}
		result.BurnWallets = append(result.BurnWallets, *wallet)
	}

	if email != "" {
		if err := s.persistBatch(ctx, email, result); err != nil {
			logrus.WithField("email", email).WithError(err).Error("failed to cache wallet records")
		}
	}

	return result, nil
}

// findRecentWallet dials a connection just for the lookback query.
func (s *WalletProvisionerService) findRecentWallet(ctx context.Context, chain config.ChainConfig, destination *[32]byte, lookback uint64) (*CreatedWallet, error) {
	conn, err := s.dial(ctx, chain, s.cfg.Blockchain.OperatorPrivateKey)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return s.findRecentWalletOn(ctx, conn, destination, lookback)
}

func (s *WalletProvisionerService) findRecentWalletOn(ctx context.Context, conn clients.ChainConn, destination *[32]byte, lookback uint64) (*CreatedWallet, error) {
	event, err := conn.FilterWalletCreated(ctx, lookback, destination)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, nil
	}
	return &CreatedWallet{
		ChainKey:    conn.ChainKey(),
		Address:     event.Wallet.Hex(),
		Role:        models.WalletRoleTransfer,
		Destination: utils.Bytes32ToAddress(*destination).Hex(),
		TxHash:      event.TxHash.Hex(),
		Outcome:     OutcomeRecovered,
	}, nil
}

// persistBatch caches the created wallets under the account. Append-only;
// the event log stays the source of truth.
func (s *WalletProvisionerService) persistBatch(ctx context.Context, email string, result *BatchResult) error {
	account, err := s.accountRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = &models.UserAccount{Email: email}
		if err := s.accountRepo.Create(ctx, account); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	wallets := append([]CreatedWallet{*result.TransferWallet}, result.BurnWallets...)
	for _, w := range wallets {
		record := &models.SmartWallet{
			Address:     w.Address,
			ChainKey:    w.ChainKey,
			Role:        w.Role,
			Destination: w.Destination,
		}
		if err := s.accountRepo.AddWallet(ctx, account.ID, record); err != nil {
			return err
		}
	}
	return nil
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
