package services

import (
	"context"
	"errors"
	"testing"

	"bridge-backend/internal/clients"
	"bridge-backend/internal/config"
	"bridge-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRecipient = "0x1111111111111111111111111111111111111111"
	testWallet    = "0x2222222222222222222222222222222222222222"
)

func TestCreateWalletOnChain_UnsupportedChainNoRPC(t *testing.T) {
	dialer := newFakeDialer(func(chain config.ChainConfig, _ int) clients.ChainConn {
		return &fakeConn{key: chain.Key}
	})
	s := fastProvisioner(testConfig(), dialer)

	_, err := s.CreateWalletOnChain(context.Background(), "solana", testRecipient)
	assert.ErrorIs(t, err, config.ErrUnsupportedChain)
	assert.Equal(t, 0, dialer.totalDials())
}

func TestCreateWalletOnChain_Success(t *testing.T) {
	walletAddr := common.HexToAddress(testWallet)
	dialer := newFakeDialer(func(chain config.ChainConfig, _ int) clients.ChainConn {
		return &fakeConn{
			key: chain.Key,
			createFn: func(args ...interface{}) (*types.Receipt, error) {
				require.Len(t, args, 2)
				assert.Equal(t, uint32(1), args[0])
				return mkReceipt("0xc1", 90000), nil
			},
			decodeFn: func(receipt *types.Receipt) (*clients.WalletCreatedEvent, error) {
				return &clients.WalletCreatedEvent{Wallet: walletAddr, TxHash: receipt.TxHash}, nil
			},
		}
	})
	s := fastProvisioner(testConfig(), dialer)

	wallet, err := s.CreateWalletOnChain(context.Background(), "base", testRecipient)
	require.NoError(t, err)
	assert.Equal(t, walletAddr.Hex(), wallet.Address)
	assert.Equal(t, models.WalletRoleBurn, wallet.Role)
	assert.Equal(t, OutcomeSubmitted, wallet.Outcome)
	assert.Equal(t, 1, dialer.dialCount("base"))
}

func TestCreateWalletOnChain_FreshConnEachAttempt(t *testing.T) {
	walletAddr := common.HexToAddress(testWallet)
	dialer := newFakeDialer(func(chain config.ChainConfig, dialCount int) clients.ChainConn {
		return &fakeConn{
			key: chain.Key,
			createFn: func(args ...interface{}) (*types.Receipt, error) {
				if dialCount < 3 {
					return nil, errors.New("rpc timeout")
				}
				return mkReceipt("0xc1", 90000), nil
			},
			decodeFn: func(receipt *types.Receipt) (*clients.WalletCreatedEvent, error) {
				return &clients.WalletCreatedEvent{Wallet: walletAddr, TxHash: receipt.TxHash}, nil
			},
		}
	})
	s := fastProvisioner(testConfig(), dialer)

	wallet, err := s.CreateWalletOnChain(context.Background(), "base", testRecipient)
	require.NoError(t, err)
	assert.Equal(t, walletAddr.Hex(), wallet.Address)
	// each retry attempt dialed a fresh connection
	assert.Equal(t, 3, dialer.dialCount("base"))
}

func TestCreateWalletOnChain_OwnerMismatchNotRetried(t *testing.T) {
	dialer := newFakeDialer(func(chain config.ChainConfig, _ int) clients.ChainConn {
		return &fakeConn{key: chain.Key, ownerErr: clients.ErrOwnerMismatch}
	})
	s := fastProvisioner(testConfig(), dialer)

	_, err := s.CreateWalletOnChain(context.Background(), "base", testRecipient)
	assert.ErrorIs(t, err, clients.ErrOwnerMismatch)
	assert.Equal(t, 1, dialer.dialCount("base"))
}

func TestCreateWalletOnChain_ExhaustsRetries(t *testing.T) {
	dialer := newFakeDialer(func(chain config.ChainConfig, _ int) clients.ChainConn {
		return &fakeConn{
			key: chain.Key,
			createFn: func(args ...interface{}) (*types.Receipt, error) {
				return nil, errors.New("rpc down")
			},
		}
	})
	s := fastProvisioner(testConfig(), dialer)

	_, err := s.CreateWalletOnChain(context.Background(), "base", testRecipient)
	require.Error(t, err)
	assert.Equal(t, 6, dialer.dialCount("base"))
}

func TestCreateTransferWallet_IdempotentViaLookback(t *testing.T) {
	walletAddr := common.HexToAddress(testWallet)
	created := 0
	dialer := newFakeDialer(func(chain config.ChainConfig, _ int) clients.ChainConn {
		return &fakeConn{
			key: chain.Key,
			filterFn: func(lookback uint64, dest *[32]byte) (*clients.WalletCreatedEvent, error) {
				assert.Equal(t, uint64(50), lookback)
				require.NotNil(t, dest)
				return &clients.WalletCreatedEvent{Wallet: walletAddr, TxHash: common.HexToHash("0xold")}, nil
			},
			createFn: func(args ...interface{}) (*types.Receipt, error) {
				created++
				return mkReceipt("0xnew", 90000), nil
			},
		}
	})
	s := fastProvisioner(testConfig(), dialer)

	first, err := s.CreateTransferWallet(context.Background(), testRecipient)
	require.NoError(t, err)
	second, err := s.CreateTransferWallet(context.Background(), testRecipient)
	require.NoError(t, err)

	assert.Equal(t, first.Address, second.Address)
	assert.Equal(t, OutcomeRecovered, first.Outcome)
	assert.Equal(t, 0, created, "no on-chain creation when the event is discoverable")
}

func TestCreateTransferWallet_SubmitsWhenWindowEmpty(t *testing.T) {
	walletAddr := common.HexToAddress(testWallet)
	dialer := newFakeDialer(func(chain config.ChainConfig, _ int) clients.ChainConn {
		return &fakeConn{
			key: chain.Key,
			filterFn: func(lookback uint64, dest *[32]byte) (*clients.WalletCreatedEvent, error) {
				return nil, nil
			},
			createFn: func(args ...interface{}) (*types.Receipt, error) {
				return mkReceipt("0xnew", 90000), nil
			},
			decodeFn: func(receipt *types.Receipt) (*clients.WalletCreatedEvent, error) {
				return &clients.WalletCreatedEvent{Wallet: walletAddr, TxHash: receipt.TxHash}, nil
			},
		}
	})
	s := fastProvisioner(testConfig(), dialer)

	wallet, err := s.CreateTransferWallet(context.Background(), testRecipient)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, wallet.Outcome)
	assert.Equal(t, models.WalletRoleTransfer, wallet.Role)
}

func TestCreateTransferWallet_DuplicateSubmissionRecovered(t *testing.T) {
	walletAddr := common.HexToAddress(testWallet)
	var recoveryLookbacks []uint64
	dialer := newFakeDialer(func(chain config.ChainConfig, dialCount int) clients.ChainConn {
		return &fakeConn{
			key: chain.Key,
			filterFn: func(lookback uint64, dest *[32]byte) (*clients.WalletCreatedEvent, error) {
				if dialCount == 1 {
					// pre-check window: nothing yet
					return nil, nil
				}
				recoveryLookbacks = append(recoveryLookbacks, lookback)
				return &clients.WalletCreatedEvent{Wallet: walletAddr, TxHash: common.HexToHash("0xdup")}, nil
			},
			createFn: func(args ...interface{}) (*types.Receipt, error) {
				return nil, errors.New("already known")
			},
		}
	})
	s := fastProvisioner(testConfig(), dialer)

	wallet, err := s.CreateTransferWallet(context.Background(), testRecipient)
	require.NoError(t, err)
	assert.Equal(t, walletAddr.Hex(), wallet.Address)
	assert.Equal(t, OutcomeRecovered, wallet.Outcome)
	assert.Equal(t, []uint64{20}, recoveryLookbacks)
}

func TestCreateWalletForAllChains_PartialFailureIsolated(t *testing.T) {
	transferAddr := common.HexToAddress(testWallet)
	burnAddr := common.HexToAddress("0x3333333333333333333333333333333333333333")

	dialer := newFakeDialer(func(chain config.ChainConfig, _ int) clients.ChainConn {
		switch chain.Key {
		case "avalanche":
			return &fakeConn{
				key: chain.Key,
				filterFn: func(uint64, *[32]byte) (*clients.WalletCreatedEvent, error) {
					return &clients.WalletCreatedEvent{Wallet: transferAddr, TxHash: common.HexToHash("0xt")}, nil
				},
			}
		case "arbitrum":
			return &fakeConn{
				key: chain.Key,
				createFn: func(args ...interface{}) (*types.Receipt, error) {
					return nil, errors.New("rpc down")
				},
			}
		default: // base
			return &fakeConn{
				key: chain.Key,
				createFn: func(args ...interface{}) (*types.Receipt, error) {
					return mkReceipt("0xb", 90000), nil
				},
				decodeFn: func(receipt *types.Receipt) (*clients.WalletCreatedEvent, error) {
					return &clients.WalletCreatedEvent{Wallet: burnAddr, TxHash: receipt.TxHash}, nil
				},
			}
		}
	})
	s := fastProvisioner(testConfig(), dialer)
	s.burnRetry.MaxAttempts = 2

	result, err := s.CreateWalletForAllChains(context.Background(), "", testRecipient)
	require.NoError(t, err, "burn-chain failures must not fail the batch")

	require.NotNil(t, result.TransferWallet)
	assert.Equal(t, transferAddr.Hex(), result.TransferWallet.Address)

	require.Len(t, result.BurnWallets, 1)
	assert.Equal(t, "base", result.BurnWallets[0].ChainKey)
	assert.Equal(t, transferAddr.Hex(), result.BurnWallets[0].Destination)

	assert.Contains(t, result.Failures, "arbitrum")
}

func TestCreateWalletForAllChains_TransferFailureFatal(t *testing.T) {
	dialer := newFakeDialer(func(chain config.ChainConfig, _ int) clients.ChainConn {
		return &fakeConn{
			key: chain.Key,
			filterFn: func(uint64, *[32]byte) (*clients.WalletCreatedEvent, error) {
				return nil, nil
			},
			createFn: func(args ...interface{}) (*types.Receipt, error) {
				return nil, errors.New("rpc down")
			},
		}
	})
	s := fastProvisioner(testConfig(), dialer)

	_, err := s.CreateWalletForAllChains(context.Background(), "", testRecipient)
	require.Error(t, err)
	// downstream chains were never attempted
	assert.Equal(t, 0, dialer.dialCount("base"))
	assert.Equal(t, 0, dialer.dialCount("arbitrum"))
}
