package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"bridge-backend/internal/clients"
	"bridge-backend/internal/config"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const testOperatorKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func testConfig() *config.Config {
	return &config.Config{
		Blockchain: config.BlockchainConfig{
			OperatorPrivateKey: testOperatorKey,
			DestinationDomain:  1,
			Chains: map[string]config.ChainConfig{
				"base": {
					Key: "base", Role: config.ChainRoleBurn, Domain: 6, ChainID: 84532,
					RPCEndpoint: "http://fake", FactoryAddress: "0x00000000000000000000000000000000000000f1",
					MessageTransmitter: "0x00000000000000000000000000000000000000a1",
				},
				"arbitrum": {
					Key: "arbitrum", Role: config.ChainRoleBurn, Domain: 3, ChainID: 421614,
					RPCEndpoint: "http://fake", FactoryAddress: "0x00000000000000000000000000000000000000f2",
					MessageTransmitter: "0x00000000000000000000000000000000000000a2",
				},
				"avalanche": {
					Key: "avalanche", Role: config.ChainRoleTransfer, Domain: 1, ChainID: 43113,
					RPCEndpoint: "http://fake", FactoryAddress: "0x00000000000000000000000000000000000000f3",
				},
			},
		},
	}
}

func mkReceipt(hash string, gasUsed uint64) *types.Receipt {
	return &types.Receipt{
		TxHash:  common.HexToHash(hash),
		GasUsed: gasUsed,
		Status:  types.ReceiptStatusSuccessful,
	}
}

// fakeConn is a scriptable ChainConn. Unset hooks fail the call so a test
// only has to script what it expects to happen.
type fakeConn struct {
	key       string
	ownerErr  error
	createFn  func(args ...interface{}) (*types.Receipt, error)
	decodeFn  func(receipt *types.Receipt) (*clients.WalletCreatedEvent, error)
	filterFn  func(lookback uint64, dest *[32]byte) (*clients.WalletCreatedEvent, error)
	burnFn    func(wallet common.Address, amount *big.Int) (*types.Receipt, error)
	receiveFn func(message, attestation []byte) (*types.Receipt, error)
}

func (f *fakeConn) ChainKey() string                { return f.key }
func (f *fakeConn) OperatorAddress() common.Address { return common.Address{} }
func (f *fakeConn) Close()                          {}

func (f *fakeConn) BlockNumber(ctx context.Context) (uint64, error) { return 100, nil }

func (f *fakeConn) VerifyOwnership(ctx context.Context) error { return f.ownerErr }

func (f *fakeConn) CreateWallet(ctx context.Context, args ...interface{}) (*types.Receipt, error) {
	if f.createFn == nil {
		return nil, fmt.Errorf("unexpected CreateWallet on %s", f.key)
	}
	return f.createFn(args...)
}

func (f *fakeConn) DecodeWalletCreated(receipt *types.Receipt) (*clients.WalletCreatedEvent, error) {
	if f.decodeFn == nil {
		return nil, fmt.Errorf("unexpected DecodeWalletCreated on %s", f.key)
	}
	return f.decodeFn(receipt)
}

func (f *fakeConn) FilterWalletCreated(ctx context.Context, lookback uint64, dest *[32]byte) (*clients.WalletCreatedEvent, error) {
	if f.filterFn == nil {
		return nil, fmt.Errorf("unexpected FilterWalletCreated on %s", f.key)
	}
	return f.filterFn(lookback, dest)
}

func (f *fakeConn) BurnUSDC(ctx context.Context, wallet common.Address, amount *big.Int) (*types.Receipt, error) {
	if f.burnFn == nil {
		return nil, fmt.Errorf("unexpected BurnUSDC on %s", f.key)
	}
	return f.burnFn(wallet, amount)
}

func (f *fakeConn) ReceiveMessage(ctx context.Context, message, attestation []byte) (*types.Receipt, error) {
	if f.receiveFn == nil {
		return nil, fmt.Errorf("unexpected ReceiveMessage on %s", f.key)
	}
	return f.receiveFn(message, attestation)
}

// fakeDialer counts dials per chain and hands out conns built by the factory.
type fakeDialer struct {
	mu      sync.Mutex
	dials   map[string]int
	factory func(chain config.ChainConfig, dialCount int) clients.ChainConn
	err     error
}

func newFakeDialer(factory func(chain config.ChainConfig, dialCount int) clients.ChainConn) *fakeDialer {
	return &fakeDialer{dials: map[string]int{}, factory: factory}
}

func (d *fakeDialer) dial(ctx context.Context, chain config.ChainConfig, operatorKey string) (clients.ChainConn, error) {
	d.mu.Lock()
	d.dials[chain.Key]++
	count := d.dials[chain.Key]
	d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.factory(chain, count), nil
}

func (d *fakeDialer) dialCount(chain string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[chain]
}

func (d *fakeDialer) totalDials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, n := range d.dials {
		total += n
	}
	return total
}

func fastProvisioner(cfg *config.Config, dialer *fakeDialer) *WalletProvisionerService {
	s := NewWalletProvisionerService(cfg, dialer.dial, nil)
	s.burnRetry.BaseDelay = time.Millisecond
	s.transferRetry.BaseDelay = time.Millisecond
	s.recoveryWait = time.Millisecond
	return s
}
