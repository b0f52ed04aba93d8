package clients

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"bridge-backend/internal/config"
	"bridge-backend/internal/contracts"
	"bridge-backend/internal/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	// ErrOwnerMismatch marks a configuration error: the operator key is not
	// the owner of the factory it is about to call. Never retried.
	ErrOwnerMismatch = errors.New("operator is not the factory owner")

	// ErrEventNotFound marks a receipt that confirmed without the expected
	// event. Distinct from transport failures.
	ErrEventNotFound = errors.New("expected event not found in receipt")
)

// WalletCreatedEvent is the decoded factory creation event. Depending on the
// factory role either DestinationDomain+MintRecipient (burn factory) or
// Destination (transfer factory) is populated.
type WalletCreatedEvent struct {
	Wallet            common.Address
	DestinationDomain uint32
	MintRecipient     [32]byte
	Destination       [32]byte
	TxHash            common.Hash
}

// ChainConn is a single-attempt connection to one chain: provider, signer and
// contract bindings. A conn is never reused across retry attempts; callers
// dial a fresh one through a ChainDialer so that broken provider state cannot
// survive a transient failure.
type ChainConn interface {
	ChainKey() string
	OperatorAddress() common.Address

	// BlockNumber returns the current head. Also the reachability probe for
	// health checks.
	BlockNumber(ctx context.Context) (uint64, error)

	// VerifyOwnership fails fast with ErrOwnerMismatch when the operator key
	// does not match the factory's reported owner.
	VerifyOwnership(ctx context.Context) error

	// CreateWallet submits createSingleWallet on the factory and waits for
	// one confirmation.
	CreateWallet(ctx context.Context, args ...interface{}) (*types.Receipt, error)

	// DecodeWalletCreated scans receipt logs for the factory's WalletCreated
	// event; absence is ErrEventNotFound.
	DecodeWalletCreated(receipt *types.Receipt) (*WalletCreatedEvent, error)

	// FilterWalletCreated scans the last lookbackBlocks blocks of factory
	// events, optionally filtered by the indexed destination. Returns nil
	// when nothing matched inside the window.
	FilterWalletCreated(ctx context.Context, lookbackBlocks uint64, destination *[32]byte) (*WalletCreatedEvent, error)

	// BurnUSDC submits burnUSDC on a burn-only wallet and waits for one
	// confirmation.
	BurnUSDC(ctx context.Context, wallet common.Address, amount *big.Int) (*types.Receipt, error)

	// ReceiveMessage submits the CCTP mint against the chain's message
	// transmitter and waits for one confirmation.
	ReceiveMessage(ctx context.Context, message, attestation []byte) (*types.Receipt, error)

	Close()
}

// ChainDialer produces a fresh ChainConn for one attempt. Injected into the
// services so tests can substitute fakes.
type ChainDialer func(ctx context.Context, chain config.ChainConfig, operatorKey string) (ChainConn, error)

// ethChainConn implements ChainConn over go-ethereum.
type ethChainConn struct {
	chain      config.ChainConfig
	client     *ethclient.Client
	factoryABI abi.ABI
	factory    *bind.BoundContract
	txOpts     *bind.TransactOpts
	operator   common.Address
}

// DialChain is the production ChainDialer. Everything is constructed fresh:
// provider, signer and contract binding.
func DialChain(ctx context.Context, chain config.ChainConfig, operatorKey string) (ChainConn, error) {
	client, err := ethclient.DialContext(ctx, chain.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s rpc: %w", chain.Key, err)
	}

	abiJSON := contracts.BurnWalletFactoryABI
	if chain.Role == config.ChainRoleTransfer {
		abiJSON = contracts.TransferWalletFactoryABI
	}
	factoryABI, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(operatorKey, "0x"))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("parse operator key: %w", err)
	}

	txOpts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(chain.ChainID))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("build transactor for %s: %w", chain.Key, err)
	}

	factoryAddr := common.HexToAddress(chain.FactoryAddress)
	return &ethChainConn{
		chain:      chain,
		client:     client,
		factoryABI: factoryABI,
		factory:    bind.NewBoundContract(factoryAddr, factoryABI, client, client, client),
		txOpts:     txOpts,
		operator:   crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (c *ethChainConn) ChainKey() string                { return c.chain.Key }
func (c *ethChainConn) OperatorAddress() common.Address { return c.operator }

func (c *ethChainConn) BlockNumber(ctx context.Context) (uint64, error) {
	return c.client.BlockNumber(ctx)
}

func (c *ethChainConn) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// callView performs a read-only contract call against the factory.
func (c *ethChainConn) callView(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := c.factory.Call(opts, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.chain.Key, method, err)
	}
	return out, nil
}

// callWrite submits a transaction against bound and waits for one confirmation.
func (c *ethChainConn) callWrite(ctx context.Context, bound *bind.BoundContract, method string, args ...interface{}) (*types.Receipt, error) {
	start := time.Now()
	opts := *c.txOpts
	opts.Context = ctx

	tx, err := bound.Transact(&opts, method, args...)
	if err != nil {
		metrics.ChainTxTotal.WithLabelValues(c.chain.Key, method, "submit_error").Inc()
		return nil, fmt.Errorf("%s.%s: %w", c.chain.Key, method, err)
	}

	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		metrics.ChainTxTotal.WithLabelValues(c.chain.Key, method, "wait_error").Inc()
		return nil, fmt.Errorf("wait %s.%s tx %s: %w", c.chain.Key, method, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		metrics.ChainTxTotal.WithLabelValues(c.chain.Key, method, "reverted").Inc()
		return receipt, fmt.Errorf("%s.%s tx %s reverted", c.chain.Key, method, tx.Hash().Hex())
	}

	metrics.ChainTxTotal.WithLabelValues(c.chain.Key, method, "confirmed").Inc()
	metrics.ChainTxDuration.WithLabelValues(c.chain.Key, method).Observe(time.Since(start).Seconds())
	return receipt, nil
}

func (c *ethChainConn) VerifyOwnership(ctx context.Context) error {
	out, err := c.callView(ctx, "owner")
	if err != nil {
		return err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return fmt.Errorf("%s: unexpected owner() result type %T", c.chain.Key, out[0])
	}
	if owner != c.operator {
		return fmt.Errorf("%w: chain %s factory owner is %s, operator is %s",
			ErrOwnerMismatch, c.chain.Key, owner.Hex(), c.operator.Hex())
	}
	return nil
}

func (c *ethChainConn) CreateWallet(ctx context.Context, args ...interface{}) (*types.Receipt, error) {
	return c.callWrite(ctx, c.factory, "createSingleWallet", args...)
}

func (c *ethChainConn) DecodeWalletCreated(receipt *types.Receipt) (*WalletCreatedEvent, error) {
	for _, logEntry := range receipt.Logs {
		event, err := c.decodeWalletCreatedLog(logEntry)
		if err == nil {
			event.TxHash = receipt.TxHash
			return event, nil
		}
	}
	return nil, fmt.Errorf("%w: WalletCreated on %s (tx %s)", ErrEventNotFound, c.chain.Key, receipt.TxHash.Hex())
}

func (c *ethChainConn) decodeWalletCreatedLog(logEntry *types.Log) (*WalletCreatedEvent, error) {
	eventDef, ok := c.factoryABI.Events["WalletCreated"]
	if !ok {
		return nil, fmt.Errorf("abi has no WalletCreated event")
	}
	if len(logEntry.Topics) == 0 || logEntry.Topics[0] != eventDef.ID {
		return nil, fmt.Errorf("not a WalletCreated log")
	}

	event := &WalletCreatedEvent{
		Wallet: common.BytesToAddress(logEntry.Topics[1].Bytes()),
	}

	if c.chain.Role == config.ChainRoleTransfer {
		// destination is the second indexed topic
		if len(logEntry.Topics) < 3 {
			return nil, fmt.Errorf("transfer WalletCreated log missing destination topic")
		}
		copy(event.Destination[:], logEntry.Topics[2].Bytes())
		return event, nil
	}

	values, err := eventDef.Inputs.NonIndexed().Unpack(logEntry.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack WalletCreated data: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected WalletCreated data arity %d", len(values))
	}
	event.DestinationDomain, _ = values[0].(uint32)
	if recipient, ok := values[1].([32]byte); ok {
		event.MintRecipient = recipient
	}
	return event, nil
}

func (c *ethChainConn) FilterWalletCreated(ctx context.Context, lookbackBlocks uint64, destination *[32]byte) (*WalletCreatedEvent, error) {
	head, err := c.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s block number: %w", c.chain.Key, err)
	}
	fromBlock := uint64(0)
	if head > lookbackBlocks {
		fromBlock = head - lookbackBlocks
	}

	eventDef := c.factoryABI.Events["WalletCreated"]
	topics := [][]common.Hash{{eventDef.ID}}
	if destination != nil {
		// skip the indexed wallet topic, pin the indexed destination
		topics = append(topics, nil, []common.Hash{common.BytesToHash(destination[:])})
	}

	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{common.HexToAddress(c.chain.FactoryAddress)},
		Topics:    topics,
	})
	if err != nil {
		return nil, fmt.Errorf("%s filter logs: %w", c.chain.Key, err)
	}

	// newest match wins
	for i := len(logs) - 1; i >= 0; i-- {
		event, err := c.decodeWalletCreatedLog(&logs[i])
		if err != nil {
			continue
		}
		event.TxHash = logs[i].TxHash
		return event, nil
	}
	return nil, nil
}

func (c *ethChainConn) BurnUSDC(ctx context.Context, wallet common.Address, amount *big.Int) (*types.Receipt, error) {
	walletABI, err := abi.JSON(strings.NewReader(contracts.BurnWalletABI))
	if err != nil {
		return nil, fmt.Errorf("parse wallet abi: %w", err)
	}
	bound := bind.NewBoundContract(wallet, walletABI, c.client, c.client, c.client)
	return c.callWrite(ctx, bound, "burnUSDC", amount)
}

func (c *ethChainConn) ReceiveMessage(ctx context.Context, message, attestation []byte) (*types.Receipt, error) {
	if c.chain.MessageTransmitter == "" {
		return nil, fmt.Errorf("chain %s has no message transmitter configured", c.chain.Key)
	}
	transmitterABI, err := abi.JSON(strings.NewReader(contracts.MessageTransmitterABI))
	if err != nil {
		return nil, fmt.Errorf("parse transmitter abi: %w", err)
	}
	bound := bind.NewBoundContract(common.HexToAddress(c.chain.MessageTransmitter), transmitterABI, c.client, c.client, c.client)
	return c.callWrite(ctx, bound, "receiveMessage", message, attestation)
}

// IsDuplicateSubmission reports whether err is the node telling us the
// transaction was already accepted. Recovered by event lookup, not retried.
func IsDuplicateSubmission(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already known") ||
		strings.Contains(msg, "alreadyknown") ||
		strings.Contains(msg, "duplicate transaction") ||
		strings.Contains(msg, "nonce too low")
}
