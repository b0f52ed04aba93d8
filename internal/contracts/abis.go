// Package contracts embeds the ABI fragments of the on-chain collaborators.
// The contracts themselves are fixed; only the documented surface below is used.
package contracts

// BurnWalletFactoryABI is the owner-gated factory that deploys burn-only
// smart wallets. WalletCreated records the deployed address.
const BurnWalletFactoryABI = `[
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"createSingleWallet","stateMutability":"nonpayable","inputs":[{"name":"destinationDomain","type":"uint32"},{"name":"mintRecipient","type":"bytes32"}],"outputs":[{"name":"wallet","type":"address"}]},
	{"type":"event","name":"WalletCreated","anonymous":false,"inputs":[{"name":"wallet","type":"address","indexed":true},{"name":"destinationDomain","type":"uint32","indexed":false},{"name":"mintRecipient","type":"bytes32","indexed":false}]}
]`

// TransferWalletFactoryABI deploys transfer-only wallets keyed by their
// cross-chain destination. The destination is indexed so recent creations
// can be filtered by it.
const TransferWalletFactoryABI = `[
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"createSingleWallet","stateMutability":"nonpayable","inputs":[{"name":"destination","type":"bytes32"}],"outputs":[{"name":"wallet","type":"address"}]},
	{"type":"event","name":"WalletCreated","anonymous":false,"inputs":[{"name":"wallet","type":"address","indexed":true},{"name":"destination","type":"bytes32","indexed":true}]}
]`

// BurnWalletABI is the per-user burn-only wallet surface.
const BurnWalletABI = `[
	{"type":"function","name":"burnUSDC","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

// MessageTransmitterABI is the CCTP mint-side entrypoint.
const MessageTransmitterABI = `[
	{"type":"function","name":"receiveMessage","stateMutability":"nonpayable","inputs":[{"name":"message","type":"bytes"},{"name":"attestation","type":"bytes"}],"outputs":[{"name":"success","type":"bool"}]}
]`
