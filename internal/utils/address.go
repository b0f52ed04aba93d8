package utils

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AddressToBytes32 left-pads an EVM address into the 32-byte form CCTP uses
// for mint recipients and cross-chain destinations.
func AddressToBytes32(address string) ([32]byte, error) {
	var out [32]byte
	if !common.IsHexAddress(address) {
		return out, fmt.Errorf("invalid address: %s", address)
	}
	copy(out[12:], common.HexToAddress(address).Bytes())
	return out, nil
}

// Bytes32ToAddress recovers an EVM address from its padded 32-byte form.
func Bytes32ToAddress(b [32]byte) common.Address {
	return common.BytesToAddress(b[12:])
}
