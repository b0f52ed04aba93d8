package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// USDCDecimals is the number of decimal places of USDC on every supported chain.
const USDCDecimals = 6

// ParseUSDCAmount converts a boundary amount string into an integer amount in
// the smallest USDC unit. Two input shapes are accepted:
//   - integer string ("1000000"): already smallest-unit, passed through
//   - decimal string ("0.001"): multiplied by 10^6 and truncated, no rounding
//
// Conversion happens once, at the boundary; everything past this point works
// in smallest units only.
func ParseUSDCAmount(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("amount is required")
	}

	if !strings.Contains(amount, ".") {
		value, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount: %s", amount)
		}
		if value.Sign() <= 0 {
			return nil, fmt.Errorf("amount must be positive: %s", amount)
		}
		return value, nil
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal amount %s: %w", amount, err)
	}
	if dec.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive: %s", amount)
	}

	// Shift into smallest units and truncate any sub-unit remainder.
	units := dec.Shift(USDCDecimals).Truncate(0)
	return units.BigInt(), nil
}

// FormatUSDCAmount renders a smallest-unit amount as a decimal USDC string.
func FormatUSDCAmount(units *big.Int) string {
	return decimal.NewFromBigInt(units, -USDCDecimals).String()
}
