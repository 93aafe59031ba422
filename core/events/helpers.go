package events

import (
	"encoding/hex"
	"math/big"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAddress(addr [20]byte) string {
	return hex.EncodeToString(addr[:])
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}

func isNegative(v *big.Int) bool {
	return v != nil && v.Sign() < 0
}
