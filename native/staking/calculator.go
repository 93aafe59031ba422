package staking

import (
	"math/big"

	"stakevault/native/common"
)

const (
	secondsPerYear   = 365 * 24 * 60 * 60
	basisPointsDenom = 10_000
)

// accrualDenom converts balance × bps × seconds into whole token units.
var accrualDenom = big.NewInt(secondsPerYear * basisPointsDenom)

// ComputeReward returns the reward accrued by balance between stakedAt and
// now at rateBps, an annual simple-interest rate in basis points over a
// 365-day year. The result uses floor division: fractions below one token
// unit are forfeited, never carried over. Pure function, no side effects.
//
// big.Int intermediates make the product balance × rateBps × elapsed exact
// for any realistic range, so the computation cannot wrap.
func ComputeReward(balance *big.Int, stakedAt, now uint64, rateBps uint64) (*big.Int, error) {
	if stakedAt > now {
		return nil, common.Validationf("stake window starts after now: %d > %d", stakedAt, now)
	}
	if balance == nil || balance.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if balance.Sign() < 0 {
		return nil, common.Validationf("stake balance must be non-negative")
	}
	elapsed := now - stakedAt
	if elapsed == 0 || rateBps == 0 {
		return big.NewInt(0), nil
	}
	reward := new(big.Int).SetUint64(rateBps)
	reward.Mul(reward, new(big.Int).SetUint64(elapsed))
	reward.Mul(reward, balance)
	reward.Quo(reward, accrualDenom)
	return reward, nil
}
