package staking

import (
	"math/big"

	"stakevault/native/common"
)

// Config is the process-wide ledger configuration, written exactly once at
// initialisation and read-only afterwards.
type Config struct {
	Admin         [20]byte
	Token         string
	RewardRateBps uint64
	MinStake      *big.Int
}

// Clone returns a deep copy so callers can never mutate a stored config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.MinStake != nil {
		clone.MinStake = new(big.Int).Set(c.MinStake)
	} else {
		clone.MinStake = big.NewInt(0)
	}
	return &clone
}

// SanitizeConfig validates a configuration and returns a normalised clone.
func SanitizeConfig(c *Config) (*Config, error) {
	if c == nil {
		return nil, common.Validationf("nil staking config")
	}
	clone := c.Clone()
	token, err := common.NormalizeToken(clone.Token)
	if err != nil {
		return nil, err
	}
	clone.Token = token
	if clone.RewardRateBps == 0 {
		return nil, common.Validationf("reward rate must be > 0")
	}
	if clone.MinStake.Sign() <= 0 {
		return nil, common.Validationf("minimum stake must be > 0")
	}
	return clone, nil
}

// Position is the per-account stake record. Balance carries the principal
// plus every reward folded in so far; StakedAt marks the start of the current
// accrual window and moves to "now" on every balance mutation so elapsed time
// is never counted twice. A position with zero balance is removed from
// storage rather than persisted.
type Position struct {
	Balance  *big.Int
	StakedAt uint64
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Balance != nil {
		clone.Balance = new(big.Int).Set(p.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	return &clone
}

// SanitizePosition validates a position record and returns a normalised
// clone with a non-nil balance.
func SanitizePosition(p *Position) (*Position, error) {
	if p == nil {
		return nil, common.Validationf("nil stake position")
	}
	clone := p.Clone()
	if clone.Balance.Sign() < 0 {
		return nil, common.Validationf("stake balance must be non-negative")
	}
	return clone, nil
}
