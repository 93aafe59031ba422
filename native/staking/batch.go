package staking

import (
	"math/big"

	"stakevault/core/events"
	"stakevault/native/common"
	"stakevault/observability/metrics"
)

// DistributeRewards settles accrued rewards plus optional bonuses for many
// accounts in one operation. bonuses must be parallel to stakers; pass zeros
// where no bonus applies. The configuration is read once before the loop and
// every account costs one record read and at most one record write: accounts
// with zero balance and zero bonus are skipped untouched. A single aggregate
// notification covers the whole batch, and nothing is emitted when no
// account was affected.
func (e *Engine) DistributeRewards(admin [20]byte, stakers [][20]byte, bonuses []*big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.auth.RequireAuth(admin); err != nil {
		return err
	}
	if len(stakers) != len(bonuses) {
		return common.Validationf("stakers and bonuses must be the same length: %d != %d", len(stakers), len(bonuses))
	}
	if len(stakers) == 0 {
		return common.Validationf("staker list must not be empty")
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if cfg.Admin != admin {
		return common.Authorizationf("caller is not the ledger admin")
	}

	// Every bonus is checked before the first write so a malformed batch
	// aborts with no record touched.
	cleaned := make([]*big.Int, len(bonuses))
	for i, bonus := range bonuses {
		if bonus == nil {
			bonus = big.NewInt(0)
		}
		if bonus.Sign() < 0 {
			return common.Validationf("bonus amount must be non-negative")
		}
		cleaned[i] = bonus
	}

	now := e.now()
	totalAmount := big.NewInt(0)
	var recipients uint32

	for i := range stakers {
		bonus := cleaned[i]
		pos, ok, err := e.state.PositionGet(stakers[i])
		if err != nil {
			return err
		}
		if !ok {
			pos = &Position{Balance: big.NewInt(0), StakedAt: now}
		}
		if pos.Balance.Sign() == 0 && bonus.Sign() == 0 {
			continue
		}
		reward := big.NewInt(0)
		if pos.Balance.Sign() > 0 {
			reward, err = ComputeReward(pos.Balance, pos.StakedAt, now, cfg.RewardRateBps)
			if err != nil {
				return err
			}
		}
		accountTotal := new(big.Int).Add(reward, bonus)
		if accountTotal.Sign() <= 0 {
			continue
		}
		pos.Balance = new(big.Int).Add(pos.Balance, accountTotal)
		pos.StakedAt = now
		if err := e.state.PositionPut(stakers[i], pos); err != nil {
			return err
		}
		totalAmount.Add(totalAmount, accountTotal)
		recipients++
	}

	if recipients == 0 {
		return nil
	}
	evt := events.BatchSettled{Recipients: recipients, TotalAmount: totalAmount, Timestamp: now}
	if err := e.checkEvent(evt); err != nil {
		return err
	}
	e.emit(evt)
	metrics.Ledger().ObserveBatchSettlement(recipients, totalAmount)
	return nil
}

// PreviewRewards reports, per account, the reward DistributeRewards would
// compute at this instant with no bonus applied. Read-only: no record is
// written and no notification is emitted.
func (e *Engine) PreviewRewards(stakers [][20]byte) ([]*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	now := e.now()
	results := make([]*big.Int, 0, len(stakers))
	for i := range stakers {
		pos, ok, err := e.state.PositionGet(stakers[i])
		if err != nil {
			return nil, err
		}
		reward := big.NewInt(0)
		if ok && pos.Balance.Sign() > 0 {
			reward, err = ComputeReward(pos.Balance, pos.StakedAt, now, cfg.RewardRateBps)
			if err != nil {
				return nil, err
			}
		}
		results = append(results, reward)
	}
	return results, nil
}
