package payments

import (
	"math/big"

	"stakevault/native/common"
)

// RecurringPayment is the per-id schedule record. NextExecution always moves
// strictly past the execution that advanced it, so a schedule can never be
// re-triggered in the same instant. Active starts true and can only ever
// flip to false, never back.
type RecurringPayment struct {
	Sender        [20]byte
	Recipient     [20]byte
	Token         string
	Amount        *big.Int
	Interval      uint64
	NextExecution uint64
	Active        bool
}

// Clone returns a deep copy of the schedule record.
func (p *RecurringPayment) Clone() *RecurringPayment {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// SanitizePayment validates a schedule record and returns a normalised clone
// with canonical token casing and a non-nil amount.
func SanitizePayment(p *RecurringPayment) (*RecurringPayment, error) {
	if p == nil {
		return nil, common.Validationf("nil recurring payment")
	}
	clone := p.Clone()
	token, err := common.NormalizeToken(clone.Token)
	if err != nil {
		return nil, err
	}
	clone.Token = token
	if clone.Amount.Sign() <= 0 {
		return nil, common.Validationf("payment amount must be positive")
	}
	if clone.Interval == 0 {
		return nil, common.Validationf("payment interval must be positive")
	}
	return clone, nil
}
