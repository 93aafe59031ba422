package escrow

import (
	"math/big"

	"stakevault/native/common"
)

// Entry is the packed record for one time-locked escrow. It is keyed by
// (depositor, id), with the id chosen by the depositor, so multiple
// concurrent escrows per depositor need no growable per-depositor list. The
// record exists from Lock until Release; existence of the key is the "funds
// held" state, and release deletes the record outright instead of zeroing
// it.
type Entry struct {
	Depositor   [20]byte
	Beneficiary [20]byte
	Amount      *big.Int
	UnlockTime  uint64
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Amount != nil {
		clone.Amount = new(big.Int).Set(e.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// SanitizeEntry validates an escrow record and returns a normalised clone
// with a non-nil amount.
func SanitizeEntry(e *Entry) (*Entry, error) {
	if e == nil {
		return nil, common.Validationf("nil escrow entry")
	}
	clone := e.Clone()
	if clone.Amount.Sign() <= 0 {
		return nil, common.Validationf("escrow amount must be positive")
	}
	if clone.UnlockTime == 0 {
		return nil, common.Validationf("escrow unlock time must be set")
	}
	return clone, nil
}
