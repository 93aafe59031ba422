package events

import (
	"fmt"
	"math/big"
	"strconv"

	"stakevault/core/types"
)

const (
	// TypeEscrowLocked is emitted when funds enter escrow custody.
	TypeEscrowLocked = "escrow.locked"
	// TypeEscrowReleased is emitted when escrowed funds reach the beneficiary.
	TypeEscrowReleased = "escrow.released"
)

// EscrowLocked records a new time-locked escrow entry.
type EscrowLocked struct {
	Depositor   [20]byte
	Beneficiary [20]byte
	Amount      *big.Int
	UnlockTime  uint64
	Timestamp   uint64
}

// EventType satisfies the Event interface.
func (EscrowLocked) EventType() string { return TypeEscrowLocked }

// Validate checks the payload's internal consistency.
func (e EscrowLocked) Validate() error {
	if !isPositive(e.Amount) {
		return fmt.Errorf("escrow locked event: amount must be > 0")
	}
	if e.UnlockTime <= e.Timestamp {
		return fmt.Errorf("escrow locked event: unlock time must be in the future")
	}
	return nil
}

// Event converts the structured payload into a broadcastable event.
func (e EscrowLocked) Event() *types.Event {
	return &types.Event{Type: TypeEscrowLocked, Attributes: map[string]string{
		"depositor":   formatAddress(e.Depositor),
		"beneficiary": formatAddress(e.Beneficiary),
		"amount":      formatAmount(e.Amount),
		"unlockTime":  strconv.FormatUint(e.UnlockTime, 10),
		"timestamp":   strconv.FormatUint(e.Timestamp, 10),
	}}
}

// EscrowReleased records the completed payout of an escrow entry.
type EscrowReleased struct {
	Beneficiary [20]byte
	Amount      *big.Int
	Timestamp   uint64
}

// EventType satisfies the Event interface.
func (EscrowReleased) EventType() string { return TypeEscrowReleased }

// Validate checks the payload's internal consistency.
func (e EscrowReleased) Validate() error {
	if !isPositive(e.Amount) {
		return fmt.Errorf("escrow released event: amount must be > 0")
	}
	return nil
}

// Event converts the structured payload into a broadcastable event.
func (e EscrowReleased) Event() *types.Event {
	return &types.Event{Type: TypeEscrowReleased, Attributes: map[string]string{
		"beneficiary": formatAddress(e.Beneficiary),
		"amount":      formatAmount(e.Amount),
		"timestamp":   strconv.FormatUint(e.Timestamp, 10),
	}}
}
