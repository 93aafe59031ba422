package events

import (
	"fmt"
	"math/big"
	"strconv"

	"stakevault/core/types"
)

const (
	// TypePaymentCreated is emitted when a recurring schedule is registered.
	TypePaymentCreated = "payments.created"
	// TypePaymentExecuted is emitted on every successful scheduled transfer.
	TypePaymentExecuted = "payments.executed"
	// TypePaymentCanceled is emitted when a schedule is terminated.
	TypePaymentCanceled = "payments.canceled"
)

// PaymentCreated records a newly registered recurring payment schedule.
type PaymentCreated struct {
	PaymentID     uint64
	Sender        [20]byte
	Recipient     [20]byte
	Token         string
	Amount        *big.Int
	Interval      uint64
	NextExecution uint64
	Timestamp     uint64
}

// EventType satisfies the Event interface.
func (PaymentCreated) EventType() string { return TypePaymentCreated }

// Validate checks the payload's internal consistency.
func (e PaymentCreated) Validate() error {
	if e.PaymentID == 0 {
		return fmt.Errorf("payment created event: payment id must be assigned")
	}
	if !isPositive(e.Amount) {
		return fmt.Errorf("payment created event: amount must be > 0")
	}
	if e.Interval == 0 {
		return fmt.Errorf("payment created event: interval must be > 0")
	}
	return nil
}

// Event converts the structured payload into a broadcastable event.
func (e PaymentCreated) Event() *types.Event {
	return &types.Event{Type: TypePaymentCreated, Attributes: map[string]string{
		"paymentId":     strconv.FormatUint(e.PaymentID, 10),
		"sender":        formatAddress(e.Sender),
		"recipient":     formatAddress(e.Recipient),
		"token":         e.Token,
		"amount":        formatAmount(e.Amount),
		"interval":      strconv.FormatUint(e.Interval, 10),
		"nextExecution": strconv.FormatUint(e.NextExecution, 10),
		"timestamp":     strconv.FormatUint(e.Timestamp, 10),
	}}
}

// PaymentExecuted records a single scheduled transfer and the schedule's new
// due time. Exactly one transfer happens per execution no matter how many
// intervals were missed.
type PaymentExecuted struct {
	PaymentID     uint64
	Amount        *big.Int
	NextExecution uint64
	Timestamp     uint64
}

// EventType satisfies the Event interface.
func (PaymentExecuted) EventType() string { return TypePaymentExecuted }

// Validate checks the payload's internal consistency.
func (e PaymentExecuted) Validate() error {
	if e.PaymentID == 0 {
		return fmt.Errorf("payment executed event: payment id must be assigned")
	}
	if !isPositive(e.Amount) {
		return fmt.Errorf("payment executed event: amount must be > 0")
	}
	if e.NextExecution <= e.Timestamp {
		return fmt.Errorf("payment executed event: next execution must be in the future")
	}
	return nil
}

// Event converts the structured payload into a broadcastable event.
func (e PaymentExecuted) Event() *types.Event {
	return &types.Event{Type: TypePaymentExecuted, Attributes: map[string]string{
		"paymentId":     strconv.FormatUint(e.PaymentID, 10),
		"amount":        formatAmount(e.Amount),
		"nextExecution": strconv.FormatUint(e.NextExecution, 10),
		"timestamp":     strconv.FormatUint(e.Timestamp, 10),
	}}
}

// PaymentCanceled records the terminal deactivation of a schedule.
type PaymentCanceled struct {
	PaymentID uint64
	Sender    [20]byte
	Timestamp uint64
}

// EventType satisfies the Event interface.
func (PaymentCanceled) EventType() string { return TypePaymentCanceled }

// Validate checks the payload's internal consistency.
func (e PaymentCanceled) Validate() error {
	if e.PaymentID == 0 {
		return fmt.Errorf("payment canceled event: payment id must be assigned")
	}
	return nil
}

// Event converts the structured payload into a broadcastable event.
func (e PaymentCanceled) Event() *types.Event {
	return &types.Event{Type: TypePaymentCanceled, Attributes: map[string]string{
		"paymentId": strconv.FormatUint(e.PaymentID, 10),
		"sender":    formatAddress(e.Sender),
		"timestamp": strconv.FormatUint(e.Timestamp, 10),
	}}
}
