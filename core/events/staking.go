package events

import (
	"fmt"
	"math/big"
	"strconv"

	"stakevault/core/types"
)

const (
	// TypeStakingInitialized is emitted exactly once when the ledger
	// configuration is established.
	TypeStakingInitialized = "staking.initialized"
	// TypeStakingStaked captures a successful stake deposit.
	TypeStakingStaked = "staking.staked"
	// TypeStakingUnstaked captures a successful withdrawal with its accrued
	// reward payout.
	TypeStakingUnstaked = "staking.unstaked"
	// TypeStakingBatchSettled summarises an entire reward distribution run.
	// One event covers the whole batch regardless of recipient count.
	TypeStakingBatchSettled = "staking.batchSettled"
)

// Initialized is published when the configuration singleton is written.
type Initialized struct {
	Admin         [20]byte
	Token         string
	RewardRateBps uint64
	MinStake      *big.Int
	Timestamp     uint64
}

// EventType satisfies the Event interface.
func (Initialized) EventType() string { return TypeStakingInitialized }

// Validate checks the payload's internal consistency.
func (e Initialized) Validate() error {
	if e.RewardRateBps == 0 {
		return fmt.Errorf("initialized event: reward rate must be > 0")
	}
	if !isPositive(e.MinStake) {
		return fmt.Errorf("initialized event: minimum stake must be > 0")
	}
	return nil
}

// Event converts the structured payload into a broadcastable event.
func (e Initialized) Event() *types.Event {
	return &types.Event{Type: TypeStakingInitialized, Attributes: map[string]string{
		"admin":         formatAddress(e.Admin),
		"token":         e.Token,
		"rewardRateBps": strconv.FormatUint(e.RewardRateBps, 10),
		"minStake":      formatAmount(e.MinStake),
		"timestamp":     strconv.FormatUint(e.Timestamp, 10),
	}}
}

// Staked captures the new total recorded after a stake deposit.
type Staked struct {
	Staker    [20]byte
	Amount    *big.Int
	Total     *big.Int
	Timestamp uint64
}

// EventType satisfies the Event interface.
func (Staked) EventType() string { return TypeStakingStaked }

// Validate checks the payload's internal consistency.
func (e Staked) Validate() error {
	if !isPositive(e.Amount) {
		return fmt.Errorf("staked event: amount must be > 0")
	}
	if e.Total == nil || e.Total.Cmp(e.Amount) < 0 {
		return fmt.Errorf("staked event: total below staked amount")
	}
	return nil
}

// Event converts the structured payload into a broadcastable event.
func (e Staked) Event() *types.Event {
	return &types.Event{Type: TypeStakingStaked, Attributes: map[string]string{
		"staker":    formatAddress(e.Staker),
		"amount":    formatAmount(e.Amount),
		"total":     formatAmount(e.Total),
		"timestamp": strconv.FormatUint(e.Timestamp, 10),
	}}
}

// Unstaked captures the withdrawal amount, the reward paid alongside it and
// the balance left behind.
type Unstaked struct {
	Staker    [20]byte
	Amount    *big.Int
	Reward    *big.Int
	Remaining *big.Int
	Timestamp uint64
}

// EventType satisfies the Event interface.
func (Unstaked) EventType() string { return TypeStakingUnstaked }

// Validate checks the payload's internal consistency.
func (e Unstaked) Validate() error {
	if !isPositive(e.Amount) {
		return fmt.Errorf("unstaked event: amount must be > 0")
	}
	if isNegative(e.Reward) {
		return fmt.Errorf("unstaked event: reward cannot be negative")
	}
	if isNegative(e.Remaining) {
		return fmt.Errorf("unstaked event: remaining balance cannot be negative")
	}
	return nil
}

// Event converts the structured payload into a broadcastable event.
func (e Unstaked) Event() *types.Event {
	return &types.Event{Type: TypeStakingUnstaked, Attributes: map[string]string{
		"staker":    formatAddress(e.Staker),
		"amount":    formatAmount(e.Amount),
		"reward":    formatAmount(e.Reward),
		"remaining": formatAmount(e.Remaining),
		"timestamp": strconv.FormatUint(e.Timestamp, 10),
	}}
}

// BatchSettled is the single aggregate record for a reward distribution run.
// Off-ledger observers reconstruct per-account detail from the batch input;
// the event only carries the totals.
type BatchSettled struct {
	Recipients  uint32
	TotalAmount *big.Int
	Timestamp   uint64
}

// EventType satisfies the Event interface.
func (BatchSettled) EventType() string { return TypeStakingBatchSettled }

// Validate checks the payload's internal consistency.
func (e BatchSettled) Validate() error {
	if e.Recipients == 0 {
		return fmt.Errorf("batch settled event: at least one recipient required")
	}
	if !isPositive(e.TotalAmount) {
		return fmt.Errorf("batch settled event: total amount must be > 0")
	}
	return nil
}

// Event converts the structured payload into a broadcastable event.
func (e BatchSettled) Event() *types.Event {
	return &types.Event{Type: TypeStakingBatchSettled, Attributes: map[string]string{
		"recipients":  strconv.FormatUint(uint64(e.Recipients), 10),
		"totalAmount": formatAmount(e.TotalAmount),
		"timestamp":   strconv.FormatUint(e.Timestamp, 10),
	}}
}
