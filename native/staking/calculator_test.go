package staking

import (
	"errors"
	"math/big"
	"testing"

	"stakevault/native/common"
)

const (
	day  = uint64(24 * 60 * 60)
	year = uint64(365 * 24 * 60 * 60)
)

func TestComputeRewardZeroCases(t *testing.T) {
	cases := []struct {
		name    string
		balance *big.Int
		staked  uint64
		now     uint64
		rate    uint64
	}{
		{"nil balance", nil, 0, year, 1200},
		{"zero balance", big.NewInt(0), 0, year, 1200},
		{"no elapsed time", big.NewInt(1000), 500, 500, 1200},
		{"zero rate", big.NewInt(1000), 0, year, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reward, err := ComputeReward(tc.balance, tc.staked, tc.now, tc.rate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reward.Sign() != 0 {
				t.Fatalf("expected zero reward, got %s", reward)
			}
		})
	}
}

func TestComputeRewardTwelvePercentYear(t *testing.T) {
	reward, err := ComputeReward(big.NewInt(10_000), 0, year, 1200)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if reward.Cmp(big.NewInt(1200)) != 0 {
		t.Fatalf("expected 1200, got %s", reward)
	}
}

func TestComputeRewardFloorsFractions(t *testing.T) {
	// 1000 at 12% APR over 30 days accrues 9.86...; the fraction is
	// forfeited, never carried over.
	reward, err := ComputeReward(big.NewInt(1000), 0, 30*day, 1200)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if reward.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("expected 9, got %s", reward)
	}
}

func TestComputeRewardMonotonicInElapsed(t *testing.T) {
	prev := big.NewInt(-1)
	for elapsed := uint64(0); elapsed <= year; elapsed += 30 * day {
		reward, err := ComputeReward(big.NewInt(50_000), 0, elapsed, 800)
		if err != nil {
			t.Fatalf("compute at %d: %v", elapsed, err)
		}
		if reward.Cmp(prev) < 0 {
			t.Fatalf("reward decreased at elapsed=%d: %s < %s", elapsed, reward, prev)
		}
		prev = reward
	}
}

func TestComputeRewardMonotonicInBalance(t *testing.T) {
	prev := big.NewInt(-1)
	for balance := int64(0); balance <= 1_000_000; balance += 100_000 {
		reward, err := ComputeReward(big.NewInt(balance), 0, 90*day, 800)
		if err != nil {
			t.Fatalf("compute at %d: %v", balance, err)
		}
		if reward.Cmp(prev) < 0 {
			t.Fatalf("reward decreased at balance=%d: %s < %s", balance, reward, prev)
		}
		prev = reward
	}
}

func TestComputeRewardRejectsInvertedWindow(t *testing.T) {
	_, err := ComputeReward(big.NewInt(1000), 100, 50, 1200)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestComputeRewardRejectsNegativeBalance(t *testing.T) {
	_, err := ComputeReward(big.NewInt(-1), 0, year, 1200)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestComputeRewardLargeBalanceNoWrap(t *testing.T) {
	// A balance far beyond uint64 range must still compute exactly.
	balance, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	reward, err := ComputeReward(balance, 0, year, 10_000)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if reward.Cmp(balance) != 0 {
		t.Fatalf("100%% APR over one year should equal the balance, got %s", reward)
	}
}
