package staking

import (
	"errors"
	"math/big"
	"testing"

	"stakevault/core/events"
	"stakevault/native/common"
)

func seedPosition(state *mockState, addr [20]byte, balance int64, stakedAt uint64) {
	state.positions[addr] = &Position{Balance: big.NewInt(balance), StakedAt: stakedAt}
}

func TestDistributeRewardsRejectsBadBatches(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	admin := testAddr(0x01)
	mustInitialize(t, engine, admin)

	if err := engine.DistributeRewards(admin, nil, nil); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("empty batch accepted: %v", err)
	}
	err := engine.DistributeRewards(admin, [][20]byte{testAddr(0x02)}, []*big.Int{big.NewInt(0), big.NewInt(0)})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("mismatched lengths accepted: %v", err)
	}
	err = engine.DistributeRewards(admin, [][20]byte{testAddr(0x02)}, []*big.Int{big.NewInt(-5)})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("negative bonus accepted: %v", err)
	}
}

func TestDistributeRewardsNegativeBonusWritesNothing(t *testing.T) {
	engine, state, emitter, now := newTestEngine(t)
	admin := testAddr(0x01)
	mustInitialize(t, engine, admin)

	staked := testAddr(0x02)
	seedPosition(state, staked, 10_000, *now)
	stakedAt := state.positions[staked].StakedAt

	*now += year
	state.positionPuts = 0
	emitted := len(emitter.events)

	// The valid first account must not be settled before the bad bonus
	// further down the batch is detected.
	stakers := [][20]byte{staked, testAddr(0x03)}
	bonuses := []*big.Int{big.NewInt(0), big.NewInt(-5)}
	err := engine.DistributeRewards(admin, stakers, bonuses)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("negative bonus accepted: %v", err)
	}
	if state.positionPuts != 0 {
		t.Fatalf("rejected batch wrote %d positions", state.positionPuts)
	}
	if got := state.positions[staked].Balance; got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("rejected batch settled a balance: %s", got)
	}
	if state.positions[staked].StakedAt != stakedAt {
		t.Fatalf("rejected batch reset an accrual window")
	}
	if len(emitter.events) != emitted {
		t.Fatalf("rejected batch emitted an event")
	}
}

func TestDistributeRewardsRequiresAdmin(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	mustInitialize(t, engine, testAddr(0x01))

	// The caller authorizes fine but is not the configured admin.
	err := engine.DistributeRewards(testAddr(0x09), [][20]byte{testAddr(0x02)}, []*big.Int{big.NewInt(0)})
	if !errors.Is(err, common.ErrAuthorization) {
		t.Fatalf("non-admin caller accepted: %v", err)
	}
}

func TestDistributeRewardsWritesOnlyAffectedAccounts(t *testing.T) {
	engine, state, emitter, now := newTestEngine(t)
	admin := testAddr(0x01)
	mustInitialize(t, engine, admin)

	staked1 := testAddr(0x02)
	staked2 := testAddr(0x03)
	bonusOnly := testAddr(0x04)
	untouched := testAddr(0x05)
	seedPosition(state, staked1, 10_000, *now)
	seedPosition(state, staked2, 20_000, *now)

	*now += year
	state.positionPuts = 0
	stakers := [][20]byte{staked1, staked2, bonusOnly, untouched}
	bonuses := []*big.Int{big.NewInt(0), big.NewInt(0), big.NewInt(50), big.NewInt(0)}
	if err := engine.DistributeRewards(admin, stakers, bonuses); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	if state.positionPuts != 3 {
		t.Fatalf("expected 3 writes, got %d", state.positionPuts)
	}
	if _, ok := state.positions[untouched]; ok {
		t.Fatalf("zero-balance zero-bonus account was written")
	}

	// Rewards fold into balances and every touched window resets.
	if got := state.positions[staked1].Balance; got.Cmp(big.NewInt(11_200)) != 0 {
		t.Fatalf("staked1 balance %s, expected 11200", got)
	}
	if got := state.positions[staked2].Balance; got.Cmp(big.NewInt(22_400)) != 0 {
		t.Fatalf("staked2 balance %s, expected 22400", got)
	}
	if got := state.positions[bonusOnly].Balance; got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("bonusOnly balance %s, expected 50", got)
	}
	for _, addr := range [][20]byte{staked1, staked2, bonusOnly} {
		if state.positions[addr].StakedAt != *now {
			t.Fatalf("window not reset for %x", addr[:2])
		}
	}

	// One aggregate event for the whole batch.
	var batches []events.BatchSettled
	for _, evt := range emitter.events {
		if settled, ok := evt.(events.BatchSettled); ok {
			batches = append(batches, settled)
		}
	}
	if len(batches) != 1 {
		t.Fatalf("expected exactly 1 batch event, got %d", len(batches))
	}
	if batches[0].Recipients != 3 {
		t.Fatalf("expected 3 recipients, got %d", batches[0].Recipients)
	}
	if batches[0].TotalAmount.Cmp(big.NewInt(1_200+2_400+50)) != 0 {
		t.Fatalf("unexpected batch total %s", batches[0].TotalAmount)
	}
}

func TestDistributeRewardsAllSkippedEmitsNothing(t *testing.T) {
	engine, state, emitter, _ := newTestEngine(t)
	admin := testAddr(0x01)
	mustInitialize(t, engine, admin)
	emitted := len(emitter.events)

	stakers := [][20]byte{testAddr(0x02), testAddr(0x03)}
	bonuses := []*big.Int{big.NewInt(0), nil}
	if err := engine.DistributeRewards(admin, stakers, bonuses); err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if state.positionPuts != 0 {
		t.Fatalf("all-skip batch wrote %d positions", state.positionPuts)
	}
	if len(emitter.events) != emitted {
		t.Fatalf("all-skip batch emitted an event")
	}
}

func TestPreviewMatchesDistribute(t *testing.T) {
	engine, state, _, now := newTestEngine(t)
	admin := testAddr(0x01)
	mustInitialize(t, engine, admin)

	accounts := [][20]byte{testAddr(0x02), testAddr(0x03), testAddr(0x04)}
	seedPosition(state, accounts[0], 10_000, *now)
	seedPosition(state, accounts[1], 333, *now)
	// accounts[2] has no position at all.

	*now += 90 * day
	preview, err := engine.PreviewRewards(accounts)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview) != len(accounts) {
		t.Fatalf("preview length %d, expected %d", len(preview), len(accounts))
	}
	if preview[2].Sign() != 0 {
		t.Fatalf("absent account should preview zero, got %s", preview[2])
	}

	before := make([]*big.Int, len(accounts))
	for i, addr := range accounts {
		balance, _ := engine.GetStake(addr)
		before[i] = balance
	}
	bonuses := []*big.Int{big.NewInt(0), big.NewInt(0), big.NewInt(0)}
	if err := engine.DistributeRewards(admin, accounts, bonuses); err != nil {
		t.Fatalf("distribute: %v", err)
	}
	for i, addr := range accounts {
		after, _ := engine.GetStake(addr)
		delta := new(big.Int).Sub(after, before[i])
		if delta.Cmp(preview[i]) != 0 {
			t.Fatalf("account %d: preview %s but distribute applied %s", i, preview[i], delta)
		}
	}
}

func TestPreviewIsReadOnly(t *testing.T) {
	engine, state, emitter, now := newTestEngine(t)
	mustInitialize(t, engine, testAddr(0x01))
	seedPosition(state, testAddr(0x02), 10_000, *now)
	*now += year
	emitted := len(emitter.events)
	state.positionPuts = 0

	if _, err := engine.PreviewRewards([][20]byte{testAddr(0x02)}); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if state.positionPuts != 0 || len(emitter.events) != emitted {
		t.Fatalf("preview mutated state or emitted events")
	}
	if state.positions[testAddr(0x02)].StakedAt == *now {
		t.Fatalf("preview reset an accrual window")
	}
}
