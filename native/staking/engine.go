package staking

import (
	"errors"
	"math/big"
	"time"

	"stakevault/core/events"
	"stakevault/native/common"
	"stakevault/observability/metrics"
)

// VaultName identifies the custody account holding all staked principal.
const VaultName = "staking"

var (
	errNilState = errors.New("staking engine: state not configured")
	errNilAuth  = errors.New("staking engine: authorizer not configured")
)

type engineState interface {
	ConfigPut(cfg *Config) error
	ConfigGet() (*Config, bool, error)
	PositionPut(addr [20]byte, pos *Position) error
	PositionGet(addr [20]byte) (*Position, bool, error)
	PositionRemove(addr [20]byte) error
	ModuleVault(name string) ([20]byte, error)
	Transfer(from, to [20]byte, token string, amount *big.Int) error
}

type validatedEvent interface {
	events.Event
	Validate() error
}

// Engine implements single-account settlement: stake, unstake and the
// one-shot configuration entry point. State access, authorization, token
// movement and the clock are injected so the engine stays a pure state
// machine over its records.
type Engine struct {
	state   engineState
	auth    common.Authorizer
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine creates a staking engine with a no-op emitter. Callers override
// collaborators via the SetX methods before first use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the record store backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAuthorizer configures the proof-of-authority oracle.
func (e *Engine) SetAuthorizer(auth common.Authorizer) { e.auth = auth }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests to
// provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.auth == nil {
		return errNilAuth
	}
	return nil
}

// checkEvent guards a notification against its own invariants immediately
// before publication. The engines validate all caller input up front, so a
// failure here means a computed amount is provably inconsistent and the
// whole operation must abort unemitted.
func (e *Engine) checkEvent(evt validatedEvent) error {
	if err := evt.Validate(); err != nil {
		return common.Arithmeticf("inconsistent %s notification: %v", evt.EventType(), err)
	}
	return nil
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) config() (*Config, error) {
	cfg, ok, err := e.state.ConfigGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Statef("staking: not initialised")
	}
	return cfg, nil
}

// Initialize establishes the ledger configuration exactly once. A second
// call fails regardless of the supplied parameters.
func (e *Engine) Initialize(admin [20]byte, token string, rewardRateBps uint64, minStake *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.auth.RequireAuth(admin); err != nil {
		return err
	}
	cfg, err := SanitizeConfig(&Config{
		Admin:         admin,
		Token:         token,
		RewardRateBps: rewardRateBps,
		MinStake:      minStake,
	})
	if err != nil {
		return err
	}
	if _, ok, err := e.state.ConfigGet(); err != nil {
		return err
	} else if ok {
		return common.Statef("staking: already initialised")
	}
	now := e.now()
	evt := events.Initialized{
		Admin:         cfg.Admin,
		Token:         cfg.Token,
		RewardRateBps: cfg.RewardRateBps,
		MinStake:      cfg.MinStake,
		Timestamp:     now,
	}
	if err := e.checkEvent(evt); err != nil {
		return err
	}
	if err := e.state.ConfigPut(cfg); err != nil {
		return err
	}
	e.emit(evt)
	metrics.Ledger().ObserveStakingOp("initialize")
	return nil
}

// GetConfig returns a copy of the ledger configuration.
func (e *Engine) GetConfig() (*Config, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.config()
}

// Stake deposits amount into the caller's position. Reward accrued since the
// previous mutation is folded into the balance before the deposit is added,
// and the accrual window restarts at now. One record read, one record write.
func (e *Engine) Stake(staker [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.auth.RequireAuth(staker); err != nil {
		return err
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return common.Validationf("stake amount must be positive")
	}
	if amount.Cmp(cfg.MinStake) < 0 {
		return common.Validationf("stake amount below minimum of %s", cfg.MinStake)
	}
	now := e.now()
	pos, ok, err := e.state.PositionGet(staker)
	if err != nil {
		return err
	}
	if !ok {
		pos = &Position{Balance: big.NewInt(0), StakedAt: now}
	}
	reward, err := ComputeReward(pos.Balance, pos.StakedAt, now, cfg.RewardRateBps)
	if err != nil {
		return err
	}
	total := new(big.Int).Add(pos.Balance, reward)
	total.Add(total, amount)
	evt := events.Staked{Staker: staker, Amount: amount, Total: total, Timestamp: now}
	if err := e.checkEvent(evt); err != nil {
		return err
	}
	vault, err := e.state.ModuleVault(VaultName)
	if err != nil {
		return err
	}
	if err := e.state.Transfer(staker, vault, cfg.Token, amount); err != nil {
		return err
	}
	if err := e.state.PositionPut(staker, &Position{Balance: total, StakedAt: now}); err != nil {
		return err
	}
	e.emit(evt)
	metrics.Ledger().ObserveStakingOp("stake")
	return nil
}

// Unstake withdraws amount of principal and pays the reward accrued over the
// current window alongside it. The remaining balance restarts its accrual
// window at now; a position drained to zero is removed from storage rather
// than persisted empty.
func (e *Engine) Unstake(staker [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.auth.RequireAuth(staker); err != nil {
		return err
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return common.Validationf("unstake amount must be positive")
	}
	pos, ok, err := e.state.PositionGet(staker)
	if err != nil {
		return err
	}
	if !ok {
		return common.Statef("staking: no stake position for account")
	}
	now := e.now()
	reward, err := ComputeReward(pos.Balance, pos.StakedAt, now, cfg.RewardRateBps)
	if err != nil {
		return err
	}
	if amount.Cmp(pos.Balance) > 0 {
		return common.Validationf("unstake amount exceeds staked balance of %s", pos.Balance)
	}
	remaining := new(big.Int).Sub(pos.Balance, amount)
	payout := new(big.Int).Add(amount, reward)
	evt := events.Unstaked{Staker: staker, Amount: amount, Reward: reward, Remaining: remaining, Timestamp: now}
	if err := e.checkEvent(evt); err != nil {
		return err
	}
	vault, err := e.state.ModuleVault(VaultName)
	if err != nil {
		return err
	}
	if err := e.state.Transfer(vault, staker, cfg.Token, payout); err != nil {
		return err
	}
	if remaining.Sign() == 0 {
		if err := e.state.PositionRemove(staker); err != nil {
			return err
		}
	} else {
		if err := e.state.PositionPut(staker, &Position{Balance: remaining, StakedAt: now}); err != nil {
			return err
		}
	}
	e.emit(evt)
	metrics.Ledger().ObserveStakingOp("unstake")
	return nil
}

// GetStake returns the recorded balance for an account without computing any
// reward. Absent positions read as zero.
func (e *Engine) GetStake(staker [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pos, ok, err := e.state.PositionGet(staker)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(pos.Balance), nil
}
