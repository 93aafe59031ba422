package escrow

import (
	"errors"
	"math/big"
	"time"

	"stakevault/core/events"
	"stakevault/native/common"
	"stakevault/native/staking"
	"stakevault/observability/metrics"
)

// VaultName identifies the custody account holding all locked escrow funds.
const VaultName = "escrow"

var (
	errNilState = errors.New("escrow engine: state not configured")
	errNilAuth  = errors.New("escrow engine: authorizer not configured")
)

type engineState interface {
	ConfigGet() (*staking.Config, bool, error)
	EscrowPut(entry *Entry, id uint64) error
	EscrowGet(depositor [20]byte, id uint64) (*Entry, bool, error)
	EscrowHas(depositor [20]byte, id uint64) (bool, error)
	EscrowRemove(depositor [20]byte, id uint64) error
	ModuleVault(name string) ([20]byte, error)
	Transfer(from, to [20]byte, token string, amount *big.Int) error
}

type validatedEvent interface {
	events.Event
	Validate() error
}

// Engine drives the per-entry state machine: absent, then locked, then
// absent again. Each entry is created by Lock, held in the escrow vault, and
// destroyed by Release once its unlock time has passed.
type Engine struct {
	state   engineState
	auth    common.Authorizer
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine creates an escrow engine with a no-op emitter. Callers override
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

// SetNowFunc overrides the time source. Primarily intended for tests.
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

func (e *Engine) config() (*staking.Config, error) {
	cfg, ok, err := e.state.ConfigGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Statef("escrow: ledger not initialised")
	}
	return cfg, nil
}

// Lock places amount into escrow custody until unlockTime. The id is chosen
// by the depositor; reusing an id with a live entry is rejected, never
// silently overwritten.
func (e *Engine) Lock(depositor, beneficiary [20]byte, amount *big.Int, unlockTime uint64, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.auth == nil {
		return errNilAuth
	}
	if err := e.auth.RequireAuth(depositor); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return common.Validationf("escrow amount must be positive")
	}
	now := e.now()
	if unlockTime <= now {
		return common.Validationf("unlock time must be in the future")
	}
	exists, err := e.state.EscrowHas(depositor, id)
	if err != nil {
		return err
	}
	if exists {
		return common.Validationf("escrow id %d already in use", id)
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	entry := &Entry{
		Depositor:   depositor,
		Beneficiary: beneficiary,
		Amount:      new(big.Int).Set(amount),
		UnlockTime:  unlockTime,
	}
	evt := events.EscrowLocked{
		Depositor:   depositor,
		Beneficiary: beneficiary,
		Amount:      entry.Amount,
		UnlockTime:  unlockTime,
		Timestamp:   now,
	}
	if err := e.checkEvent(evt); err != nil {
		return err
	}
	vault, err := e.state.ModuleVault(VaultName)
	if err != nil {
		return err
	}
	if err := e.state.Transfer(depositor, vault, cfg.Token, entry.Amount); err != nil {
		return err
	}
	if err := e.state.EscrowPut(entry, id); err != nil {
		return err
	}
	e.emit(evt)
	metrics.Ledger().ObserveEscrowOp("lock")
	return nil
}

// Release pays the escrowed amount to the beneficiary recorded at lock time.
// No authorization is required: the funds can only ever reach that
// beneficiary, so anyone may trigger the payout once the unlock time has
// passed. The record is removed before the outward transfer.
func (e *Engine) Release(depositor [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	entry, ok, err := e.state.EscrowGet(depositor, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.Statef("escrow entry not found")
	}
	now := e.now()
	if now < entry.UnlockTime {
		return common.Statef("escrow still locked until %d", entry.UnlockTime)
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	evt := events.EscrowReleased{
		Beneficiary: entry.Beneficiary,
		Amount:      entry.Amount,
		Timestamp:   now,
	}
	if err := e.checkEvent(evt); err != nil {
		return err
	}
	vault, err := e.state.ModuleVault(VaultName)
	if err != nil {
		return err
	}
	if err := e.state.EscrowRemove(depositor, id); err != nil {
		return err
	}
	if err := e.state.Transfer(vault, entry.Beneficiary, cfg.Token, entry.Amount); err != nil {
		return err
	}
	e.emit(evt)
	metrics.Ledger().ObserveEscrowOp("release")
	return nil
}

// GetEscrow returns a copy of the entry under (depositor, id), or ok=false
// when no entry exists. Never mutates.
func (e *Engine) GetEscrow(depositor [20]byte, id uint64) (*Entry, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	entry, ok, err := e.state.EscrowGet(depositor, id)
	if err != nil || !ok {
		return nil, false, err
	}
	return entry.Clone(), true, nil
}
