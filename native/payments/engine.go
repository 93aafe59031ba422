package payments

import (
	"errors"
	"math/big"
	"time"

	"stakevault/core/events"
	"stakevault/native/common"
	"stakevault/observability/metrics"
)

var (
	errNilState = errors.New("payments engine: state not configured")
	errNilAuth  = errors.New("payments engine: authorizer not configured")
)

type engineState interface {
	PaymentPut(id uint64, payment *RecurringPayment) error
	PaymentGet(id uint64) (*RecurringPayment, bool, error)
	PaymentCountGet() (uint64, error)
	PaymentCountPut(count uint64) error
	Transfer(from, to [20]byte, token string, amount *big.Int) error
}

type validatedEvent interface {
	events.Event
	Validate() error
}

// Engine drives the per-id schedule state machine: active schedules execute
// any time at or after their due time, advance past every missed interval in
// one jump, and can be cancelled by their sender exactly once.
type Engine struct {
	state   engineState
	auth    common.Authorizer
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine creates a payments engine with a no-op emitter. Callers override
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

// CreatePayment registers a new schedule and returns its id. Ids are
// assigned from a process-wide counter that increments by exactly one per
// creation, so they are dense and monotonic.
func (e *Engine) CreatePayment(sender, recipient [20]byte, token string, amount *big.Int, interval uint64, startTime uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.auth == nil {
		return 0, errNilAuth
	}
	if err := e.auth.RequireAuth(sender); err != nil {
		return 0, err
	}
	payment, err := SanitizePayment(&RecurringPayment{
		Sender:        sender,
		Recipient:     recipient,
		Token:         token,
		Amount:        amount,
		Interval:      interval,
		NextExecution: startTime,
		Active:        true,
	})
	if err != nil {
		return 0, err
	}
	count, err := e.state.PaymentCountGet()
	if err != nil {
		return 0, err
	}
	id := count + 1
	evt := events.PaymentCreated{
		PaymentID:     id,
		Sender:        payment.Sender,
		Recipient:     payment.Recipient,
		Token:         payment.Token,
		Amount:        payment.Amount,
		Interval:      payment.Interval,
		NextExecution: payment.NextExecution,
		Timestamp:     e.now(),
	}
	if err := e.checkEvent(evt); err != nil {
		return 0, err
	}
	if err := e.state.PaymentPut(id, payment); err != nil {
		return 0, err
	}
	if err := e.state.PaymentCountPut(id); err != nil {
		return 0, err
	}
	e.emit(evt)
	metrics.Ledger().ObservePaymentOp("create")
	return id, nil
}

// ExecutePayment performs one scheduled transfer and advances the due time
// with catch-up arithmetic: all intervals already elapsed collapse into a
// single jump, so the new due time lands strictly in the future no matter
// how late the trigger arrives, and exactly one transfer moves funds
// regardless of how many intervals were skipped.
func (e *Engine) ExecutePayment(id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	payment, ok, err := e.state.PaymentGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return common.Statef("payment %d not found", id)
	}
	if !payment.Active {
		return common.Statef("payment %d is not active", id)
	}
	now := e.now()
	if now < payment.NextExecution {
		return common.Statef("payment %d not due until %d", id, payment.NextExecution)
	}

	intervalsElapsed := (now - payment.NextExecution) / payment.Interval
	next := payment.NextExecution + (intervalsElapsed+1)*payment.Interval
	evt := events.PaymentExecuted{
		PaymentID:     id,
		Amount:        payment.Amount,
		NextExecution: next,
		Timestamp:     now,
	}
	if err := e.checkEvent(evt); err != nil {
		return err
	}
	if err := e.state.Transfer(payment.Sender, payment.Recipient, payment.Token, payment.Amount); err != nil {
		return err
	}
	payment.NextExecution = next
	if err := e.state.PaymentPut(id, payment); err != nil {
		return err
	}
	e.emit(evt)
	metrics.Ledger().ObservePaymentOp("execute")
	return nil
}

// CancelPayment deactivates a schedule permanently. Only the recorded sender
// may cancel, and cancelling an already cancelled schedule fails.
func (e *Engine) CancelPayment(id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.auth == nil {
		return errNilAuth
	}
	payment, ok, err := e.state.PaymentGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return common.Statef("payment %d not found", id)
	}
	if err := e.auth.RequireAuth(payment.Sender); err != nil {
		return err
	}
	if !payment.Active {
		return common.Statef("payment %d is already canceled", id)
	}
	evt := events.PaymentCanceled{PaymentID: id, Sender: payment.Sender, Timestamp: e.now()}
	if err := e.checkEvent(evt); err != nil {
		return err
	}
	payment.Active = false
	if err := e.state.PaymentPut(id, payment); err != nil {
		return err
	}
	e.emit(evt)
	metrics.Ledger().ObservePaymentOp("cancel")
	return nil
}

// GetPayment returns a copy of the schedule record, or ok=false when the id
// was never assigned. Never mutates.
func (e *Engine) GetPayment(id uint64) (*RecurringPayment, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	payment, ok, err := e.state.PaymentGet(id)
	if err != nil || !ok {
		return nil, false, err
	}
	return payment.Clone(), true, nil
}
