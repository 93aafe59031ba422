package state

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"stakevault/native/common"
	"stakevault/native/escrow"
	"stakevault/native/payments"
	"stakevault/native/staking"
	"stakevault/storage"
)

const (
	configKey       = "staking/config"
	positionKeyFmt  = "staking/position/%s"
	escrowKeyFmt    = "escrow/entry/%s/%020d"
	paymentKeyFmt   = "payments/schedule/%020d"
	paymentCountKey = "payments/count"
	balanceKeyFmt   = "balance/%s/%s"

	vaultSeedPrefix = "stakevault/vault/"
)

// Store is the concrete record layer shared by all engines. Every logical
// record family gets its own key prefix over the flat key-value substrate,
// and every persisted value is RLP encoded. One Store method maps to at most
// one substrate read or write, so the engines' I/O budgets carry through to
// the backing database unchanged.
type Store struct {
	db storage.Database
	mu sync.RWMutex
}

// NewStore wraps a key-value database in the ledger record layer.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

type storedConfig struct {
	Admin         [20]byte
	Token         string
	RewardRateBps uint64
	MinStake      *big.Int
}

type storedPosition struct {
	Balance  *big.Int
	StakedAt uint64
}

type storedEscrow struct {
	Depositor   [20]byte
	Beneficiary [20]byte
	Amount      *big.Int
	UnlockTime  uint64
}

type storedPayment struct {
	Sender        [20]byte
	Recipient     [20]byte
	Token         string
	Amount        *big.Int
	Interval      uint64
	NextExecution uint64
	Active        bool
}

func positionKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf(positionKeyFmt, hex.EncodeToString(addr[:])))
}

func escrowKey(depositor [20]byte, id uint64) []byte {
	return []byte(fmt.Sprintf(escrowKeyFmt, hex.EncodeToString(depositor[:]), id))
}

func paymentKey(id uint64) []byte {
	return []byte(fmt.Sprintf(paymentKeyFmt, id))
}

func balanceKey(addr [20]byte, token string) []byte {
	return []byte(fmt.Sprintf(balanceKeyFmt, hex.EncodeToString(addr[:]), token))
}

// --- Configuration singleton ---

// ConfigPut persists the ledger configuration.
func (s *Store) ConfigPut(cfg *staking.Config) error {
	sanitized, err := staking.SanitizeConfig(cfg)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(&storedConfig{
		Admin:         sanitized.Admin,
		Token:         sanitized.Token,
		RewardRateBps: sanitized.RewardRateBps,
		MinStake:      sanitized.MinStake,
	})
	if err != nil {
		return fmt.Errorf("state: encode config: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put([]byte(configKey), encoded)
}

// ConfigGet loads the ledger configuration if it has been initialised.
func (s *Store) ConfigGet() (*staking.Config, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := s.db.Get([]byte(configKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedConfig
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode config: %w", err)
	}
	return &staking.Config{
		Admin:         stored.Admin,
		Token:         stored.Token,
		RewardRateBps: stored.RewardRateBps,
		MinStake:      stored.MinStake,
	}, true, nil
}

// --- Stake positions ---

// PositionPut persists one account's stake position.
func (s *Store) PositionPut(addr [20]byte, pos *staking.Position) error {
	sanitized, err := staking.SanitizePosition(pos)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(&storedPosition{
		Balance:  sanitized.Balance,
		StakedAt: sanitized.StakedAt,
	})
	if err != nil {
		return fmt.Errorf("state: encode position: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put(positionKey(addr), encoded)
}

// PositionGet loads one account's stake position.
func (s *Store) PositionGet(addr [20]byte) (*staking.Position, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := s.db.Get(positionKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedPosition
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode position: %w", err)
	}
	return &staking.Position{Balance: stored.Balance, StakedAt: stored.StakedAt}, true, nil
}

// PositionRemove deletes a drained position, reclaiming its storage slot.
func (s *Store) PositionRemove(addr [20]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Delete(positionKey(addr))
}

// --- Escrow entries ---

// EscrowPut persists an escrow entry under (depositor, id).
func (s *Store) EscrowPut(entry *escrow.Entry, id uint64) error {
	sanitized, err := escrow.SanitizeEntry(entry)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(&storedEscrow{
		Depositor:   sanitized.Depositor,
		Beneficiary: sanitized.Beneficiary,
		Amount:      sanitized.Amount,
		UnlockTime:  sanitized.UnlockTime,
	})
	if err != nil {
		return fmt.Errorf("state: encode escrow: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put(escrowKey(sanitized.Depositor, id), encoded)
}

// EscrowGet loads the entry under (depositor, id).
func (s *Store) EscrowGet(depositor [20]byte, id uint64) (*escrow.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := s.db.Get(escrowKey(depositor, id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedEscrow
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode escrow: %w", err)
	}
	return &escrow.Entry{
		Depositor:   stored.Depositor,
		Beneficiary: stored.Beneficiary,
		Amount:      stored.Amount,
		UnlockTime:  stored.UnlockTime,
	}, true, nil
}

// EscrowHas reports whether an entry exists under (depositor, id).
func (s *Store) EscrowHas(depositor [20]byte, id uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Has(escrowKey(depositor, id))
}

// EscrowRemove deletes the entry under (depositor, id). Existence of the key
// is the "funds held" state, so removal is the release commit point.
func (s *Store) EscrowRemove(depositor [20]byte, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Delete(escrowKey(depositor, id))
}

// --- Recurring payments ---

// PaymentPut persists a schedule record under its id.
func (s *Store) PaymentPut(id uint64, payment *payments.RecurringPayment) error {
	if id == 0 {
		return common.Validationf("payment id must be positive")
	}
	clone := payment.Clone()
	if clone == nil {
		return common.Validationf("nil recurring payment")
	}
	encoded, err := rlp.EncodeToBytes(&storedPayment{
		Sender:        clone.Sender,
		Recipient:     clone.Recipient,
		Token:         clone.Token,
		Amount:        clone.Amount,
		Interval:      clone.Interval,
		NextExecution: clone.NextExecution,
		Active:        clone.Active,
	})
	if err != nil {
		return fmt.Errorf("state: encode payment: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put(paymentKey(id), encoded)
}

// PaymentGet loads the schedule record under id.
func (s *Store) PaymentGet(id uint64) (*payments.RecurringPayment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := s.db.Get(paymentKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedPayment
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode payment: %w", err)
	}
	return &payments.RecurringPayment{
		Sender:        stored.Sender,
		Recipient:     stored.Recipient,
		Token:         stored.Token,
		Amount:        stored.Amount,
		Interval:      stored.Interval,
		NextExecution: stored.NextExecution,
		Active:        stored.Active,
	}, true, nil
}

// PaymentCountGet returns the highest assigned payment id, zero before the
// first creation.
func (s *Store) PaymentCountGet() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := s.db.Get([]byte(paymentCountKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var count uint64
	if err := rlp.DecodeBytes(raw, &count); err != nil {
		return 0, fmt.Errorf("state: decode payment count: %w", err)
	}
	return count, nil
}

// PaymentCountPut persists the payment id counter.
func (s *Store) PaymentCountPut(count uint64) error {
	encoded, err := rlp.EncodeToBytes(count)
	if err != nil {
		return fmt.Errorf("state: encode payment count: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put([]byte(paymentCountKey), encoded)
}

// --- Token balances and transfers ---

// BalanceGet returns the token balance of an account, zero when no balance
// record exists.
func (s *Store) BalanceGet(addr [20]byte, token string) (*big.Int, error) {
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance(addr, normalized)
}

// BalancePut overwrites the token balance of an account. Intended for
// genesis seeding and tests; regular flows go through Transfer.
func (s *Store) BalancePut(addr [20]byte, token string, amount *big.Int) error {
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return common.Validationf("balance must be non-negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putBalance(addr, normalized, amount)
}

func (s *Store) balance(addr [20]byte, token string) (*big.Int, error) {
	raw, err := s.db.Get(balanceKey(addr, token))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	balance := new(big.Int)
	if err := rlp.DecodeBytes(raw, balance); err != nil {
		return nil, fmt.Errorf("state: decode balance: %w", err)
	}
	return balance, nil
}

func (s *Store) putBalance(addr [20]byte, token string, amount *big.Int) error {
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return fmt.Errorf("state: encode balance: %w", err)
	}
	return s.db.Put(balanceKey(addr, token), encoded)
}

// Transfer moves amount between two accounts atomically with respect to the
// operation in flight: the source is checked before either side is written,
// and an insufficient balance fails the call with no funds moved.
func (s *Store) Transfer(from, to [20]byte, token string, amount *big.Int) error {
	normalized, err := common.NormalizeToken(token)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return common.Validationf("transfer amount must be non-negative")
	}
	if from == to {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fromBalance, err := s.balance(from, normalized)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return common.Statef("insufficient %s balance: have %s, need %s", normalized, fromBalance, amount)
	}
	toBalance, err := s.balance(to, normalized)
	if err != nil {
		return err
	}
	if err := s.putBalance(from, normalized, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return s.putBalance(to, normalized, new(big.Int).Add(toBalance, amount))
}

// ModuleVault derives the deterministic custody address for a named module
// vault. The address is the trailing twenty bytes of the keccak256 hash of a
// fixed seed, matching how account addresses are derived elsewhere, so no
// key material ever exists for it.
func (s *Store) ModuleVault(name string) ([20]byte, error) {
	var addr [20]byte
	if name == "" {
		return addr, common.Validationf("vault name must not be empty")
	}
	digest := ethcrypto.Keccak256([]byte(vaultSeedPrefix + name))
	copy(addr[:], digest[12:])
	return addr, nil
}
