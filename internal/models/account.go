package models

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType is the product an account is opened as.
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
)

// AccountTypes lists every account type in menu order.
func AccountTypes() []AccountType {
	return []AccountType{AccountTypeChecking, AccountTypeSavings}
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings:
		return true
	}
	return false
}

// ParseAccountType accepts a case-insensitive account type name.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, s)
	}
	return t, nil
}

// Account holds a balance guarded by its own mutex. Deposit and Withdraw must be
// called with the lock held; Balance and View take the read lock themselves.
type Account struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Type       AccountType

	mu      sync.RWMutex
	balance decimal.Decimal
}

// AccountView is a point-in-time copy of an account, safe to encode and share.
type AccountView struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customerId"`
	Type       AccountType     `json:"type"`
	Balance    decimal.Decimal `json:"balance"`
}

// NewAccount returns an account with the given opening balance. A negative
// opening balance is rejected; zero is allowed.
func NewAccount(id, customerID uuid.UUID, accountType AccountType, initialBalance decimal.Decimal) (*Account, error) {
	if id == uuid.Nil || customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: account and customer ID are required", ErrInvalidInput)
	}
	if !accountType.Valid() {
		return nil, fmt.Errorf("%w: account type is required", ErrInvalidInput)
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance cannot be negative", ErrInvalidAmount)
	}
	return &Account{
		ID:         id,
		CustomerID: customerID,
		Type:       accountType,
		balance:    initialBalance,
	}, nil
}

// Lock acquires the account for a balance change.
func (a *Account) Lock() { a.mu.Lock() }

// Unlock releases the account.
func (a *Account) Unlock() { a.mu.Unlock() }

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balance
}

// View returns a snapshot of the account.
func (a *Account) View() AccountView {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return AccountView{ID: a.ID, CustomerID: a.CustomerID, Type: a.Type, Balance: a.balance}
}

// Deposit adds amount to the balance. Caller must hold the lock.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	a.balance = a.balance.Add(amount)
	return nil
}

// Withdraw removes amount from the balance, never letting it go negative.
// Caller must hold the lock.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if a.balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.balance = a.balance.Sub(amount)
	return nil
}

// LockPair locks two distinct accounts in ascending ID order so that concurrent
// transfers in opposite directions cannot deadlock. The returned func unlocks both.
func LockPair(a, b *Account) (unlock func()) {
	first, second := a, b
	if bytes.Compare(b.ID[:], a.ID[:]) < 0 {
		first, second = b, a
	}
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}
