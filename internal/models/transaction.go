package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTransfer   TransactionType = "TRANSFER"
	TransactionPayment    TransactionType = "PAYMENT"
)

// BusinessDateLayout is the format of Transaction.BusinessDate.
const BusinessDateLayout = "2006-01-02"

// Transaction is an immutable ledger entry. FromAccountID is nil for deposits,
// ToAccountID is nil for withdrawals and payments.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	BusinessDate  string          `json:"businessDate"`
	Type          TransactionType `json:"type"`
	FromAccountID *uuid.UUID      `json:"fromAccountId,omitempty"`
	ToAccountID   *uuid.UUID      `json:"toAccountId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

// NewTransaction builds a ledger entry with a fresh ID. The business date is the
// calendar date of ts in zone.
func NewTransaction(ts time.Time, zone *time.Location, txType TransactionType, from, to *uuid.UUID, amount decimal.Decimal, description string) (Transaction, error) {
	if ts.IsZero() {
		return Transaction{}, fmt.Errorf("%w: timestamp is required", ErrInvalidInput)
	}
	if txType == "" {
		return Transaction{}, fmt.Errorf("%w: transaction type is required", ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: transaction amount must be positive", ErrInvalidAmount)
	}
	if zone == nil {
		zone = time.UTC
	}
	return Transaction{
		ID:            uuid.New(),
		Timestamp:     ts,
		BusinessDate:  ts.In(zone).Format(BusinessDateLayout),
		Type:          txType,
		FromAccountID: from,
		ToAccountID:   to,
		Amount:        amount,
		Description:   description,
	}, nil
}

// Involves reports whether the transaction debits or credits accountID.
func (t Transaction) Involves(accountID uuid.UUID) bool {
	return (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
		(t.ToAccountID != nil && *t.ToAccountID == accountID)
}
