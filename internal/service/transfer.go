package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kjstillabower/bank-service/internal/models"
)

// TransferService moves money between two accounts of the bank.
type TransferService struct {
	ledger Ledger
}

// NewTransferService creates a TransferService backed by ledger.
func NewTransferService(ledger Ledger) *TransferService {
	return &TransferService{ledger: ledger}
}

// Transfer moves amount from one account to another and records a single
// TRANSFER. Both accounts are locked in ascending ID order.
func (s *TransferService) Transfer(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	start := time.Now()
	tx, err := s.transfer(fromAccountID, toAccountID, amount, description)
	if err != nil {
		err = fmt.Errorf("transfer: %w", err)
	}
	observe(ctx, opTransfer, tx, err, start)
	return tx, err
}

func (s *TransferService) transfer(fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	if fromAccountID == uuid.Nil || toAccountID == uuid.Nil {
		return models.Transaction{}, fmt.Errorf("%w: account IDs cannot be empty", models.ErrInvalidInput)
	}
	if fromAccountID == toAccountID {
		return models.Transaction{}, models.ErrSameAccount
	}
	if !amount.IsPositive() {
		return models.Transaction{}, models.ErrInvalidAmount
	}
	from, err := s.ledger.GetAccount(fromAccountID)
	if err != nil {
		return models.Transaction{}, err
	}
	to, err := s.ledger.GetAccount(toAccountID)
	if err != nil {
		return models.Transaction{}, err
	}
	tx, err := newTransaction(s.ledger, models.TransactionTransfer, &from.ID, &to.ID, amount, description)
	if err != nil {
		return models.Transaction{}, err
	}

	unlock := models.LockPair(from, to)
	defer unlock()
	if err := from.Withdraw(amount); err != nil {
		return models.Transaction{}, err
	}
	if err := to.Deposit(amount); err != nil {
		_ = from.Deposit(amount)
		return models.Transaction{}, err
	}
	if err := s.ledger.AddTransaction(tx); err != nil {
		_ = to.Withdraw(amount)
		_ = from.Deposit(amount)
		return models.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	return tx, nil
}
