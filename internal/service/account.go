package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kjstillabower/bank-service/internal/models"
	"github.com/kjstillabower/bank-service/internal/observability"
)

// AccountService opens accounts and moves money in and out of a single account.
type AccountService struct {
	ledger Ledger
}

// NewAccountService creates an AccountService backed by ledger.
func NewAccountService(ledger Ledger) *AccountService {
	return &AccountService{ledger: ledger}
}

// CreateAccount opens an account for an existing customer.
func (s *AccountService) CreateAccount(ctx context.Context, customerID uuid.UUID, accountType models.AccountType, initialBalance decimal.Decimal) (*models.Account, error) {
	if _, err := s.ledger.GetCustomer(customerID); err != nil {
		observability.RecordOperation(opCreateAccount, resultLabel(err))
		return nil, fmt.Errorf("create account: %w", err)
	}
	a, err := s.ledger.AddAccount(customerID, accountType, initialBalance)
	observability.RecordOperation(opCreateAccount, resultLabel(err))
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if initialBalance.IsPositive() {
		observability.RecordAmount(string(models.TransactionDeposit), initialBalance)
	}
	observability.LoggerFromContext(ctx).Debug("account opened",
		zap.String("account_id", a.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("type", string(accountType)),
	)
	return a, nil
}

// Deposit credits amount to the account and records a DEPOSIT.
func (s *AccountService) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	start := time.Now()
	tx, err := s.deposit(accountID, amount, description)
	observe(ctx, opDeposit, tx, err, start)
	return tx, err
}

func (s *AccountService) deposit(accountID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	if !amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("deposit: %w", models.ErrInvalidAmount)
	}
	a, err := s.ledger.GetAccount(accountID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("deposit: %w", err)
	}
	tx, err := newTransaction(s.ledger, models.TransactionDeposit, nil, &a.ID, amount, description)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("deposit: %w", err)
	}

	a.Lock()
	defer a.Unlock()
	if err := a.Deposit(amount); err != nil {
		return models.Transaction{}, fmt.Errorf("deposit: %w", err)
	}
	if err := s.ledger.AddTransaction(tx); err != nil {
		_ = a.Withdraw(amount)
		return models.Transaction{}, fmt.Errorf("deposit: record transaction: %w", err)
	}
	return tx, nil
}

// Withdraw debits amount from the account and records a WITHDRAWAL. The
// balance never goes below zero.
func (s *AccountService) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	start := time.Now()
	tx, err := debit(s.ledger, models.TransactionWithdrawal, accountID, amount, description)
	if err != nil {
		err = fmt.Errorf("withdraw: %w", err)
	}
	observe(ctx, opWithdraw, tx, err, start)
	return tx, err
}

// debit removes amount from a single account and records txType with the
// account as source.
func debit(l Ledger, txType models.TransactionType, accountID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	if accountID == uuid.Nil {
		return models.Transaction{}, fmt.Errorf("%w: account ID cannot be empty", models.ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return models.Transaction{}, models.ErrInvalidAmount
	}
	a, err := l.GetAccount(accountID)
	if err != nil {
		return models.Transaction{}, err
	}
	tx, err := newTransaction(l, txType, &a.ID, nil, amount, description)
	if err != nil {
		return models.Transaction{}, err
	}

	a.Lock()
	defer a.Unlock()
	if err := a.Withdraw(amount); err != nil {
		return models.Transaction{}, err
	}
	if err := l.AddTransaction(tx); err != nil {
		_ = a.Deposit(amount)
		return models.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	return tx, nil
}
