package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kjstillabower/bank-service/internal/models"
	"github.com/kjstillabower/bank-service/internal/observability"
)

// Ledger is the storage the services operate on. *repository.BankRepository
// satisfies it.
type Ledger interface {
	Now() time.Time
	Zone() *time.Location
	GetCustomer(id uuid.UUID) (models.Customer, error)
	AddAccount(customerID uuid.UUID, accountType models.AccountType, initialBalance decimal.Decimal) (*models.Account, error)
	GetAccount(id uuid.UUID) (*models.Account, error)
	AllAccounts() []*models.Account
	AddTransaction(tx models.Transaction) error
	TransactionsSince(since time.Time) ([]models.Transaction, error)
}

// Operation names used for metrics and logs.
const (
	opCreateAccount = "create_account"
	opDeposit       = "deposit"
	opWithdraw      = "withdraw"
	opTransfer      = "transfer"
	opPayment       = "payment"
)

// resultLabel maps an operation error to a stable metric label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, models.ErrAccountNotFound), errors.Is(err, models.ErrCustomerNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrSameAccount):
		return "invalid"
	default:
		return "error"
	}
}

// observe records the outcome of a ledger operation in metrics and the
// request logger.
func observe(ctx context.Context, op string, tx models.Transaction, err error, start time.Time) {
	logger := observability.LoggerFromContext(ctx)
	result := resultLabel(err)
	observability.RecordOperation(op, result)
	if err != nil {
		logger.Debug("ledger operation rejected",
			zap.String("operation", op),
			zap.String("result", result),
			zap.Error(err),
		)
		return
	}
	observability.RecordAmount(string(tx.Type), tx.Amount)
	logger.Debug("ledger operation applied",
		zap.String("operation", op),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("amount", tx.Amount.String()),
		zap.Duration("duration", time.Since(start)),
	)
}

func newTransaction(l Ledger, txType models.TransactionType, from, to *uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	return models.NewTransaction(l.Now(), l.Zone(), txType, from, to, amount, description)
}

// Bank groups the services that operate on one ledger.
type Bank struct {
	Accounts  *AccountService
	Transfers *TransferService
	Payments  *PaymentService
	Reports   *ReportService
}

// NewBank builds every service over ledger. reportTimeout bounds how long a
// caller waits for a report.
func NewBank(ledger Ledger, reportTimeout time.Duration) Bank {
	return Bank{
		Accounts:  NewAccountService(ledger),
		Transfers: NewTransferService(ledger),
		Payments:  NewPaymentService(ledger),
		Reports:   NewReportService(ledger, reportTimeout),
	}
}
