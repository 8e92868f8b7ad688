package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kjstillabower/bank-service/internal/models"
)

// PaymentService pays external parties out of an account.
type PaymentService struct {
	ledger Ledger
}

// NewPaymentService creates a PaymentService backed by ledger.
func NewPaymentService(ledger Ledger) *PaymentService {
	return &PaymentService{ledger: ledger}
}

// Pay debits amount from the account and records a PAYMENT with no destination.
func (s *PaymentService) Pay(ctx context.Context, fromAccountID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	start := time.Now()
	tx, err := debit(s.ledger, models.TransactionPayment, fromAccountID, amount, description)
	if err != nil {
		err = fmt.Errorf("payment: %w", err)
	}
	observe(ctx, opPayment, tx, err, start)
	return tx, err
}
