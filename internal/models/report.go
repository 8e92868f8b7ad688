package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerBalance is the summed balance of every account a customer owns.
type CustomerBalance struct {
	CustomerID uuid.UUID       `json:"customerId"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
}

// BankReport aggregates the whole bank at GeneratedAt.
type BankReport struct {
	TotalBalance           decimal.Decimal   `json:"totalBalance"`
	BalanceByCustomer      []CustomerBalance `json:"balanceByCustomer"`
	RecentTransactionCount int               `json:"recentTransactionCount"`
	TopAccountsByBalance   []AccountView     `json:"topAccountsByBalance"`
	GeneratedAt            time.Time         `json:"generatedAt"`
}
