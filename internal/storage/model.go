package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kjstillabower/bank-service/internal/models"
)

// SnapshotVersion is bumped whenever the on-disk layout changes.
const SnapshotVersion = 1

// Meta describes how and when a snapshot was written.
type Meta struct {
	Storage   string    `json:"storage"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// PersistAccount is an account reduced to plain data.
type PersistAccount struct {
	ID         uuid.UUID          `json:"id"`
	CustomerID uuid.UUID          `json:"customerId"`
	Type       models.AccountType `json:"type"`
	Balance    decimal.Decimal    `json:"balance"`
}

// Snapshot is the full ledger state. Customers and accounts keep creation order,
// transactions are newest first.
type Snapshot struct {
	Meta         Meta                 `json:"_meta"`
	Customers    []models.Customer    `json:"customers"`
	Accounts     []PersistAccount     `json:"accounts"`
	Transactions []models.Transaction `json:"transactions"`
}
