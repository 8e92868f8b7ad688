package repository

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kjstillabower/bank-service/internal/models"
	"github.com/kjstillabower/bank-service/internal/storage"
)

// BankRepository is the in-memory store for customers, accounts and the ledger.
// Account balances are guarded by each account's own lock; mu guards the maps,
// the creation-order indexes and the ledger.
type BankRepository struct {
	mu            sync.RWMutex
	customers     map[uuid.UUID]models.Customer
	customerOrder []uuid.UUID
	accounts      map[uuid.UUID]*models.Account
	accountOrder  []uuid.UUID
	transactions  []models.Transaction // oldest first; readers walk it backwards

	now  func() time.Time
	zone *time.Location
}

// New returns a repository using the UTC wall clock.
func New() *BankRepository {
	return NewWithClock(time.Now, time.UTC)
}

// NewWithClock returns a repository that stamps transactions with now() and
// derives business dates in zone. Nil arguments fall back to time.Now and UTC.
func NewWithClock(now func() time.Time, zone *time.Location) *BankRepository {
	if now == nil {
		now = time.Now
	}
	if zone == nil {
		zone = time.UTC
	}
	return &BankRepository{
		customers: make(map[uuid.UUID]models.Customer),
		accounts:  make(map[uuid.UUID]*models.Account),
		now:       now,
		zone:      zone,
	}
}

// Now returns the repository clock's current time.
func (r *BankRepository) Now() time.Time {
	return r.now()
}

// Zone returns the business time zone.
func (r *BankRepository) Zone() *time.Location {
	return r.zone
}

// AddCustomer registers a customer. Name and email must be non-blank.
func (r *BankRepository) AddCustomer(name, email string) (models.Customer, error) {
	if strings.TrimSpace(name) == "" {
		return models.Customer{}, fmt.Errorf("%w: customer name cannot be blank", models.ErrInvalidInput)
	}
	if strings.TrimSpace(email) == "" {
		return models.Customer{}, fmt.Errorf("%w: customer email cannot be blank", models.ErrInvalidInput)
	}
	c := models.Customer{ID: uuid.New(), Name: name, Email: email}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = c
	r.customerOrder = append(r.customerOrder, c.ID)
	return c, nil
}

// GetCustomer returns the customer with id.
func (r *BankRepository) GetCustomer(id uuid.UUID) (models.Customer, error) {
	if id == uuid.Nil {
		return models.Customer{}, fmt.Errorf("%w: customer ID cannot be empty", models.ErrInvalidInput)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[id]
	if !ok {
		return models.Customer{}, fmt.Errorf("%w: %s", models.ErrCustomerNotFound, id)
	}
	return c, nil
}

// AllCustomers returns every customer in creation order.
func (r *BankRepository) AllCustomers() []models.Customer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Customer, 0, len(r.customerOrder))
	for _, id := range r.customerOrder {
		out = append(out, r.customers[id])
	}
	return out
}

// AddAccount opens an account for an existing customer. A positive opening
// balance is recorded as an "Initial deposit" transaction.
func (r *BankRepository) AddAccount(customerID uuid.UUID, accountType models.AccountType, initialBalance decimal.Decimal) (*models.Account, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer ID cannot be empty", models.ErrInvalidInput)
	}
	if !accountType.Valid() {
		return nil, fmt.Errorf("%w: account type %q", models.ErrInvalidInput, accountType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[customerID]; !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrCustomerNotFound, customerID)
	}
	a, err := models.NewAccount(uuid.New(), customerID, accountType, initialBalance)
	if err != nil {
		return nil, err
	}
	if initialBalance.IsPositive() {
		tx, err := models.NewTransaction(r.now(), r.zone, models.TransactionDeposit, nil, &a.ID, initialBalance, "Initial deposit")
		if err != nil {
			return nil, err
		}
		r.transactions = append(r.transactions, tx)
	}
	r.accounts[a.ID] = a
	r.accountOrder = append(r.accountOrder, a.ID)
	return a, nil
}

// GetAccount returns the live account with id. Callers must lock it before
// changing its balance.
func (r *BankRepository) GetAccount(id uuid.UUID) (*models.Account, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: account ID cannot be empty", models.ErrInvalidInput)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, id)
	}
	return a, nil
}

// AllAccounts returns every account in creation order.
func (r *BankRepository) AllAccounts() []*models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Account, 0, len(r.accountOrder))
	for _, id := range r.accountOrder {
		out = append(out, r.accounts[id])
	}
	return out
}

// AccountsByCustomer returns the accounts owned by customerID in creation order.
func (r *BankRepository) AccountsByCustomer(customerID uuid.UUID) ([]*models.Account, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer ID cannot be empty", models.ErrInvalidInput)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Account
	for _, id := range r.accountOrder {
		if a := r.accounts[id]; a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

// AddTransaction records tx as the newest ledger entry.
func (r *BankRepository) AddTransaction(tx models.Transaction) error {
	if tx.ID == uuid.Nil {
		return fmt.Errorf("%w: transaction cannot be empty", models.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, tx)
	return nil
}

// newestFirstLocked returns up to limit ledger entries matching keep, newest
// first. A limit <= 0 means no limit.
func (r *BankRepository) newestFirstLocked(limit int, keep func(models.Transaction) bool) []models.Transaction {
	var out []models.Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep == nil || keep(r.transactions[i]) {
			out = append(out, r.transactions[i])
		}
	}
	return out
}

// RecentTransactions returns up to n of the newest transactions.
func (r *BankRepository) RecentTransactions(n int) ([]models.Transaction, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: number of transactions must be positive", models.ErrInvalidInput)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newestFirstLocked(n, nil), nil
}

// TransactionsSince returns transactions stamped strictly after since, newest first.
func (r *BankRepository) TransactionsSince(since time.Time) ([]models.Transaction, error) {
	if since.IsZero() {
		return nil, fmt.Errorf("%w: since timestamp cannot be empty", models.ErrInvalidInput)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newestFirstLocked(0, func(tx models.Transaction) bool {
		return tx.Timestamp.After(since)
	}), nil
}

// AllTransactions returns a copy of the ledger, newest first.
func (r *BankRepository) AllTransactions() []models.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.newestFirstLocked(0, nil)
	if out == nil {
		out = []models.Transaction{}
	}
	return out
}

// TransactionsByAccount returns transactions debiting or crediting accountID, newest first.
func (r *BankRepository) TransactionsByAccount(accountID uuid.UUID) ([]models.Transaction, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("%w: account ID cannot be empty", models.ErrInvalidInput)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newestFirstLocked(0, func(tx models.Transaction) bool {
		return tx.Involves(accountID)
	}), nil
}

// Snapshot exports the full state. Account locks are taken after mu is released
// because services hold an account lock while appending to the ledger; a
// snapshot taken while transfers run may therefore split a transfer, so take it
// when the bank is quiet (startup, shutdown).
func (r *BankRepository) Snapshot() storage.Snapshot {
	r.mu.RLock()
	snap := storage.Snapshot{
		Customers:    make([]models.Customer, 0, len(r.customerOrder)),
		Accounts:     make([]storage.PersistAccount, 0, len(r.accountOrder)),
	}
	for _, id := range r.customerOrder {
		snap.Customers = append(snap.Customers, r.customers[id])
	}
	accounts := make([]*models.Account, 0, len(r.accountOrder))
	for _, id := range r.accountOrder {
		accounts = append(accounts, r.accounts[id])
	}
	snap.Transactions = r.newestFirstLocked(0, nil)
	r.mu.RUnlock()
	if snap.Transactions == nil {
		snap.Transactions = []models.Transaction{}
	}

	for _, a := range accounts {
		v := a.View()
		snap.Accounts = append(snap.Accounts, storage.PersistAccount{
			ID: v.ID, CustomerID: v.CustomerID, Type: v.Type, Balance: v.Balance,
		})
	}
	return snap
}

// Restore replaces all state with snap. The snapshot must be self-consistent:
// unique customer and account IDs, accounts owned by known customers, and
// transactions with an ID, a timestamp, a positive amount and known accounts.
// On any violation nothing is replaced.
func (r *BankRepository) Restore(snap storage.Snapshot) error {
	customers := make(map[uuid.UUID]models.Customer, len(snap.Customers))
	customerOrder := make([]uuid.UUID, 0, len(snap.Customers))
	for _, c := range snap.Customers {
		if c.ID == uuid.Nil {
			return fmt.Errorf("restore customer: %w: customer ID cannot be empty", models.ErrInvalidInput)
		}
		if _, dup := customers[c.ID]; dup {
			return fmt.Errorf("restore customer %s: %w: duplicate ID", c.ID, models.ErrInvalidInput)
		}
		customers[c.ID] = c
		customerOrder = append(customerOrder, c.ID)
	}

	accounts := make(map[uuid.UUID]*models.Account, len(snap.Accounts))
	accountOrder := make([]uuid.UUID, 0, len(snap.Accounts))
	for _, pa := range snap.Accounts {
		if _, dup := accounts[pa.ID]; dup {
			return fmt.Errorf("restore account %s: %w: duplicate ID", pa.ID, models.ErrInvalidInput)
		}
		if _, ok := customers[pa.CustomerID]; !ok {
			return fmt.Errorf("restore account %s: %w: %s", pa.ID, models.ErrCustomerNotFound, pa.CustomerID)
		}
		a, err := models.NewAccount(pa.ID, pa.CustomerID, pa.Type, pa.Balance)
		if err != nil {
			return fmt.Errorf("restore account %s: %w", pa.ID, err)
		}
		accounts[a.ID] = a
		accountOrder = append(accountOrder, a.ID)
	}

	// Snapshots list transactions newest first; the ledger stores them oldest first.
	txs := make([]models.Transaction, len(snap.Transactions))
	seen := make(map[uuid.UUID]struct{}, len(snap.Transactions))
	for i, tx := range snap.Transactions {
		if err := checkRestoredTransaction(tx, accounts, seen); err != nil {
			return fmt.Errorf("restore transaction %d: %w", i, err)
		}
		seen[tx.ID] = struct{}{}
		txs[len(txs)-1-i] = tx
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers = customers
	r.customerOrder = customerOrder
	r.accounts = accounts
	r.accountOrder = accountOrder
	r.transactions = txs
	return nil
}

func checkRestoredTransaction(tx models.Transaction, accounts map[uuid.UUID]*models.Account, seen map[uuid.UUID]struct{}) error {
	switch {
	case tx.ID == uuid.Nil:
		return fmt.Errorf("%w: transaction ID cannot be empty", models.ErrInvalidInput)
	case tx.Timestamp.IsZero():
		return fmt.Errorf("%w: transaction %s has no timestamp", models.ErrInvalidInput, tx.ID)
	case !tx.Amount.IsPositive():
		return fmt.Errorf("%w: transaction %s amount must be positive", models.ErrInvalidInput, tx.ID)
	case tx.FromAccountID == nil && tx.ToAccountID == nil:
		return fmt.Errorf("%w: transaction %s references no account", models.ErrInvalidInput, tx.ID)
	}
	if _, dup := seen[tx.ID]; dup {
		return fmt.Errorf("%w: duplicate transaction %s", models.ErrInvalidInput, tx.ID)
	}
	for _, id := range []*uuid.UUID{tx.FromAccountID, tx.ToAccountID} {
		if id == nil {
			continue
		}
		if _, ok := accounts[*id]; !ok {
			return fmt.Errorf("%w: transaction %s references unknown account %s", models.ErrInvalidInput, tx.ID, *id)
		}
	}
	return nil
}
