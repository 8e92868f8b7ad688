package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjstillabower/bank-service/internal/models"
	"github.com/kjstillabower/bank-service/internal/repository"
)

var fixedNow = time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)

// fixture is a bank with two customers and a clock fixed at fixedNow.
type fixture struct {
	repo      *repository.BankRepository
	accounts  *AccountService
	transfers *TransferService
	payments  *PaymentService
	reports   *ReportService
	alice     models.Customer
	bob       models.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	zone, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	repo := repository.NewWithClock(func() time.Time { return fixedNow }, zone)
	f := &fixture{
		repo:      repo,
		accounts:  NewAccountService(repo),
		transfers: NewTransferService(repo),
		payments:  NewPaymentService(repo),
		reports:   NewReportService(repo, time.Second),
	}
	if f.alice, err = repo.AddCustomer("Alice", "alice@email.com"); err != nil {
		t.Fatalf("AddCustomer(Alice) error = %v", err)
	}
	if f.bob, err = repo.AddCustomer("Bob", "bob@email.com"); err != nil {
		t.Fatalf("AddCustomer(Bob) error = %v", err)
	}
	return f
}

func (f *fixture) open(t *testing.T, owner models.Customer, accountType models.AccountType, balance string) *models.Account {
	t.Helper()
	a, err := f.repo.AddAccount(owner.ID, accountType, dec(balance))
	if err != nil {
		t.Fatalf("AddAccount() error = %v", err)
	}
	return a
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertBalance(t *testing.T, a *models.Account, want string) {
	t.Helper()
	if got := a.Balance(); !got.Equal(dec(want)) {
		t.Errorf("account %s balance = %s, want %s", a.ID, got, want)
	}
}
