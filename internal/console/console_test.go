package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjstillabower/bank-service/internal/models"
	"github.com/kjstillabower/bank-service/internal/repository"
	"github.com/kjstillabower/bank-service/internal/service"
	"github.com/kjstillabower/bank-service/internal/validation"
)

func newRepo() *repository.BankRepository {
	now := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	return repository.NewWithClock(func() time.Time { return now }, time.UTC)
}

// run feeds script to a fresh App over repo and returns everything it printed.
func run(t *testing.T, repo *repository.BankRepository, script string) string {
	t.Helper()
	var out bytes.Buffer
	app := New(strings.NewReader(script), &out, repo, service.NewBank(repo, time.Second), Options{}, nil)
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out.String()
}

func mustContain(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n--- output ---\n%s", w, out)
		}
	}
}

func seed(t *testing.T, repo *repository.BankRepository, name, balance string) *models.Account {
	t.Helper()
	c, err := repo.AddCustomer(name, strings.ToLower(name)+"@email.com")
	if err != nil {
		t.Fatalf("AddCustomer() error = %v", err)
	}
	a, err := repo.AddAccount(c.ID, models.AccountTypeChecking, decimal.RequireFromString(balance))
	if err != nil {
		t.Fatalf("AddAccount() error = %v", err)
	}
	return a
}

func TestRun_CreateCustomerRepromptsForEmail(t *testing.T) {
	repo := newRepo()
	out := run(t, repo, "1\n\nAlice\nbad\nalice@email.com\n7\n")

	mustContain(t, out,
		"Welcome to the Bank Application!",
		"Input cannot be empty. Please try again.",
		"Invalid email. Please try again.",
		"Customer created with ID: ",
		"Exiting application.",
	)
	customers := repo.AllCustomers()
	if len(customers) != 1 || customers[0].Name != "Alice" || customers[0].Email != "alice@email.com" {
		t.Errorf("customers = %+v", customers)
	}
}

func TestRun_CreateCustomerExplainsLongName(t *testing.T) {
	repo := newRepo()
	long := strings.Repeat("x", validation.MaxNameLength+1)
	out := run(t, repo, "1\n"+long+"\nAlice\nalice@email.com\n7\n")

	mustContain(t, out, "Name cannot be longer than 200 characters. Please try again.")
	if strings.Contains(out, "Input cannot be empty") {
		t.Errorf("long name reported as empty\n--- output ---\n%s", out)
	}
	if customers := repo.AllCustomers(); len(customers) != 1 || customers[0].Name != "Alice" {
		t.Errorf("customers = %+v", customers)
	}
}

func TestReadValid_ReturnsNonValidationError(t *testing.T) {
	repo := newRepo()
	var out bytes.Buffer
	app := New(strings.NewReader("anything\n"), &out, repo, service.NewBank(repo, time.Second), Options{}, nil)
	boom := errors.New("boom")

	_, err := app.readValid("> ", func(string) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Errorf("readValid() error = %v, want boom", err)
	}
	if strings.Contains(out.String(), "Please try again") {
		t.Errorf("non-validation error was re-prompted: %q", out.String())
	}
}

func TestRun_FullSession(t *testing.T) {
	repo := newRepo()
	if _, err := repo.AddCustomer("Alice", "alice@email.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddCustomer("Bob", "bob@email.com"); err != nil {
		t.Fatal(err)
	}

	script := strings.Join([]string{
		"2", "1", "1", "100", // Alice CHECKING 100
		"2", "2", "2", "50.005", // Bob SAVINGS 50.01
		"3", "1", "25", "bonus",
		"4", "1", "2", "30", "rent",
		"5", "2", "10.01", "bill",
		"8", "1", "5", "cash",
		"6",
		"7",
	}, "\n") + "\n"
	out := run(t, repo, script)

	mustContain(t, out,
		"Account created with ID: ",
		"Deposit successful.",
		"Transfer successful.",
		"Payment successful.",
		"Withdrawal successful.",
		"Generating report...",
		"Customer: Alice, Total Balance: 90.00",
		"Customer: Bob, Total Balance: 70.00",
		"Total Balance: 160.00",
		"Transactions in last 720h0m0s: 6",
	)

	accounts := repo.AllAccounts()
	if len(accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(accounts))
	}
	if got := accounts[0].Balance(); !got.Equal(decimal.RequireFromString("90")) {
		t.Errorf("Alice balance = %s, want 90", got)
	}
	if accounts[1].Type != models.AccountTypeSavings {
		t.Errorf("Bob account type = %s, want SAVINGS", accounts[1].Type)
	}
}

func TestRun_TransferToSameAccount(t *testing.T) {
	repo := newRepo()
	a := seed(t, repo, "Carol", "10")
	out := run(t, repo, "4\n1\n1\n7\n")

	mustContain(t, out, "Error: "+models.ErrSameAccount.Error())
	if got := a.Balance(); !got.Equal(decimal.RequireFromString("10")) {
		t.Errorf("balance = %s, want 10", got)
	}
}

func TestRun_NothingToSelect(t *testing.T) {
	out := run(t, newRepo(), "2\n3\n7\n")
	mustContain(t, out, "Error: "+errNoCustomers.Error(), "Error: "+errNoAccounts.Error())
}

func TestRun_RepromptsInvalidInput(t *testing.T) {
	repo := newRepo()
	a := seed(t, repo, "Dave", "0")
	out := run(t, repo, "x\n3\n0\n2\n1\nabc\n-1\n0.004\n5\n\ntip\n7\n")

	mustContain(t, out,
		"Invalid option. Please try again.",
		"Invalid selection. Please try again.",
		"Invalid amount. Please enter a positive number.",
		"Deposit successful.",
	)
	if got := a.Balance(); !got.Equal(decimal.RequireFromString("5")) {
		t.Errorf("balance = %s, want 5", got)
	}
}

func TestRun_OperationErrorReturnsToMenu(t *testing.T) {
	repo := newRepo()
	seed(t, repo, "Erin", "20")
	out := run(t, repo, "8\n1\n1000\natm\n9\n1\n7\n")

	mustContain(t, out,
		"Error: withdraw: insufficient funds",
		"DEPOSIT",
		"Initial deposit",
		"Exiting application.",
	)
}

func TestRun_EOFExitsCleanly(t *testing.T) {
	repo := newRepo()
	out := run(t, repo, "1\nAlice\n")
	if len(repo.AllCustomers()) != 0 {
		t.Error("customer created from incomplete input")
	}
	if strings.Contains(out, "Error:") {
		t.Errorf("EOF reported as error:\n%s", out)
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	repo := newRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	app := New(strings.NewReader("7\n"), &bytes.Buffer{}, repo, service.NewBank(repo, time.Second), Options{}, nil)
	if err := app.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
