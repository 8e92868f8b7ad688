// Package console is the interactive numbered-menu front end of the bank.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kjstillabower/bank-service/internal/models"
	"github.com/kjstillabower/bank-service/internal/observability"
	"github.com/kjstillabower/bank-service/internal/service"
	"github.com/kjstillabower/bank-service/internal/validation"
)

// Directory is what the menu reads from the bank directly.
// *repository.BankRepository satisfies it.
type Directory interface {
	AddCustomer(name, email string) (models.Customer, error)
	GetCustomer(id uuid.UUID) (models.Customer, error)
	AllCustomers() []models.Customer
	AllAccounts() []*models.Account
	TransactionsByAccount(accountID uuid.UUID) ([]models.Transaction, error)
}

// Options tune report generation from the menu.
type Options struct {
	ReportTopN     int
	ReportLookback time.Duration
}

var (
	errNoCustomers = errors.New("no customers available. Please create a customer first")
	errNoAccounts  = errors.New("no accounts available. Please create an account first")
)

// App reads menu choices from in and writes prompts and results to out.
type App struct {
	in        *bufio.Scanner
	out       io.Writer
	directory Directory
	bank      service.Bank
	opts      Options
	logger    *zap.Logger
}

// New returns an App. Zero Options fields fall back to a top-5, 30-day report.
func New(in io.Reader, out io.Writer, directory Directory, bank service.Bank, opts Options, logger *zap.Logger) *App {
	if opts.ReportTopN <= 0 {
		opts.ReportTopN = 5
	}
	if opts.ReportLookback <= 0 {
		opts.ReportLookback = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		in:        bufio.NewScanner(in),
		out:       out,
		directory: directory,
		bank:      bank,
		opts:      opts,
		logger:    logger,
	}
}

// Run shows the menu until the user exits, input ends or ctx is cancelled.
// Operation errors are printed and the menu is shown again.
func (a *App) Run(ctx context.Context) error {
	ctx = observability.ContextWithLogger(ctx, a.logger)
	a.println("Welcome to the Bank Application!")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.printMenu()
		choice, err := a.readLine("Select an option: ")
		if errors.Is(err, io.EOF) {
			a.println("")
			a.logger.Info("console input closed")
			return nil
		}
		if err != nil {
			return err
		}

		var opErr error
		switch strings.TrimSpace(choice) {
		case "1":
			opErr = a.createCustomer()
		case "2":
			opErr = a.createAccount(ctx)
		case "3":
			opErr = a.deposit(ctx)
		case "4":
			opErr = a.transfer(ctx)
		case "5":
			opErr = a.payment(ctx)
		case "6":
			opErr = a.generateReport(ctx)
		case "7":
			a.println("Exiting application.")
			return nil
		case "8":
			opErr = a.withdraw(ctx)
		case "9":
			opErr = a.accountTransactions()
		default:
			a.println("Invalid option. Please try again.")
		}
		if errors.Is(opErr, io.EOF) {
			a.println("")
			return nil
		}
		if opErr != nil {
			a.logger.Debug("console operation failed", zap.Error(opErr))
			a.printf("Error: %v\n", opErr)
		}
		a.println("")
	}
}

func (a *App) printMenu() {
	a.println("\n--- Bank Application Menu ---")
	for _, item := range []string{
		"1. Create Customer",
		"2. Create Account",
		"3. Deposit",
		"4. Transfer",
		"5. Payment",
		"6. Generate Report",
		"7. Exit",
		"8. Withdraw",
		"9. Account Transactions",
	} {
		a.println(item)
	}
}

func (a *App) createCustomer() error {
	name, err := a.readValid("Enter customer name: ", validation.ValidateName)
	if err != nil {
		return err
	}
	email, err := a.readValid("Enter customer email: ", validation.ValidateEmail)
	if err != nil {
		return err
	}
	c, err := a.directory.AddCustomer(name, email)
	if err != nil {
		return err
	}
	a.printf("Customer created with ID: %s\n", c.ID)
	return nil
}

func (a *App) createAccount(ctx context.Context) error {
	customer, err := a.pickCustomer()
	if err != nil {
		return err
	}
	accountType, err := a.pickAccountType()
	if err != nil {
		return err
	}
	initial, err := a.readMoney("Enter initial balance: ")
	if err != nil {
		return err
	}
	acct, err := a.bank.Accounts.CreateAccount(ctx, customer.ID, accountType, initial)
	if err != nil {
		return err
	}
	a.printf("Account created with ID: %s\n", acct.ID)
	return nil
}

func (a *App) deposit(ctx context.Context) error {
	id, err := a.pickAccount()
	if err != nil {
		return err
	}
	amount, err := a.readMoney("Enter deposit amount: ")
	if err != nil {
		return err
	}
	description, err := a.readDescription()
	if err != nil {
		return err
	}
	if _, err := a.bank.Accounts.Deposit(ctx, id, amount, description); err != nil {
		return err
	}
	a.println("Deposit successful.")
	return nil
}

func (a *App) withdraw(ctx context.Context) error {
	id, err := a.pickAccount()
	if err != nil {
		return err
	}
	amount, err := a.readMoney("Enter withdrawal amount: ")
	if err != nil {
		return err
	}
	description, err := a.readDescription()
	if err != nil {
		return err
	}
	if _, err := a.bank.Accounts.Withdraw(ctx, id, amount, description); err != nil {
		return err
	}
	a.println("Withdrawal successful.")
	return nil
}

func (a *App) transfer(ctx context.Context) error {
	a.println("Choose FROM Account:")
	from, err := a.pickAccount()
	if err != nil {
		return err
	}
	a.println("Choose TO Account:")
	to, err := a.pickAccount()
	if err != nil {
		return err
	}
	if from == to {
		return models.ErrSameAccount
	}
	amount, err := a.readMoney("Enter transfer amount: ")
	if err != nil {
		return err
	}
	description, err := a.readDescription()
	if err != nil {
		return err
	}
	if _, err := a.bank.Transfers.Transfer(ctx, from, to, amount, description); err != nil {
		return err
	}
	a.println("Transfer successful.")
	return nil
}

func (a *App) payment(ctx context.Context) error {
	a.println("Choose FROM Account:")
	from, err := a.pickAccount()
	if err != nil {
		return err
	}
	amount, err := a.readMoney("Enter payment amount: ")
	if err != nil {
		return err
	}
	description, err := a.readDescription()
	if err != nil {
		return err
	}
	if _, err := a.bank.Payments.Pay(ctx, from, amount, description); err != nil {
		return err
	}
	a.println("Payment successful.")
	return nil
}

func (a *App) generateReport(ctx context.Context) error {
	a.println("Generating report...")
	report, err := a.bank.Reports.GenerateBankReport(ctx, a.opts.ReportTopN, a.opts.ReportLookback)
	if err != nil {
		return err
	}
	for _, cb := range report.BalanceByCustomer {
		a.printf("Customer: %s, Total Balance: %s\n", cb.Name, cb.Total.StringFixed(2))
	}
	a.printf("Total Balance: %s\n", report.TotalBalance.StringFixed(2))
	a.printf("Transactions in last %s: %d\n", a.opts.ReportLookback, report.RecentTransactionCount)
	a.printf("Top %d Accounts:\n", a.opts.ReportTopN)
	for i, v := range report.TopAccountsByBalance {
		a.printf("%d. %s %s (Balance: %s)\n", i+1, v.ID, v.Type, v.Balance.StringFixed(2))
	}
	return nil
}

func (a *App) accountTransactions() error {
	id, err := a.pickAccount()
	if err != nil {
		return err
	}
	txs, err := a.directory.TransactionsByAccount(id)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		a.println("No transactions.")
		return nil
	}
	for _, tx := range txs {
		a.printf("%s %-10s %10s %s\n", tx.BusinessDate, tx.Type, tx.Amount.StringFixed(2), tx.Description)
	}
	return nil
}

func (a *App) pickCustomer() (models.Customer, error) {
	customers := a.directory.AllCustomers()
	if len(customers) == 0 {
		return models.Customer{}, errNoCustomers
	}
	a.println("Available Customers:")
	for i, c := range customers {
		a.printf("%d. %s (ID: %s)\n", i+1, c.Name, c.ID)
	}
	i, err := a.readIndex("Select customer by number: ", len(customers))
	if err != nil {
		return models.Customer{}, err
	}
	return customers[i], nil
}

func (a *App) pickAccountType() (models.AccountType, error) {
	types := models.AccountTypes()
	a.println("Available Account Types:")
	for i, t := range types {
		a.printf("%d. %s\n", i+1, t)
	}
	i, err := a.readIndex("Select account type by number: ", len(types))
	if err != nil {
		return "", err
	}
	return types[i], nil
}

func (a *App) pickAccount() (uuid.UUID, error) {
	accounts := a.directory.AllAccounts()
	if len(accounts) == 0 {
		return uuid.Nil, errNoAccounts
	}
	a.println("Available Accounts:")
	for i, acct := range accounts {
		v := acct.View()
		owner := v.CustomerID.String()
		if c, err := a.directory.GetCustomer(v.CustomerID); err == nil {
			owner = c.Name
		}
		a.printf("%d. %s %s (ID: %s, Balance: %s)\n", i+1, owner, v.Type, v.ID, v.Balance.StringFixed(2))
	}
	i, err := a.readIndex("Select account by number: ", len(accounts))
	if err != nil {
		return uuid.Nil, err
	}
	return accounts[i].ID, nil
}

func (a *App) readDescription() (string, error) {
	return a.readValid("Enter description: ", func(s string) (string, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", validation.ErrEmpty
		}
		return s, nil
	})
}

// readMoney re-prompts until the input is a positive amount after rounding to cents.
func (a *App) readMoney(prompt string) (decimal.Decimal, error) {
	for {
		input, err := a.readLine(prompt)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if strings.TrimSpace(input) == "" {
			a.println("Input cannot be empty. Please try again.")
			continue
		}
		amount, err := validation.ParseAmount(input)
		if err == nil {
			return amount, nil
		}
		a.println("Invalid amount. Please enter a positive number.")
	}
}

// readIndex re-prompts until the input is a 1-based choice in [1, n] and
// returns it 0-based.
func (a *App) readIndex(prompt string, n int) (int, error) {
	for {
		input, err := a.readLine(prompt)
		if err != nil {
			return 0, err
		}
		if i, convErr := strconv.Atoi(strings.TrimSpace(input)); convErr == nil && i >= 1 && i <= n {
			return i - 1, nil
		}
		a.println("Invalid selection. Please try again.")
	}
}

// readValid re-prompts until check accepts the input. Validation failures are
// explained and re-asked; any other error from check is returned.
func (a *App) readValid(prompt string, check func(string) (string, error)) (string, error) {
	for {
		input, err := a.readLine(prompt)
		if err != nil {
			return "", err
		}
		v, err := check(input)
		if err == nil {
			return v, nil
		}
		if !validation.IsValidationError(err) {
			return "", err
		}
		a.println(retryMessage(err))
	}
}

func retryMessage(err error) string {
	switch {
	case errors.Is(err, validation.ErrEmpty):
		return "Input cannot be empty. Please try again."
	case errors.Is(err, validation.ErrNameTooLong):
		return fmt.Sprintf("Name cannot be longer than %d characters. Please try again.", validation.MaxNameLength)
	case errors.Is(err, validation.ErrInvalidEmail):
		return "Invalid email. Please try again."
	default:
		return "Invalid input. Please try again."
	}
}

// readLine prints prompt and returns the next line, or io.EOF when input ends.
func (a *App) readLine(prompt string) (string, error) {
	a.printf("%s", prompt)
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", io.EOF
	}
	return a.in.Text(), nil
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
