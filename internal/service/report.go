package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kjstillabower/bank-service/internal/models"
	"github.com/kjstillabower/bank-service/internal/observability"
)

// DefaultReportTimeout bounds how long a caller waits for a report.
const DefaultReportTimeout = 30 * time.Second

// ReportService computes bank-wide aggregates.
type ReportService struct {
	ledger    Ledger
	coalescer *coalescer[models.BankReport]
}

// NewReportService creates a ReportService. Callers wait at most timeout for a
// report; a non-positive timeout selects DefaultReportTimeout.
func NewReportService(ledger Ledger, timeout time.Duration) *ReportService {
	if timeout <= 0 {
		timeout = DefaultReportTimeout
	}
	return &ReportService{
		ledger:    ledger,
		coalescer: newCoalescer[models.BankReport](timeout),
	}
}

// GenerateBankReport returns the total balance, per-customer totals, the
// number of transactions within lookback of now and the topN accounts by
// balance. The four aggregates are computed concurrently; identical requests
// made while one is running share its result.
func (s *ReportService) GenerateBankReport(ctx context.Context, topN int, lookback time.Duration) (models.BankReport, error) {
	if topN <= 0 {
		return models.BankReport{}, fmt.Errorf("%w: top accounts count must be positive", models.ErrInvalidInput)
	}
	if lookback <= 0 {
		return models.BankReport{}, fmt.Errorf("%w: lookback must be positive", models.ErrInvalidInput)
	}
	logger := observability.LoggerFromContext(ctx)
	key := fmt.Sprintf("%d/%s", topN, lookback)
	report, shared, err := s.coalescer.Do(ctx, key, func() (models.BankReport, error) {
		return s.generate(logger, topN, lookback)
	})
	if shared {
		observability.ReportCoalescedTotal.Inc()
	}
	if err != nil {
		return models.BankReport{}, fmt.Errorf("generate bank report: %w", err)
	}
	return report, nil
}

func (s *ReportService) generate(logger *zap.Logger, topN int, lookback time.Duration) (models.BankReport, error) {
	start := time.Now()
	now := s.ledger.Now()
	report := models.BankReport{GeneratedAt: now}

	tasks := []struct {
		name string
		run  func() error
	}{
		{"total balance", func() error {
			report.TotalBalance = s.totalBalance()
			return nil
		}},
		{"balance by customer", func() (err error) {
			report.BalanceByCustomer, err = s.balanceByCustomer()
			return err
		}},
		{"recent transactions", func() error {
			recent, err := s.ledger.TransactionsSince(now.Add(-lookback))
			report.RecentTransactionCount = len(recent)
			return err
		}},
		{"top accounts", func() error {
			report.TopAccountsByBalance = s.topAccounts(topN)
			return nil
		}},
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(tasks))
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := task.run(); err != nil {
				errCh <- fmt.Errorf("%s: %w", task.name, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	duration := time.Since(start)
	observability.ReportGenerationDuration.Observe(duration.Seconds())
	logger.Debug("bank report generated",
		zap.Int("top_n", topN),
		zap.Duration("lookback", lookback),
		zap.Int("errors", len(errs)),
		zap.Duration("duration", duration),
	)
	if len(errs) > 0 {
		return models.BankReport{}, errors.Join(errs...)
	}
	return report, nil
}

func (s *ReportService) totalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.ledger.AllAccounts() {
		total = total.Add(a.Balance())
	}
	return total
}

// balanceByCustomer sums balances per owner, ordered by customer ID.
func (s *ReportService) balanceByCustomer() ([]models.CustomerBalance, error) {
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, a := range s.ledger.AllAccounts() {
		totals[a.CustomerID] = totals[a.CustomerID].Add(a.Balance())
	}
	ids := make([]uuid.UUID, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	out := make([]models.CustomerBalance, 0, len(ids))
	for _, id := range ids {
		c, err := s.ledger.GetCustomer(id)
		if err != nil {
			return nil, err
		}
		out = append(out, models.CustomerBalance{CustomerID: id, Name: c.Name, Total: totals[id]})
	}
	return out, nil
}

// topAccounts returns up to n accounts by descending balance. Ties keep
// creation order.
func (s *ReportService) topAccounts(n int) []models.AccountView {
	accounts := s.ledger.AllAccounts()
	views := make([]models.AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, a.View())
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Balance.GreaterThan(views[j].Balance)
	})
	if len(views) > n {
		views = views[:n]
	}
	return views
}
