package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kjstillabower/bank-service/internal/models"
	"github.com/kjstillabower/bank-service/internal/repository"
	"github.com/kjstillabower/bank-service/internal/storage"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	logger := zap.NewNop()
	now := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)

	src := repository.NewWithClock(func() time.Time { return now }, time.UTC)
	c, err := src.AddCustomer("Alice", "alice@email.com")
	if err != nil {
		t.Fatal(err)
	}
	a, err := src.AddAccount(c.ID, models.AccountTypeSavings, decimal.RequireFromString("12.34"))
	if err != nil {
		t.Fatal(err)
	}

	if err := snapshotFlusher(src, path, logger)(context.Background()); err != nil {
		t.Fatalf("flush error = %v", err)
	}

	dst := repository.New()
	if err := restoreSnapshot(dst, path, logger); err != nil {
		t.Fatalf("restoreSnapshot() error = %v", err)
	}
	got, err := dst.GetAccount(a.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if !got.Balance().Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("restored balance = %s", got.Balance())
	}
	if n := len(dst.AllTransactions()); n != 1 {
		t.Errorf("restored transactions = %d, want 1", n)
	}
}

func TestRestoreSnapshot_MissingOrDisabled(t *testing.T) {
	repo := repository.New()
	if err := restoreSnapshot(repo, "", zap.NewNop()); err != nil {
		t.Errorf("disabled restore error = %v", err)
	}
	if err := restoreSnapshot(repo, filepath.Join(t.TempDir(), "none.json"), zap.NewNop()); err != nil {
		t.Errorf("missing file restore error = %v", err)
	}
	if snapshotFlusher(repo, "", zap.NewNop()) != nil {
		t.Error("snapshotFlusher returned a flusher with persistence disabled")
	}
}

func TestRestoreSnapshot_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := restoreSnapshot(repository.New(), path, zap.NewNop()); err == nil {
		t.Error("restoreSnapshot() accepted a corrupt file")
	}
}

func TestRestoreSnapshot_DuplicateAccountRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	src := repository.New()
	c, err := src.AddCustomer("Alice", "alice@email.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.AddAccount(c.ID, models.AccountTypeChecking, decimal.RequireFromString("100.00")); err != nil {
		t.Fatal(err)
	}
	snap := src.Snapshot()
	snap.Accounts = append(snap.Accounts, snap.Accounts[0])
	if err := storage.SaveSnapshot(path, snap); err != nil {
		t.Fatal(err)
	}

	dst := repository.New()
	if err := restoreSnapshot(dst, path, zap.NewNop()); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("restoreSnapshot() error = %v, want ErrInvalidInput", err)
	}
	if n := len(dst.AllAccounts()); n != 0 {
		t.Errorf("accounts after rejected restore = %d, want 0", n)
	}
}
