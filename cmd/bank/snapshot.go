package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kjstillabower/bank-service/internal/observability"
	"github.com/kjstillabower/bank-service/internal/repository"
	"github.com/kjstillabower/bank-service/internal/storage"
)

// restoreSnapshot loads path into repo. An empty path or a missing file
// leaves repo empty.
func restoreSnapshot(repo *repository.BankRepository, path string, logger *zap.Logger) error {
	if path == "" {
		return nil
	}
	snap, err := storage.LoadSnapshot(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("no snapshot, starting empty", zap.String("path", path))
		return nil
	}
	if err != nil {
		return err
	}
	if err := repo.Restore(snap); err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}
	logger.Info("snapshot restored",
		zap.String("path", path),
		zap.Int("customers", len(snap.Customers)),
		zap.Int("accounts", len(snap.Accounts)),
		zap.Int("transactions", len(snap.Transactions)))
	return nil
}

// snapshotFlusher saves repo to path at shutdown. It returns nil when
// persistence is disabled.
func snapshotFlusher(repo *repository.BankRepository, path string, logger *zap.Logger) observability.Flusher {
	if path == "" {
		return nil
	}
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := storage.SaveSnapshot(path, repo.Snapshot()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		logger.Info("snapshot saved", zap.String("path", path))
		return nil
	}
}
