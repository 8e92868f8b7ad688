package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// Flusher persists buffered state before exit (e.g. the ledger snapshot).
type Flusher func(ctx context.Context) error

// FlushTelemetry runs each flusher in order, then syncs the logger so their
// log lines are not lost. All flushers run even if one fails; errors are joined.
// Prometheus is pull-based and needs no flush.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, flushers ...Flusher) error {
	var errs []error
	for _, f := range flushers {
		if f == nil {
			continue
		}
		if err := f(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if logger != nil {
		if err := logger.Sync(); err != nil && !isUnsyncableTerminal(err) {
			errs = append(errs, fmt.Errorf("flush logs: %w", err))
		}
	}
	return errors.Join(errs...)
}

// isUnsyncableTerminal reports whether err is fsync refusing a terminal or
// pipe, which is what Sync returns for a console-attached stderr.
func isUnsyncableTerminal(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
