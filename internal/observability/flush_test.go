package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// syncErrWriter discards writes and fails Sync with err.
type syncErrWriter struct{ err error }

func (w syncErrWriter) Write(p []byte) (int, error) { return len(p), nil }
func (w syncErrWriter) Sync() error                 { return w.err }

func loggerWithSyncErr(err error) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(syncErrWriter{err: err}),
		zap.InfoLevel,
	)
	return zap.New(core)
}

func TestFlushTelemetry_RunsAllFlushers(t *testing.T) {
	var calls int
	boom := errors.New("boom")
	err := FlushTelemetry(context.Background(), nil,
		func(context.Context) error { calls++; return boom },
		nil,
		func(context.Context) error { calls++; return nil },
	)
	if calls != 2 {
		t.Errorf("flusher calls = %d, want 2", calls)
	}
	if !errors.Is(err, boom) {
		t.Errorf("FlushTelemetry() error = %v, want boom", err)
	}
}

func TestFlushTelemetry_NoFlushers(t *testing.T) {
	if err := FlushTelemetry(context.Background(), nil); err != nil {
		t.Errorf("FlushTelemetry() error = %v, want nil", err)
	}
}

func TestFlushTelemetry_LoggerSync(t *testing.T) {
	diskFull := errors.New("disk full")
	tests := []struct {
		name    string
		syncErr error
		wantErr error
	}{
		{"terminal EINVAL ignored", fmt.Errorf("sync /dev/stderr: %w", syscall.EINVAL), nil},
		{"terminal ENOTTY ignored", syscall.ENOTTY, nil},
		{"real failure reported", diskFull, diskFull},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := FlushTelemetry(context.Background(), loggerWithSyncErr(tc.syncErr))
			if tc.wantErr == nil && err != nil {
				t.Errorf("FlushTelemetry() error = %v, want nil", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("FlushTelemetry() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
