package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCoalescer_Do_ConcurrentCallsShareOneRun(t *testing.T) {
	c := newCoalescer[int](5 * time.Second)
	var calls atomic.Int32
	release := make(chan struct{})

	fn := func() (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const n = 10
	var wg sync.WaitGroup
	results := make([]int, n)
	errs := make([]error, n)
	var sharedCount atomic.Int32
	started := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			started <- struct{}{}
			var shared bool
			results[idx], shared, errs[idx] = c.Do(context.Background(), "key", fn)
			if shared {
				sharedCount.Add(1)
			}
		}(i)
	}
	for i := 0; i < n; i++ {
		<-started
	}
	// Give every goroutine time to join before fn finishes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range results {
		if errs[i] != nil || results[i] != 42 {
			t.Errorf("call %d = %d, %v; want 42, nil", i, results[i], errs[i])
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fn calls = %d, want 1", got)
	}
	if got := sharedCount.Load(); got != n-1 {
		t.Errorf("shared callers = %d, want %d", got, n-1)
	}
}

func TestCoalescer_Do_ErrorPropagation(t *testing.T) {
	c := newCoalescer[string](time.Second)
	wantErr := errors.New("aggregate failed")
	_, shared, err := c.Do(context.Background(), "key", func() (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Do() error = %v, want %v", err, wantErr)
	}
	if shared {
		t.Error("Do() shared = true for the first caller")
	}
}

func TestCoalescer_Do_SequentialCallsRunAgain(t *testing.T) {
	c := newCoalescer[int](time.Second)
	var calls atomic.Int32
	fn := func() (int, error) { return int(calls.Add(1)), nil }

	first, _, _ := c.Do(context.Background(), "key", fn)
	second, _, _ := c.Do(context.Background(), "key", fn)
	if first != 1 || second != 2 {
		t.Errorf("results = %d, %d; want 1, 2", first, second)
	}
}

func TestCoalescer_Do_Timeout(t *testing.T) {
	c := newCoalescer[int](20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	_, _, err := c.Do(context.Background(), "slow", func() (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestCoalescer_Do_ContextCanceled(t *testing.T) {
	c := newCoalescer[int](time.Second)
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := c.Do(ctx, "key", func() (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}
