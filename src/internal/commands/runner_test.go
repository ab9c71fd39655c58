package commands

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
)

func waitDone(t *testing.T, r *RestartableRunner) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not exit")
	}
}

func TestRestartableRunner_RestartsOnError(t *testing.T) {
	var calls atomic.Int32
	r := NewRestartableRunner(RunnerConfig{
		Name:           "poller",
		RestartBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, r)

	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if r.RestartCount() != 2 {
		t.Errorf("restarts = %d, want 2", r.RestartCount())
	}
	if r.IsRunning() || r.LastError() != nil {
		t.Errorf("running = %v, last error = %v", r.IsRunning(), r.LastError())
	}
}

func TestRestartableRunner_RecoversPanic(t *testing.T) {
	r := NewRestartableRunner(RunnerConfig{
		Name:           "poller",
		MaxRestarts:    1,
		RestartBackoff: time.Millisecond,
	}, func(ctx context.Context) error {
		panic("nil map")
	})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, r)

	if !errors.HasCode(r.LastError(), errors.ErrCodeInternal) {
		t.Errorf("last error = %v, want internal error", r.LastError())
	}
}

func TestRestartableRunner_Stop(t *testing.T) {
	r := NewRestartableRunner(RunnerConfig{Name: "poller"}, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := r.Start(context.Background()); err == nil {
		t.Error("expected error when starting twice")
	}
	if err := r.Stop(time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if r.IsRunning() {
		t.Error("runner still running after Stop")
	}
	if err := r.Stop(time.Second); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
