package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
	"github.com/maksimkurb/openwrt-monitor/src/internal/log"
)

// RestartableRunner runs a long-lived function in its own goroutine and
// restarts it with exponential backoff when it fails or panics.
// A crash in one router's poller never affects the others.
type RestartableRunner struct {
	name           string
	runFunc        func(ctx context.Context) error
	maxRestarts    int
	restartBackoff time.Duration
	maxBackoff     time.Duration
	logger         *log.Logger

	mu           sync.RWMutex
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
	lastError    error
	restartCount int
}

// RunnerConfig contains configuration for RestartableRunner.
type RunnerConfig struct {
	Name           string
	MaxRestarts    int           // 0 = unlimited restarts
	RestartBackoff time.Duration // Initial backoff (default: 1s)
	MaxBackoff     time.Duration // Max backoff (default: 30s)
}

// NewRestartableRunner creates a new restartable runner.
func NewRestartableRunner(cfg RunnerConfig, runFunc func(ctx context.Context) error) *RestartableRunner {
	if cfg.RestartBackoff <= 0 {
		cfg.RestartBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}

	return &RestartableRunner{
		name:           cfg.Name,
		runFunc:        runFunc,
		maxRestarts:    cfg.MaxRestarts,
		restartBackoff: cfg.RestartBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         log.Router(cfg.Name),
	}
}

// Start launches the runner. It stops when ctx is done or Stop is called.
func (r *RestartableRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("%s is already running", r.name)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	r.restartCount = 0
	r.lastError = nil

	go r.loop(runCtx, r.done)
	return nil
}

// Stop cancels the runner and waits up to timeout for it to exit.
func (r *RestartableRunner) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%s: timeout waiting for stop", r.name)
	}
}

// Done is closed once the runner has exited for good.
func (r *RestartableRunner) Done() <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.done
}

// IsRunning returns true if the runner is currently running.
func (r *RestartableRunner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// LastError returns the error of the most recent run.
func (r *RestartableRunner) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastError
}

// RestartCount returns the number of restarts that have occurred.
func (r *RestartableRunner) RestartCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.restartCount
}

func (r *RestartableRunner) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		close(done)
	}()

	backoff := r.restartBackoff
	for {
		started := time.Now()
		err := r.runWithRecovery(ctx)

		r.mu.Lock()
		r.lastError = err
		r.mu.Unlock()

		if ctx.Err() != nil {
			r.logger.Debugf("%s stopped", r.name)
			return
		}
		if err == nil {
			r.logger.Debugf("%s exited cleanly", r.name)
			return
		}

		r.mu.Lock()
		r.restartCount++
		count := r.restartCount
		r.mu.Unlock()

		if r.maxRestarts > 0 && count >= r.maxRestarts {
			r.logger.Errorf("%s failed %d times, giving up: %v", r.name, count, err)
			return
		}

		// A run that stayed up longer than the backoff cap counts as healthy.
		if time.Since(started) > r.maxBackoff {
			backoff = r.restartBackoff
		}
		r.logger.Errorf("%s crashed: %v. Restarting in %v (restart #%d)", r.name, err, backoff, count)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > r.maxBackoff {
			backoff = r.maxBackoff
		}
	}
}

func (r *RestartableRunner) runWithRecovery(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.NewInternalError(fmt.Sprintf("panic: %v", recovered), nil)
		}
	}()
	return r.runFunc(ctx)
}
