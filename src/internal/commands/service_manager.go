package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maksimkurb/openwrt-monitor/src/internal/core"
	"github.com/maksimkurb/openwrt-monitor/src/internal/coordinator"
	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
	"github.com/maksimkurb/openwrt-monitor/src/internal/hashing"
	"github.com/maksimkurb/openwrt-monitor/src/internal/log"
	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
	"github.com/maksimkurb/openwrt-monitor/src/internal/metrics"
)

const (
	setupBackoff    = 5 * time.Second
	setupMaxBackoff = 5 * time.Minute
	stopTimeout     = 30 * time.Second
)

// ServiceManager owns the router instances and their pollers.
// Reload replaces every instance from the configuration file.
type ServiceManager struct {
	configPath string
	recorder   *metrics.Recorder

	mu      sync.RWMutex
	deps    *core.AppDependencies
	runners []*RestartableRunner
	cancel  context.CancelFunc
	running bool

	// checksum of the configuration file the instances were built from
	checksum string

	// backoff for setup retries; tests shorten it.
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewServiceManager creates a service manager that exports its snapshots to recorder.
func NewServiceManager(configPath string, recorder *metrics.Recorder) (*ServiceManager, error) {
	sm := &ServiceManager{
		configPath: configPath,
		recorder:   recorder,
		backoff:    setupBackoff,
		maxBackoff: setupMaxBackoff,
	}
	if err := recorder.RegisterSource(sm.snapshots); err != nil {
		return nil, fmt.Errorf("failed to register snapshot collector: %w", err)
	}
	return sm, nil
}

// Dependencies returns the instances currently being polled.
func (sm *ServiceManager) Dependencies() *core.AppDependencies {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.deps
}

func (sm *ServiceManager) snapshots() []metrics.RouterSnapshot {
	deps := sm.Dependencies()
	if deps == nil {
		return nil
	}
	return deps.Snapshots()
}

// IsRunning returns true if the pollers are running.
func (sm *ServiceManager) IsRunning() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.running
}

// Start loads the configuration and starts one poller per router.
func (sm *ServiceManager) Start() error {
	cfg, err := loadAndValidateConfigOrFail(sm.configPath)
	if err != nil {
		return err
	}

	deps, err := core.NewAppDependencies(core.AppConfig{Config: cfg, Recorder: sm.recorder})
	if err != nil {
		return err
	}
	return sm.startWith(deps, sm.fileChecksum())
}

// ConfigChecksum returns the checksum of the configuration currently in use.
func (sm *ServiceManager) ConfigChecksum() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.checksum
}

func (sm *ServiceManager) fileChecksum() string {
	sum, err := hashing.FileChecksum(sm.configPath)
	if err != nil {
		log.Warnf("Failed to checksum %s: %v", sm.configPath, err)
		return ""
	}
	return sum
}

func (sm *ServiceManager) startWith(deps *core.AppDependencies, checksum string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.running {
		return fmt.Errorf("service is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	runners := make([]*RestartableRunner, 0, len(deps.Instances()))
	for _, inst := range deps.Instances() {
		r := NewRestartableRunner(RunnerConfig{
			Name:           inst.Name(),
			RestartBackoff: 2 * time.Second,
			MaxBackoff:     time.Minute,
		}, sm.pollRouter(inst))
		if err := r.Start(ctx); err != nil {
			cancel()
			return err
		}
		runners = append(runners, r)
	}

	sm.deps = deps
	sm.runners = runners
	sm.cancel = cancel
	sm.running = true
	sm.checksum = checksum
	log.Infof("Polling %d router(s), %d concurrent request(s) at most", len(runners), deps.Pool().Size())
	return nil
}

// Stop stops every poller and waits for them to exit.
func (sm *ServiceManager) Stop() error {
	sm.mu.Lock()
	if !sm.running {
		sm.mu.Unlock()
		return nil
	}
	runners, cancel := sm.runners, sm.cancel
	sm.running = false
	sm.runners = nil
	sm.mu.Unlock()

	cancel()

	var g errgroup.Group
	for _, r := range runners {
		g.Go(func() error { return r.Stop(stopTimeout) })
	}
	return g.Wait()
}

// Reload rebuilds every instance from the configuration file. New clients
// start without a login give-up latch. On a bad configuration the running
// instances are kept.
func (sm *ServiceManager) Reload() error {
	cfg, err := loadAndValidateConfigOrFail(sm.configPath)
	if err != nil {
		return err
	}
	deps, err := core.NewAppDependencies(core.AppConfig{Config: cfg, Recorder: sm.recorder})
	if err != nil {
		return err
	}

	checksum := sm.fileChecksum()
	if checksum != "" && checksum == sm.ConfigChecksum() {
		log.Infof("Configuration file is unchanged, restarting routers to retry rejected logins")
	}

	if err := sm.Stop(); err != nil {
		log.Warnf("Some pollers did not stop in time: %v", err)
	}
	return sm.startWith(deps, checksum)
}

// RefreshAll schedules an immediate poll cycle on every router.
func (sm *ServiceManager) RefreshAll() {
	deps := sm.Dependencies()
	if deps == nil {
		return
	}
	for _, inst := range deps.Instances() {
		inst.Coordinator.TriggerRefresh()
	}
}

// pollRouter runs the setup cycle until it succeeds, then polls on the interval.
// Rejected credentials park the router until the configuration is reloaded.
func (sm *ServiceManager) pollRouter(inst *core.Instance) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger := log.Router(inst.Name())

		if err := sm.setup(ctx, inst.Coordinator); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Errorf("%v. Fix the configuration and send SIGHUP to retry", err)
			<-ctx.Done()
			return nil
		}

		logger.Infof("Connected to %s via %s, polling every %v", inst.Client.Host(), modeOf(inst), inst.Coordinator.Interval())
		return inst.Coordinator.Run(ctx)
	}
}

// setup retries the first refresh with backoff. Only RECONFIGURE_REQUIRED
// and cancellation end it early.
func (sm *ServiceManager) setup(ctx context.Context, coord *coordinator.Coordinator) error {
	backoff := sm.backoff
	logger := log.Router(coord.Name())

	for {
		err := coord.FirstRefresh(ctx)
		if err == nil {
			return nil
		}
		if errors.HasCode(err, errors.ErrCodeReconfigure) {
			return err
		}
		logger.Warnf("Router is not ready: %v. Retrying in %v", err, backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > sm.maxBackoff {
			backoff = sm.maxBackoff
		}
	}
}

func modeOf(inst *core.Instance) luci.Mode {
	if mode, ok := inst.Client.Cache().GetMode(); ok {
		return mode
	}
	return "unknown"
}
