package coordinator

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/maksimkurb/openwrt-monitor/src/internal/domain"
	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
	"github.com/maksimkurb/openwrt-monitor/src/internal/log"
	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
)

// State is the phase of the most recent poll cycle.
type State string

const (
	StateIdle           State = "idle"
	StateAuthenticating State = "authenticating"
	StateFetching       State = "fetching"
	StateSuccess        State = "success"
	StateAuthRetry      State = "auth_retry"
	StateFailed         State = "failed"
)

const (
	DefaultInterval     = 10 * time.Second
	DefaultCycleTimeout = 15 * time.Second
)

// Recorder receives poll and login outcomes. A nil Recorder is allowed.
type Recorder interface {
	ObservePoll(router, result string, duration time.Duration)
	ObserveLogin(router, result string)
}

// Options configure a Coordinator.
type Options struct {
	Name         string
	Interval     time.Duration
	CycleTimeout time.Duration
	Recorder     Recorder
	Now          func() time.Time
}

// Status is a point-in-time view of a coordinator.
type Status struct {
	Name        string    `json:"name"`
	Host        string    `json:"host"`
	State       State     `json:"state"`
	Available   bool      `json:"available"`
	Mode        luci.Mode `json:"mode,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Failures    int       `json:"consecutive_failures"`
}

// Coordinator polls one router and caches the last good snapshot.
type Coordinator struct {
	name         string
	client       domain.RouterClient
	interval     time.Duration
	cycleTimeout time.Duration
	recorder     Recorder
	now          func() time.Time
	logger       *log.Logger

	// opMu serializes login, fetch and action calls for this router.
	opMu sync.Mutex

	mu          sync.RWMutex
	state       State
	data        *luci.Snapshot
	available   bool
	lastErr     error
	lastSuccess time.Time
	failures    int

	group   singleflight.Group
	trigger chan struct{}
}

// New creates a coordinator for client.
func New(client domain.RouterClient, opts Options) *Coordinator {
	c := &Coordinator{
		name:         opts.Name,
		client:       client,
		interval:     opts.Interval,
		cycleTimeout: opts.CycleTimeout,
		recorder:     opts.Recorder,
		now:          opts.Now,
		logger:       log.Router(opts.Name),
		state:        StateIdle,
		trigger:      make(chan struct{}, 1),
	}
	if c.interval <= 0 {
		c.interval = DefaultInterval
	}
	if c.cycleTimeout <= 0 {
		c.cycleTimeout = DefaultCycleTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Name returns the router name.
func (c *Coordinator) Name() string {
	return c.name
}

// Interval returns the poll interval.
func (c *Coordinator) Interval() time.Duration {
	return c.interval
}

// FirstRefresh runs the setup cycle. A login rejected by the router is
// reported as RECONFIGURE_REQUIRED; any other failure, including a session
// rejected after a successful login, is returned as is.
func (c *Coordinator) FirstRefresh(ctx context.Context) error {
	_, err := c.refreshOnce(ctx)
	if err == nil {
		return nil
	}
	var rejected *loginRejectedError
	if stderrors.As(err, &rejected) {
		return errors.NewReconfigureError("router rejected the credentials, update the configuration", err)
	}
	return err
}

// Refresh runs one poll cycle now. Concurrent callers share the same cycle.
func (c *Coordinator) Refresh(ctx context.Context) (*luci.Snapshot, error) {
	snap, err := c.refreshOnce(ctx)
	if err != nil {
		return nil, errors.NewUpdateFailedError("update failed", err)
	}
	return snap, nil
}

// refreshOnce joins the running cycle or starts one. The cycle runs on a
// context detached from its callers; each caller only stops waiting when
// its own ctx is done.
func (c *Coordinator) refreshOnce(ctx context.Context) (*luci.Snapshot, error) {
	cycleCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("refresh", func() (interface{}, error) {
		return c.runCycle(cycleCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*luci.Snapshot).Clone(), nil
	}
}

// TriggerRefresh schedules a cycle on the running loop without waiting for it.
func (c *Coordinator) TriggerRefresh() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run polls every interval until ctx is done. Cycle failures are logged and
// never returned.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-c.trigger:
		}

		if _, err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
			c.logger.Debugf("Poll cycle failed: %v", err)
		}
	}
}

// Exclusive runs fn with a valid token while holding the router's operation
// lock. Rejected sessions are not retried.
func (c *Coordinator) Exclusive(ctx context.Context, fn func(ctx context.Context, token string, mode luci.Mode) error) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.cycleTimeout)
	defer cancel()

	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}
	proto, err := c.client.Protocol(ctx, token)
	if err != nil {
		return err
	}
	return fn(ctx, token, proto.Mode())
}

// ResetAuth clears the login give-up latch, typically after a configuration reload.
func (c *Coordinator) ResetAuth() {
	c.client.ResetAuth()
}

func (c *Coordinator) runCycle(parent context.Context) (*luci.Snapshot, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	ctx, cancel := context.WithTimeout(parent, c.cycleTimeout)
	defer cancel()

	start := c.now()
	snap, err := c.fetchWithRetry(ctx)
	if c.recorder != nil {
		c.recorder.ObservePoll(c.name, outcome(err), c.now().Sub(start))
	}
	if err != nil {
		c.markFailed(err)
		return nil, err
	}

	c.markSuccess(snap)
	return snap, nil
}

// fetchWithRetry fetches once and, on a rejected session, logs in again and
// fetches exactly once more.
func (c *Coordinator) fetchWithRetry(ctx context.Context) (*luci.Snapshot, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	c.setState(StateFetching)
	snap, err := c.fetch(ctx, token)
	if err == nil || !errors.IsAuth(err) {
		return snap, err
	}

	c.logger.Infof("Session rejected by router, logging in again")
	c.setState(StateAuthRetry)
	c.client.Invalidate()

	token, err = c.login(ctx)
	if err != nil {
		return nil, err
	}

	c.setState(StateFetching)
	return c.fetch(ctx, token)
}

func (c *Coordinator) ensureToken(ctx context.Context) (string, error) {
	if token, ok := c.client.Token(); ok {
		return token, nil
	}
	c.setState(StateAuthenticating)
	return c.login(ctx)
}

// loginRejectedError marks an AuthError returned by Login itself, as opposed
// to a session the router rejected later.
type loginRejectedError struct {
	error
}

func (e *loginRejectedError) Unwrap() error {
	return e.error
}

func (c *Coordinator) login(ctx context.Context) (string, error) {
	token, err := c.client.Login(ctx)
	if c.recorder != nil {
		c.recorder.ObserveLogin(c.name, outcome(err))
	}
	if err != nil && errors.IsAuth(err) {
		return "", &loginRejectedError{err}
	}
	return token, err
}

func (c *Coordinator) fetch(ctx context.Context, token string) (*luci.Snapshot, error) {
	proto, err := c.client.Protocol(ctx, token)
	if err != nil {
		return nil, err
	}
	snap, err := proto.FetchSnapshot(ctx, token)
	if err != nil {
		return nil, err
	}
	snap.Identity = c.identity(ctx, proto, token, snap)
	return snap, nil
}

// identity returns the identity cached for the current session, resolving
// it from the snapshot or a separate request when missing. Identity failures
// fall back to placeholders and do not fail the cycle.
func (c *Coordinator) identity(ctx context.Context, proto luci.Protocol, token string, snap *luci.Snapshot) luci.DeviceIdentity {
	cache := c.client.Cache()
	if id, ok := cache.GetIdentity(); ok {
		return id
	}

	id := snap.Identity
	if id.IsZero() {
		fetched, err := proto.FetchIdentity(ctx, token)
		if err != nil {
			c.logger.Debugf("Failed to resolve device identity: %v", err)
			return luci.DeviceIdentity{}.WithDefaults()
		}
		id = fetched
	}
	cache.SetIdentity(id)
	return id
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Coordinator) markSuccess(snap *luci.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failures > 0 {
		c.logger.Infof("Router is reachable again after %d failed update(s)", c.failures)
	}
	c.state = StateSuccess
	c.data = snap
	c.available = true
	c.lastErr = nil
	c.lastSuccess = c.now()
	c.failures = 0
}

func (c *Coordinator) markFailed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateFailed
	c.available = false
	c.lastErr = err
	c.failures++
	if c.failures == 1 {
		c.logger.Warnf("Update failed: %v", err)
	} else {
		c.logger.Debugf("Update failed (%d in a row): %v", c.failures, err)
	}
}

// Data returns a copy of the last good snapshot, or nil before the first success.
func (c *Coordinator) Data() *luci.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Clone()
}

// State returns the phase of the current or last cycle.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Available reports whether the last cycle succeeded.
func (c *Coordinator) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// LastError returns the error of the last failed cycle.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Status returns a summary for display.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Status{
		Name:        c.name,
		Host:        c.client.Host(),
		State:       c.state,
		Available:   c.available,
		LastSuccess: c.lastSuccess,
		Failures:    c.failures,
	}
	if mode, ok := c.client.Cache().GetMode(); ok {
		s.Mode = mode
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// outcome turns an error into a metric label.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if code, ok := errors.CodeOf(err); ok {
		return strings.ToLower(string(code))
	}
	return "error"
}

var _ domain.SessionRunner = (*Coordinator)(nil)
