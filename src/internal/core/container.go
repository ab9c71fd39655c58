package core

import (
	"github.com/maksimkurb/openwrt-monitor/src/internal/actions"
	"github.com/maksimkurb/openwrt-monitor/src/internal/config"
	"github.com/maksimkurb/openwrt-monitor/src/internal/coordinator"
	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
	"github.com/maksimkurb/openwrt-monitor/src/internal/metrics"
)

// Instance is everything that belongs to one configured router.
// Instances share nothing except the request pool and the metrics recorder.
type Instance struct {
	Config      *config.RouterConfig
	Client      *luci.Client
	Coordinator *coordinator.Coordinator
	Dispatcher  *actions.Dispatcher
	Actions     []actions.Named
}

// Name returns the router name.
func (i *Instance) Name() string {
	return i.Config.Name
}

// AppDependencies is a dependency injection container that holds all application dependencies.
//
// Usage:
//
//	deps, err := core.NewAppDependencies(core.AppConfig{Config: cfg})
//	for _, inst := range deps.Instances() {
//	    go inst.Coordinator.Run(ctx)
//	}
type AppDependencies struct {
	pool      *luci.Pool
	recorder  *metrics.Recorder
	instances []*Instance
	byName    map[string]*Instance
}

// AppConfig holds configuration for creating application dependencies.
type AppConfig struct {
	// Config is the validated application configuration.
	Config *config.Config

	// HTTPClient replaces the default router HTTP client. Used by tests.
	HTTPClient luci.HTTPClient

	// Recorder receives poll, login and action outcomes.
	// If nil, a fresh recorder is created.
	Recorder *metrics.Recorder
}

// NewAppDependencies builds one instance per configured router.
func NewAppDependencies(cfg AppConfig) (*AppDependencies, error) {
	if cfg.Config == nil || cfg.Config.General == nil {
		return nil, errors.NewConfigError("configuration is not loaded", nil)
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}

	d := &AppDependencies{
		pool:     luci.NewPool(cfg.Config.General.MaxConcurrentRequests),
		recorder: recorder,
		byName:   make(map[string]*Instance, len(cfg.Config.Routers)),
	}

	for _, rc := range cfg.Config.Routers {
		inst, err := d.newInstance(rc, cfg.HTTPClient)
		if err != nil {
			return nil, err
		}
		d.instances = append(d.instances, inst)
		d.byName[rc.Name] = inst
	}

	return d, nil
}

func (d *AppDependencies) newInstance(rc *config.RouterConfig, httpClient luci.HTTPClient) (*Instance, error) {
	set, err := actions.BuildSet(rc)
	if err != nil {
		return nil, err
	}

	client := luci.NewClient(luci.Credentials{
		Host:     rc.Host,
		Username: rc.Username,
		Password: rc.Password,
	}, luci.Options{
		Name:           rc.Name,
		HTTPClient:     httpClient,
		Pool:           d.pool,
		TokenTTL:       rc.TokenTTL(),
		RequestTimeout: rc.RequestTimeout(),
	})
	if rc.Protocol != "" && rc.Protocol != config.ProtocolAuto {
		client.PinMode(luci.Mode(rc.Protocol))
	}

	coord := coordinator.New(client, coordinator.Options{
		Name:     rc.Name,
		Interval: rc.UpdateInterval(),
		Recorder: d.recorder,
	})

	dispatcher := actions.NewDispatcher(coord, client, actions.DispatcherOptions{
		Name:             rc.Name,
		IgnoreFormValues: rc.IgnoreFormValues,
		Recorder:         d.recorder,
	})

	return &Instance{
		Config:      rc,
		Client:      client,
		Coordinator: coord,
		Dispatcher:  dispatcher,
		Actions:     set,
	}, nil
}

// Instances returns the router instances in configuration order.
func (d *AppDependencies) Instances() []*Instance {
	return d.instances
}

// Instance returns the router instance with the given name.
func (d *AppDependencies) Instance(name string) (*Instance, bool) {
	inst, ok := d.byName[name]
	return inst, ok
}

// Pool returns the process-wide request pool.
func (d *AppDependencies) Pool() *luci.Pool {
	return d.pool
}

// Recorder returns the metrics recorder.
func (d *AppDependencies) Recorder() *metrics.Recorder {
	return d.recorder
}

// Snapshots reports the cached state of every instance for the metrics collector.
func (d *AppDependencies) Snapshots() []metrics.RouterSnapshot {
	out := make([]metrics.RouterSnapshot, 0, len(d.instances))
	for _, inst := range d.instances {
		out = append(out, metrics.RouterSnapshot{
			Name:     inst.Name(),
			Up:       inst.Coordinator.Available(),
			Snapshot: inst.Coordinator.Data(),
		})
	}
	return out
}

// NewTestDependencies creates a container from prebuilt instances.
//
// This is a convenience method for testing: instances may carry coordinators
// and dispatchers built on mocks.
func NewTestDependencies(recorder *metrics.Recorder, instances ...*Instance) *AppDependencies {
	d := &AppDependencies{
		pool:     luci.NewPool(config.DefaultMaxConcurrentRequests),
		recorder: recorder,
		byName:   make(map[string]*Instance, len(instances)),
	}
	for _, inst := range instances {
		d.instances = append(d.instances, inst)
		d.byName[inst.Name()] = inst
	}
	return d
}
