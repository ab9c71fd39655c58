package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/maksimkurb/openwrt-monitor/src/internal/config"
	"github.com/maksimkurb/openwrt-monitor/src/internal/core"
)

// oneShotTimeout bounds CLI commands that talk to routers.
const oneShotTimeout = 60 * time.Second

type Runner interface {
	Init(args []string, globalArgs *AppContext) error
	Run() error
	Name() string
}

type AppContext struct {
	ConfigPath string
	Verbose    bool
	// Out receives command output. Defaults to os.Stdout.
	Out io.Writer
}

func (c *AppContext) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// loadAndValidateConfigOrFail loads configuration from file and validates it.
func loadAndValidateConfigOrFail(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return cfg, nil
}

// selectInstances returns the named router, or every router when name is empty.
func selectInstances(deps *core.AppDependencies, name string) ([]*core.Instance, error) {
	if name == "" {
		return deps.Instances(), nil
	}
	inst, ok := deps.Instance(name)
	if !ok {
		return nil, fmt.Errorf("router %q is not configured", name)
	}
	return []*core.Instance{inst}, nil
}

func oneShotContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), oneShotTimeout)
}
