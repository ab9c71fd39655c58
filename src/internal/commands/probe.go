package commands

import (
	"flag"
	"fmt"

	"github.com/maksimkurb/openwrt-monitor/src/internal/core"
)

func CreateProbeCommand() *ProbeCommand {
	pc := &ProbeCommand{
		fs: flag.NewFlagSet("probe", flag.ExitOnError),
	}
	pc.fs.StringVar(&pc.router, "router", "", "Only probe the named router")
	return pc
}

// ProbeCommand logs in and reports which data protocol each router speaks.
type ProbeCommand struct {
	fs     *flag.FlagSet
	ctx    *AppContext
	deps   *core.AppDependencies
	router string
}

func (c *ProbeCommand) Name() string {
	return c.fs.Name()
}

func (c *ProbeCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx
	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.deps, err = core.NewAppDependencies(core.AppConfig{Config: cfg})
	return err
}

func (c *ProbeCommand) Run() error {
	instances, err := selectInstances(c.deps, c.router)
	if err != nil {
		return err
	}

	ctx, cancel := oneShotContext()
	defer cancel()

	out := c.ctx.out()
	failed := 0
	for _, inst := range instances {
		token, err := inst.Client.Login(ctx)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: login failed: %v\n", inst.Name(), err)
			continue
		}

		proto, err := inst.Client.Protocol(ctx, token)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: probe failed: %v\n", inst.Name(), err)
			continue
		}

		pinned := "detected"
		if inst.Config.Protocol != "" && string(proto.Mode()) == inst.Config.Protocol {
			pinned = "configured"
		}
		fmt.Fprintf(out, "%s: %s (%s)\n", inst.Name(), proto.Mode(), pinned)
	}

	if failed > 0 {
		return fmt.Errorf("%d router(s) could not be probed", failed)
	}
	return nil
}
