package commands

import (
	"flag"
	"fmt"

	"github.com/maksimkurb/openwrt-monitor/src/internal/actions"
	"github.com/maksimkurb/openwrt-monitor/src/internal/config"
)

func CreateCheckConfigCommand() *CheckConfigCommand {
	return &CheckConfigCommand{
		fs: flag.NewFlagSet("check-config", flag.ExitOnError),
	}
}

// CheckConfigCommand validates the configuration file without contacting any router.
type CheckConfigCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
}

func (c *CheckConfigCommand) Name() string {
	return c.fs.Name()
}

func (c *CheckConfigCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx
	return c.fs.Parse(args)
}

func (c *CheckConfigCommand) Run() error {
	cfg, err := config.LoadConfig(c.ctx.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}

	out := c.ctx.out()
	for _, rc := range cfg.Routers {
		set, err := actions.BuildSet(rc)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s, protocol %s, every %v, %d action(s)\n",
			rc.Name, rc.Host, rc.Protocol, rc.UpdateInterval(), len(set))
	}
	fmt.Fprintf(out, "Configuration OK: %d router(s)\n", len(cfg.Routers))
	return nil
}
