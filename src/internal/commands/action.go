package commands

import (
	"flag"
	"fmt"
	"strings"

	"github.com/maksimkurb/openwrt-monitor/src/internal/actions"
	"github.com/maksimkurb/openwrt-monitor/src/internal/core"
)

func CreateActionCommand() *ActionCommand {
	ac := &ActionCommand{
		fs: flag.NewFlagSet("action", flag.ExitOnError),
	}
	ac.fs.StringVar(&ac.router, "router", "", "Router to act on (required)")
	ac.fs.StringVar(&ac.name, "name", "", "Configured action to run")
	ac.fs.StringVar(&ac.kind, "kind", "", "Ad-hoc action kind: reboot, reconnect_interface, run_script, submit_form")
	ac.fs.StringVar(&ac.params.Target, "target", "", "Interface or form target of an ad-hoc action")
	ac.fs.StringVar(&ac.params.Command, "command", "", "Command of an ad-hoc run_script action")
	ac.fs.StringVar(&ac.params.Page, "page", "", "Form page of an ad-hoc submit_form action")
	ac.fs.BoolVar(&ac.list, "list", false, "List the configured actions and exit")
	return ac
}

// ActionCommand runs one action against a router and reports the outcome.
//
// Arguments after the flags become run_script arguments.
type ActionCommand struct {
	fs     *flag.FlagSet
	ctx    *AppContext
	deps   *core.AppDependencies
	inst   *core.Instance
	router string
	name   string
	kind   string
	params actions.Params
	list   bool
}

func (c *ActionCommand) Name() string {
	return c.fs.Name()
}

func (c *ActionCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	c.params.Args = c.fs.Args()

	if c.router == "" {
		return fmt.Errorf("-router is required")
	}
	if !c.list && (c.name == "") == (c.kind == "") {
		return fmt.Errorf("exactly one of -name or -kind is required")
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	if c.deps, err = core.NewAppDependencies(core.AppConfig{Config: cfg}); err != nil {
		return err
	}

	inst, ok := c.deps.Instance(c.router)
	if !ok {
		return fmt.Errorf("router %q is not configured", c.router)
	}
	c.inst = inst
	return nil
}

func (c *ActionCommand) Run() error {
	out := c.ctx.out()

	if c.list {
		for _, n := range c.inst.Actions {
			fmt.Fprintf(out, "%-20s %-20s %s\n", n.Name, n.Action.Kind(), n.Action)
		}
		return nil
	}

	action, err := c.resolve()
	if err != nil {
		return err
	}

	ctx, cancel := oneShotContext()
	defer cancel()

	if err := c.inst.Dispatcher.Run(ctx, action); err != nil {
		return fmt.Errorf("%s: %s failed: %w", c.router, action, err)
	}
	fmt.Fprintf(out, "%s: %s sent\n", c.router, action)
	return nil
}

func (c *ActionCommand) resolve() (actions.Action, error) {
	if c.name != "" {
		a, ok := actions.Find(c.inst.Actions, c.name)
		if !ok {
			names := make([]string, 0, len(c.inst.Actions))
			for _, n := range c.inst.Actions {
				names = append(names, n.Name)
			}
			return nil, fmt.Errorf("action %q is not configured for %s (available: %s)", c.name, c.router, strings.Join(names, ", "))
		}
		return a, nil
	}
	return actions.Resolve(actions.Kind(c.kind), c.params)
}
