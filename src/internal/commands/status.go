package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/maksimkurb/openwrt-monitor/src/internal/core"
	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
	"github.com/maksimkurb/openwrt-monitor/src/internal/utils"
)

func CreateStatusCommand() *StatusCommand {
	sc := &StatusCommand{
		fs: flag.NewFlagSet("status", flag.ExitOnError),
	}
	sc.fs.StringVar(&sc.router, "router", "", "Only query the named router")
	sc.fs.BoolVar(&sc.asJSON, "json", false, "Print snapshots as JSON")
	return sc
}

// StatusCommand polls routers once and prints their snapshots.
type StatusCommand struct {
	fs     *flag.FlagSet
	ctx    *AppContext
	deps   *core.AppDependencies
	router string
	asJSON bool
}

func (c *StatusCommand) Name() string {
	return c.fs.Name()
}

func (c *StatusCommand) Init(args []string, ctx *AppContext) error {
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

type routerResult struct {
	Router   string              `json:"router"`
	Snapshot *luci.Snapshot      `json:"snapshot,omitempty"`
	Identity luci.DeviceIdentity `json:"identity"`
	Mode     luci.Mode           `json:"mode,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func (c *StatusCommand) Run() error {
	instances, err := selectInstances(c.deps, c.router)
	if err != nil {
		return err
	}

	ctx, cancel := oneShotContext()
	defer cancel()

	// Routers are independent; one failing does not cancel the others.
	results := make([]routerResult, len(instances))
	g, gctx := errgroup.WithContext(ctx)
	for i, inst := range instances {
		g.Go(func() error {
			results[i] = pollOnce(gctx, inst)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	out := c.ctx.out()
	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printResult(out, r)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d router(s) could not be polled", failed, len(results))
	}
	return nil
}

func pollOnce(ctx context.Context, inst *core.Instance) routerResult {
	res := routerResult{Router: inst.Name()}
	if err := inst.Coordinator.FirstRefresh(ctx); err != nil {
		res.Error = err.Error()
		return res
	}
	snap := inst.Coordinator.Data()
	res.Snapshot = snap
	res.Identity = snap.Identity.WithDefaults()
	res.Mode = snap.Mode
	return res
}

func printResult(w io.Writer, r routerResult) {
	if r.Error != "" {
		fmt.Fprintf(w, "%s: ERROR %s\n\n", r.Router, r.Error)
		return
	}

	fmt.Fprintf(w, "%s: %s %s (%s) via %s\n", r.Router, r.Identity.Name, r.Identity.Model, r.Identity.SWVersion, r.Mode)

	keys := make([]string, 0, len(r.Snapshot.Values))
	for k := range r.Snapshot.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "  %-28s %s\n", k, formatValue(k, r.Snapshot.Values))
	}
	if len(r.Snapshot.Interfaces) > 0 {
		fmt.Fprintf(w, "  %-28s %s\n", luci.KeyAvailableInterfaces, strings.Join(r.Snapshot.Interfaces, ", "))
	}
	fmt.Fprintln(w)
}

func formatValue(key string, values luci.Metrics) string {
	if strings.HasSuffix(key, luci.SuffixUptime) {
		if v, ok := values.Float(key); ok {
			return utils.FormatUptime(int64(v))
		}
	}
	return fmt.Sprint(values[key])
}
