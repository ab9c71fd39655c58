package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/maksimkurb/openwrt-monitor/src/internal/domain"
	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
	"github.com/maksimkurb/openwrt-monitor/src/internal/log"
	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
)

// LuCI pages used by the legacy form style.
const (
	rebootPage       = "admin/system/reboot"
	rebootTarget     = "admin/system/reboot/call"
	networkPage      = "admin/network/network"
	reconnectTarget  = "admin/network/iface_reconnect/"
	ifupCommand      = "/sbin/ifup"
	tokenPlaceholder = "{{token}}"
)

// Recorder counts action outcomes. A nil Recorder is allowed.
type Recorder interface {
	ObserveAction(router, kind, result string)
}

// DispatcherOptions configure a Dispatcher.
type DispatcherOptions struct {
	Name string
	// IgnoreFormValues extends DefaultIgnoredValues.
	IgnoreFormValues []string
	Recorder         Recorder
}

// Dispatcher runs actions against one router.
type Dispatcher struct {
	name      string
	runner    domain.SessionRunner
	transport domain.RouterTransport
	ignore    map[string]struct{}
	recorder  Recorder
	logger    *log.Logger
}

// NewDispatcher creates a dispatcher that obtains sessions from runner and
// issues calls through transport.
func NewDispatcher(runner domain.SessionRunner, transport domain.RouterTransport, opts DispatcherOptions) *Dispatcher {
	return &Dispatcher{
		name:      opts.Name,
		runner:    runner,
		transport: transport,
		ignore:    ignoreSet(opts.IgnoreFormValues),
		recorder:  opts.Recorder,
		logger:    log.Router(opts.Name),
	}
}

// Execute runs a best effort. The outcome is only logged and counted.
func (d *Dispatcher) Execute(ctx context.Context, a Action) {
	_ = d.Run(ctx, a)
}

// Run executes a and reports the outcome to the caller as well.
func (d *Dispatcher) Run(ctx context.Context, a Action) error {
	err := d.runner.Exclusive(ctx, func(ctx context.Context, token string, mode luci.Mode) error {
		return d.dispatch(ctx, token, mode, a)
	})

	result := "success"
	switch {
	case err == nil:
		d.logger.Infof("Action %q sent", a)
	case errors.IsAuth(err):
		result = "auth_error"
		d.logger.Warnf("Action %q rejected, session is no longer valid: %v", a, err)
	default:
		result = "error"
		d.logger.Errorf("Action %q failed: %v", a, err)
	}
	if d.recorder != nil {
		d.recorder.ObserveAction(d.name, string(a.Kind()), result)
	}
	return err
}

func (d *Dispatcher) dispatch(ctx context.Context, token string, mode luci.Mode, a Action) error {
	switch act := a.(type) {
	case RunScript:
		return d.viaUbus(ctx, token, act)
	case SubmitForm:
		return d.submitForm(ctx, token, act)
	}

	if mode == luci.ModeLegacy {
		return d.viaForm(ctx, token, a)
	}
	return d.viaUbus(ctx, token, a)
}

func ubusCall(a Action) (luci.UbusCall, bool) {
	switch act := a.(type) {
	case Reboot:
		return luci.RebootCall(), true
	case ReconnectInterface:
		return luci.ExecCall(ifupCommand, []string{act.Interface}), true
	case RunScript:
		return luci.ExecCall(act.Command, act.Args), true
	}
	return luci.UbusCall{}, false
}

func (d *Dispatcher) viaUbus(ctx context.Context, token string, a Action) error {
	call, ok := ubusCall(a)
	if !ok {
		return errors.NewValidationError(fmt.Sprintf("%s cannot be sent over ubus", a.Kind()), nil)
	}

	replies, err := d.transport.CallUbus(ctx, token, []luci.UbusCall{call})
	if err != nil {
		return err
	}
	if len(replies) == 0 {
		return nil
	}
	if e := replies[0].Error; e != nil {
		return errors.NewConnectionError(fmt.Sprintf("ubus error %d: %s", e.Code, e.Message), nil)
	}
	if code, ok := replies[0].Status(); ok && code != 0 {
		return errors.NewConnectionError(fmt.Sprintf("%s.%s returned status %d", call.Object, call.Method, code), nil)
	}
	return nil
}

// legacyForm returns the page carrying the form token and the POST target.
func legacyForm(a Action) (page, target string, ok bool) {
	switch act := a.(type) {
	case Reboot:
		return rebootPage, rebootTarget, true
	case ReconnectInterface:
		return networkPage, reconnectTarget + act.Interface, true
	}
	return "", "", false
}

// viaForm posts the LuCI form for a, falling back to ubus when the page
// carries no form token.
func (d *Dispatcher) viaForm(ctx context.Context, token string, a Action) error {
	page, target, ok := legacyForm(a)
	if !ok {
		return d.viaUbus(ctx, token, a)
	}

	body, err := d.transport.GetPage(ctx, token, page)
	if err != nil {
		return err
	}
	formToken := ScrapeToken(body)
	if formToken == "" {
		d.logger.Debugf("No form token on %s, falling back to ubus", page)
		return d.viaUbus(ctx, token, a)
	}

	form := RenderFields(map[string]string{"token": tokenPlaceholder}, formToken)
	return d.transport.PostForm(ctx, token, target, form)
}

func (d *Dispatcher) submitForm(ctx context.Context, token string, f SubmitForm) error {
	body, err := d.transport.GetPage(ctx, token, f.Page)
	if err != nil {
		return err
	}
	formToken := ScrapeToken(body)
	if formToken == "" {
		return errors.NewParseError(fmt.Sprintf("no form token on %s", strings.TrimPrefix(f.Page, "/")), nil)
	}

	form := HarvestForm(body, d.ignore)
	for k, v := range RenderFields(f.Fields, formToken) {
		form[k] = v
	}
	form.Set("token", formToken)

	return d.transport.PostForm(ctx, token, f.Target, form)
}
