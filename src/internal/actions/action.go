package actions

import (
	"fmt"
	"strings"

	"github.com/maksimkurb/openwrt-monitor/src/internal/config"
	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
)

// Kind names an action type as it appears in configuration.
type Kind string

const (
	KindReboot             Kind = config.ActionKindReboot
	KindReconnectInterface Kind = config.ActionKindReconnectInterface
	KindRunScript          Kind = config.ActionKindRunScript
	KindSubmitForm         Kind = config.ActionKindSubmitForm
)

// Action is one of Reboot, ReconnectInterface, RunScript or SubmitForm.
type Action interface {
	Kind() Kind
	String() string
	sealed()
}

type Reboot struct{}

type ReconnectInterface struct {
	Interface string
}

type RunScript struct {
	Command string
	Args    []string
}

// SubmitForm posts a LuCI form. Page is fetched for the form token and its
// inputs; Target receives the POST. Field values may reference {{token}}.
type SubmitForm struct {
	Page   string
	Target string
	Fields map[string]string
}

func (Reboot) Kind() Kind             { return KindReboot }
func (ReconnectInterface) Kind() Kind { return KindReconnectInterface }
func (RunScript) Kind() Kind          { return KindRunScript }
func (SubmitForm) Kind() Kind         { return KindSubmitForm }

func (Reboot) sealed()             {}
func (ReconnectInterface) sealed() {}
func (RunScript) sealed()          {}
func (SubmitForm) sealed()         {}

func (Reboot) String() string { return "reboot" }

func (a ReconnectInterface) String() string {
	return "reconnect " + a.Interface
}

func (a RunScript) String() string {
	return strings.TrimSpace("run " + a.Command + " " + strings.Join(a.Args, " "))
}

func (a SubmitForm) String() string {
	return "submit " + a.Target
}

// Named is an action bound to its configured name.
type Named struct {
	Name   string
	Action Action
}

// FromConfig resolves a configured action.
func FromConfig(ac *config.ActionConfig) (Action, error) {
	return Resolve(Kind(ac.Kind), Params{
		Target:  ac.Target,
		Command: ac.Command,
		Args:    ac.Args,
		Page:    ac.Page,
		Fields:  ac.Fields,
	})
}

// Params carries the kind-specific parameters of an action request.
type Params struct {
	Target  string            `json:"target,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Page    string            `json:"page,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Resolve builds an action from a kind and its parameters.
func Resolve(kind Kind, p Params) (Action, error) {
	switch kind {
	case KindReboot:
		return Reboot{}, nil
	case KindReconnectInterface:
		if p.Target == "" {
			return nil, errors.NewValidationError("reconnect_interface requires a target interface", nil)
		}
		return ReconnectInterface{Interface: p.Target}, nil
	case KindRunScript:
		if p.Command == "" {
			return nil, errors.NewValidationError("run_script requires a command", nil)
		}
		return RunScript{Command: p.Command, Args: append([]string(nil), p.Args...)}, nil
	case KindSubmitForm:
		if p.Page == "" || p.Target == "" {
			return nil, errors.NewValidationError("submit_form requires a page and a target", nil)
		}
		fields := make(map[string]string, len(p.Fields))
		for k, v := range p.Fields {
			fields[k] = v
		}
		return SubmitForm{Page: p.Page, Target: p.Target, Fields: fields}, nil
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown action kind %q", kind), nil)
	}
}

// BuildSet resolves every action configured for a router.
func BuildSet(rc *config.RouterConfig) ([]Named, error) {
	set := make([]Named, 0, len(rc.Actions))
	for _, ac := range rc.Actions {
		a, err := FromConfig(ac)
		if err != nil {
			return nil, errors.NewConfigError(fmt.Sprintf("router %s: action %s", rc.Name, ac.Name), err)
		}
		set = append(set, Named{Name: ac.Name, Action: a})
	}
	return set, nil
}

// Find returns the named action from set.
func Find(set []Named, name string) (Action, bool) {
	for _, n := range set {
		if n.Name == name {
			return n.Action, true
		}
	}
	return nil, false
}
