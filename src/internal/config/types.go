package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultAPIListen             = "0.0.0.0:12121"
	DefaultMaxConcurrentRequests = 4
	DefaultUpdateIntervalSeconds = 10
	MinUpdateIntervalSeconds     = 5
	MaxUpdateIntervalSeconds     = 3600
	DefaultTokenTTLSeconds       = 7200
	DefaultRequestTimeoutSeconds = 10
)

// Protocol selection for a router instance.
const (
	ProtocolAuto   = "auto"
	ProtocolUbus   = "ubus"
	ProtocolLegacy = "legacy"
)

// Action kinds accepted in [[router.action]] blocks.
const (
	ActionKindReboot             = "reboot"
	ActionKindReconnectInterface = "reconnect_interface"
	ActionKindRunScript          = "run_script"
	ActionKindSubmitForm         = "submit_form"
)

type Config struct {
	// General holds general configuration.
	General *GeneralConfig `toml:"general" yaml:"general" json:"general"`
	// Routers lists every router instance to poll. Instances are fully isolated from each other.
	Routers []*RouterConfig `toml:"router,omitempty" yaml:"router,omitempty" json:"router,omitempty"`

	_absConfigFilePath string
}

type GeneralConfig struct {
	// APIEnabled enables the HTTP API and /metrics endpoint (default: true).
	APIEnabled *bool `toml:"api_enabled" yaml:"api_enabled" json:"api_enabled"`
	// APIListen is the address the API listens on (default: 0.0.0.0:12121).
	APIListen string `toml:"api_listen" yaml:"api_listen" json:"api_listen" validate:"omitempty,listen_addr"`
	// MaxConcurrentRequests bounds outbound HTTP calls across all routers (default: 4).
	MaxConcurrentRequests int `toml:"max_concurrent_requests" yaml:"max_concurrent_requests" json:"max_concurrent_requests" validate:"min=0,max=64"`
	// Verbose enables debug logging.
	Verbose bool `toml:"verbose" yaml:"verbose" json:"verbose"`
}

type RouterConfig struct {
	// Name identifies the router instance in logs, metrics and the API.
	Name string `toml:"name" yaml:"name" json:"name" validate:"required,router_name"`
	// Host is the scheme and authority of the LuCI interface, e.g. "http://192.168.1.1".
	Host string `toml:"host" yaml:"host" json:"host" validate:"required,router_host"`
	// Username for the LuCI login form.
	Username string `toml:"username" yaml:"username" json:"username" validate:"required"`
	// Password for the LuCI login form.
	Password string `toml:"password" yaml:"password" json:"-"`
	// UpdateIntervalSeconds is the poll interval (default: 10, range 5..3600).
	UpdateIntervalSeconds int `toml:"update_interval_seconds" yaml:"update_interval_seconds" json:"update_interval_seconds" validate:"min=5,max=3600"`
	// TokenTTLSeconds is how long a session token is trusted after login (default: 7200).
	// A 401/403 from the router always wins over this value.
	TokenTTLSeconds int `toml:"token_ttl_seconds" yaml:"token_ttl_seconds" json:"token_ttl_seconds" validate:"min=60,max=86400"`
	// RequestTimeoutSeconds bounds every single HTTP request (default: 10).
	RequestTimeoutSeconds int `toml:"request_timeout_seconds" yaml:"request_timeout_seconds" json:"request_timeout_seconds" validate:"min=1,max=60"`
	// Protocol forces the data protocol: auto, ubus or legacy (default: auto).
	Protocol string `toml:"protocol" yaml:"protocol" json:"protocol" validate:"oneof=auto ubus legacy"`
	// IgnoreFormValues are extra button labels dropped when harvesting form fields.
	IgnoreFormValues []string `toml:"ignore_form_values,omitempty" yaml:"ignore_form_values,omitempty" json:"ignore_form_values,omitempty"`
	// Actions are the named actions exposed for this router.
	Actions []*ActionConfig `toml:"action,omitempty" yaml:"action,omitempty" json:"action,omitempty" validate:"dive"`
}

type ActionConfig struct {
	// Name identifies the action within its router.
	Name string `toml:"name" yaml:"name" json:"name" validate:"required,router_name"`
	// Kind is one of reboot, reconnect_interface, run_script, submit_form.
	Kind string `toml:"kind" yaml:"kind" json:"kind" validate:"required,action_kind"`
	// Target is the interface for reconnect_interface, or the form action path for submit_form.
	Target string `toml:"target,omitempty" yaml:"target,omitempty" json:"target,omitempty"`
	// Command is the executable for run_script.
	Command string `toml:"command,omitempty" yaml:"command,omitempty" json:"command,omitempty"`
	// Args are the run_script arguments.
	Args []string `toml:"args,omitempty" yaml:"args,omitempty" json:"args,omitempty"`
	// Page is the LuCI page that carries the form token for submit_form.
	Page string `toml:"page,omitempty" yaml:"page,omitempty" json:"page,omitempty"`
	// Fields are extra form fields for submit_form. Values may reference {{token}}.
	Fields map[string]string `toml:"fields,omitempty" yaml:"fields,omitempty" json:"fields,omitempty"`
}

func (c *Config) GetConfigDir() string {
	return filepath.Dir(c._absConfigFilePath)
}

// GetConfigPath returns the absolute path the configuration was loaded from.
func (c *Config) GetConfigPath() string {
	return c._absConfigFilePath
}

// ApplyDefaults fills unset fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.General == nil {
		c.General = &GeneralConfig{}
	}
	if c.General.APIListen == "" {
		c.General.APIListen = DefaultAPIListen
	}
	if c.General.MaxConcurrentRequests == 0 {
		c.General.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}

	for _, r := range c.Routers {
		if r.UpdateIntervalSeconds == 0 {
			r.UpdateIntervalSeconds = DefaultUpdateIntervalSeconds
		}
		if r.TokenTTLSeconds == 0 {
			r.TokenTTLSeconds = DefaultTokenTTLSeconds
		}
		if r.RequestTimeoutSeconds == 0 {
			r.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
		}
		if r.Protocol == "" {
			r.Protocol = ProtocolAuto
		}
	}
}

// IsAPIEnabled returns whether the HTTP API should be started.
func (g *GeneralConfig) IsAPIEnabled() bool {
	return g.APIEnabled == nil || *g.APIEnabled
}

func (r *RouterConfig) UpdateInterval() time.Duration {
	return time.Duration(r.UpdateIntervalSeconds) * time.Second
}

func (r *RouterConfig) TokenTTL() time.Duration {
	return time.Duration(r.TokenTTLSeconds) * time.Second
}

func (r *RouterConfig) RequestTimeout() time.Duration {
	return time.Duration(r.RequestTimeoutSeconds) * time.Second
}

// FindRouter returns the router with the given name, or nil.
func (c *Config) FindRouter(name string) *RouterConfig {
	for _, r := range c.Routers {
		if r.Name == name {
			return r
		}
	}
	return nil
}
