package luci

import (
	"encoding/json"
	"time"
)

const (
	// LoginPath is the LuCI dispatcher; a form POST here creates a session.
	LoginPath = "/cgi-bin/luci/"
	// UbusPath is the rpcd JSON-RPC endpoint.
	UbusPath = "/ubus/"

	// StatusPagePath is the legacy JSON status poll, relative to LoginPath.
	StatusPagePath = "?status=1"
	// OverviewPagePath is the legacy status overview page, relative to LoginPath.
	OverviewPagePath = "admin/status/overview"

	DefaultTokenTTL       = 2 * time.Hour
	DefaultRequestTimeout = 10 * time.Second

	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// Session cookie names in lookup priority order.
var sessionCookieNames = []string{"sysauth", "sysauth_http", "sysauth_https"}

// Mode is the data protocol used to talk to a router.
type Mode string

const (
	ModeUbus   Mode = "ubus"
	ModeLegacy Mode = "legacy"
)

// Credentials identify a router and the account used to log in.
// They are immutable for the lifetime of a router instance.
type Credentials struct {
	Host     string
	Username string
	Password string
}

const (
	DefaultDeviceName  = "OpenWrt"
	DefaultDeviceModel = "Router"
)

// DeviceIdentity describes the router itself.
type DeviceIdentity struct {
	Name      string `json:"name"`
	Model     string `json:"model"`
	SWVersion string `json:"sw_version"`
}

// IsZero reports whether no identity field has been resolved.
func (d DeviceIdentity) IsZero() bool {
	return d == DeviceIdentity{}
}

// WithDefaults fills empty name and model with placeholders.
func (d DeviceIdentity) WithDefaults() DeviceIdentity {
	if d.Name == "" {
		d.Name = DefaultDeviceName
	}
	if d.Model == "" {
		d.Model = DefaultDeviceModel
	}
	return d
}

// Metric keys produced by the parsers.
const (
	KeyUptime     = "openwrt_uptime"
	KeyCPU        = "openwrt_cpu"
	KeyCPUTemp    = "openwrt_cputemp"
	KeyMemory     = "openwrt_memory"
	KeyUserOnline = "openwrt_user_online"
	KeyConnCount  = "openwrt_conncount"

	// KeyAvailableInterfaces is the serialized name of Snapshot.Interfaces.
	KeyAvailableInterfaces = "_available_interfaces"

	SuffixIP     = "_ip"
	SuffixIPv6   = "_ipv6"
	SuffixUptime = "_uptime"
)

// InterfaceKey builds the metric key for a per-interface value, e.g. openwrt_wan_ip.
func InterfaceKey(iface, suffix string) string {
	return "openwrt_" + iface + suffix
}

// Metrics maps a metric key to a string, int64 or float64 value.
type Metrics map[string]any

// Float returns a numeric value as float64.
func (m Metrics) Float(key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// String returns a string value.
func (m Metrics) String(key string) (string, bool) {
	v, ok := m[key].(string)
	return v, ok
}

// Present reports whether key holds a value adapters should show:
// absent keys and empty strings are suppressed.
func (m Metrics) Present(key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString && s == "" {
		return false
	}
	return true
}

// Snapshot is the result of one successful poll cycle.
type Snapshot struct {
	Values     Metrics
	Interfaces []string
	Identity   DeviceIdentity
	Mode       Mode
	FetchedAt  time.Time
}

func newSnapshot() *Snapshot {
	return &Snapshot{Values: make(Metrics)}
}

// Flatten returns the values plus the interface side list under
// KeyAvailableInterfaces, which is the shape adapters consume.
func (s *Snapshot) Flatten() map[string]any {
	out := make(map[string]any, len(s.Values)+1)
	for k, v := range s.Values {
		out[k] = v
	}
	if s.Interfaces != nil {
		out[KeyAvailableInterfaces] = append([]string(nil), s.Interfaces...)
	}
	return out
}

// Clone returns a deep copy safe to hand to readers.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Values = make(Metrics, len(s.Values))
	for k, v := range s.Values {
		c.Values[k] = v
	}
	if s.Interfaces != nil {
		c.Interfaces = append([]string(nil), s.Interfaces...)
	}
	return &c
}

// MarshalJSON encodes the flattened view.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Flatten())
}
