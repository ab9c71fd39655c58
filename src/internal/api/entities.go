package api

import (
	"net/http"
	"strings"

	"github.com/maksimkurb/openwrt-monitor/src/internal/actions"
	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
	"github.com/maksimkurb/openwrt-monitor/src/internal/utils"
)

const (
	EntitySensor = "sensor"
	EntityButton = "button"
)

type sensorDescriptor struct {
	key         string // metric key, or key suffix for interface templates
	name        string
	unit        string
	deviceClass string
	humanUptime bool
}

var staticSensors = []sensorDescriptor{
	{key: luci.KeyUptime, name: "Uptime", unit: "s", deviceClass: "duration", humanUptime: true},
	{key: luci.KeyCPU, name: "CPU usage", unit: "%"},
	{key: luci.KeyCPUTemp, name: "CPU temperature", unit: "°C", deviceClass: "temperature"},
	{key: luci.KeyMemory, name: "Memory usage", unit: "%"},
	{key: luci.KeyUserOnline, name: "Online users"},
	{key: luci.KeyConnCount, name: "Active connections"},
}

// Per-interface templates; name takes the upper-cased interface name.
var interfaceSensors = []sensorDescriptor{
	{key: luci.SuffixIP, name: "%s IP"},
	{key: luci.SuffixIPv6, name: "%s IPv6"},
	{key: luci.SuffixUptime, name: "%s uptime", unit: "s", deviceClass: "duration", humanUptime: true},
}

// BuildEntities materializes sensors for every present value and a button per
// configured action. Absent keys and empty strings produce no sensor.
func BuildEntities(router string, snap *luci.Snapshot, set []actions.Named) []Entity {
	out := []Entity{}

	if snap != nil {
		for _, d := range staticSensors {
			if e, ok := sensorEntity(router, d.key, d.name, d, snap.Values); ok {
				out = append(out, e)
			}
		}
		for _, iface := range snap.Interfaces {
			for _, d := range interfaceSensors {
				key := luci.InterfaceKey(iface, d.key)
				name := strings.Replace(d.name, "%s", strings.ToUpper(iface), 1)
				if e, ok := sensorEntity(router, key, name, d, snap.Values); ok {
					out = append(out, e)
				}
			}
		}
	}

	for _, n := range set {
		e := Entity{
			ID:   router + "_" + n.Name,
			Type: EntityButton,
			Name: n.Name,
		}
		switch n.Action.Kind() {
		case actions.KindReboot, actions.KindReconnectInterface:
			e.DeviceClass = "restart"
		}
		out = append(out, e)
	}
	return out
}

func sensorEntity(router, key, name string, d sensorDescriptor, values luci.Metrics) (Entity, bool) {
	if !values.Present(key) {
		return Entity{}, false
	}
	e := Entity{
		ID:          router + "_" + key,
		Type:        EntitySensor,
		Name:        name,
		Key:         key,
		Unit:        d.unit,
		DeviceClass: d.deviceClass,
		Value:       values[key],
	}
	if d.humanUptime {
		if v, ok := values.Float(key); ok {
			e.State = utils.FormatUptime(int64(v))
		}
	}
	return e, true
}

// GetEntities returns sensor and button descriptors for a router.
// GET /api/v1/routers/{name}/entities
func (h *Handler) GetEntities(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}

	snap := inst.Coordinator.Data()
	device := luci.DeviceIdentity{}.WithDefaults()
	if snap != nil {
		device = snap.Identity.WithDefaults()
	}

	writeJSONData(w, EntitiesResponse{
		Router:   inst.Name(),
		Device:   device,
		Entities: BuildEntities(inst.Name(), snap, inst.Actions),
	})
}
