package api

import (
	"time"

	"github.com/maksimkurb/openwrt-monitor/src/internal/actions"
	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
)

// DataResponse wraps successful responses with a "data" field.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// SnapshotResponse is the last good snapshot of a router.
type SnapshotResponse struct {
	Router    string              `json:"router"`
	Mode      luci.Mode           `json:"mode"`
	FetchedAt time.Time           `json:"fetched_at"`
	Identity  luci.DeviceIdentity `json:"identity"`
	Values    *luci.Snapshot      `json:"values"`
}

// ActionInfo describes a configured action.
type ActionInfo struct {
	Name        string       `json:"name"`
	Kind        actions.Kind `json:"kind"`
	Description string       `json:"description"`
}

// ActionRequest is an ad-hoc action: a kind plus its parameters.
type ActionRequest struct {
	Kind actions.Kind `json:"kind"`
	actions.Params
}

// ActionResponse reports an accepted or completed action.
type ActionResponse struct {
	Router string `json:"router"`
	Action string `json:"action"`
	Status string `json:"status"`
}

// Entity is a sensor or button descriptor materialized from a snapshot.
type Entity struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Key         string `json:"key,omitempty"`
	Unit        string `json:"unit,omitempty"`
	DeviceClass string `json:"device_class,omitempty"`
	Value       any    `json:"value,omitempty"`
	// State is a display rendering, e.g. "1d 2h 3m" for uptimes.
	State string `json:"state,omitempty"`
}

// EntitiesResponse groups the entities of one router under its device.
type EntitiesResponse struct {
	Router   string              `json:"router"`
	Device   luci.DeviceIdentity `json:"device"`
	Entities []Entity            `json:"entities"`
}

// HealthCheckResponse returns health check results.
type HealthCheckResponse struct {
	Healthy bool                   `json:"healthy"`
	Checks  map[string]CheckResult `json:"checks"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}
