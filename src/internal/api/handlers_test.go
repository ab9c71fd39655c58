package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/maksimkurb/openwrt-monitor/src/internal/actions"
	"github.com/maksimkurb/openwrt-monitor/src/internal/coordinator"
	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
)

func TestGetRouters(t *testing.T) {
	home := newTestRouter("home")
	office := newTestRouter("office")
	h, _ := newTestHandler(home, office)

	if err := home.instance.Coordinator.FirstRefresh(context.Background()); err != nil {
		t.Fatalf("FirstRefresh() error = %v", err)
	}

	rec := doRequest(t, h, http.MethodGet, "/api/v1/routers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var statuses []coordinator.Status
	decodeData(t, rec, &statuses)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 routers, got %d", len(statuses))
	}
	if statuses[0].Name != "home" || !statuses[0].Available {
		t.Errorf("home status = %+v", statuses[0])
	}
	if statuses[1].Name != "office" || statuses[1].Available {
		t.Errorf("office status = %+v", statuses[1])
	}
}

func TestGetSnapshot(t *testing.T) {
	tr := newTestRouter("home")
	tr.proto.FetchSnapshotFunc = func(context.Context, string) (*luci.Snapshot, error) {
		return sampleSnapshot(), nil
	}
	h, _ := newTestHandler(tr)

	t.Run("before first poll", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/routers/home/snapshot", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	if err := tr.instance.Coordinator.FirstRefresh(context.Background()); err != nil {
		t.Fatalf("FirstRefresh() error = %v", err)
	}

	t.Run("after poll", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/routers/home/snapshot", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var resp struct {
			Router   string              `json:"router"`
			Mode     string              `json:"mode"`
			Identity luci.DeviceIdentity `json:"identity"`
			Values   map[string]any      `json:"values"`
		}
		decodeData(t, rec, &resp)
		if resp.Router != "home" || resp.Mode != "ubus" {
			t.Errorf("resp = %+v", resp)
		}
		if resp.Identity.Model != "Xiaomi AX3600" {
			t.Errorf("identity = %+v", resp.Identity)
		}
		if resp.Values["openwrt_wan_ip"] != "203.0.113.7" {
			t.Errorf("values = %v", resp.Values)
		}
		ifaces, ok := resp.Values[luci.KeyAvailableInterfaces].([]any)
		if !ok || len(ifaces) != 2 {
			t.Errorf("_available_interfaces = %v", resp.Values[luci.KeyAvailableInterfaces])
		}
	})

	t.Run("unknown router", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/routers/nope/snapshot", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
		if decodeError(t, rec).Code != ErrCodeNotFound {
			t.Errorf("unexpected error body %s", rec.Body.String())
		}
	})
}

func TestGetDevice(t *testing.T) {
	tr := newTestRouter("home")
	tr.proto.FetchSnapshotFunc = func(context.Context, string) (*luci.Snapshot, error) {
		return &luci.Snapshot{Values: luci.Metrics{}}, nil
	}
	tr.proto.FetchIdentityFunc = func(context.Context, string) (luci.DeviceIdentity, error) {
		return luci.DeviceIdentity{SWVersion: "OpenWrt 21.02"}, nil
	}
	h, _ := newTestHandler(tr)

	if err := tr.instance.Coordinator.FirstRefresh(context.Background()); err != nil {
		t.Fatalf("FirstRefresh() error = %v", err)
	}

	rec := doRequest(t, h, http.MethodGet, "/api/v1/routers/home/device", "")
	var id luci.DeviceIdentity
	decodeData(t, rec, &id)

	want := luci.DeviceIdentity{Name: luci.DefaultDeviceName, Model: luci.DefaultDeviceModel, SWVersion: "OpenWrt 21.02"}
	if id != want {
		t.Errorf("device = %+v, want %+v", id, want)
	}
}

func TestRefresh(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tr := newTestRouter("home")
		h, _ := newTestHandler(tr)

		rec := doRequest(t, h, http.MethodPost, "/api/v1/routers/home/refresh", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if tr.proto.FetchCalls() != 1 {
			t.Errorf("fetch calls = %d, want 1", tr.proto.FetchCalls())
		}
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
		wantReason string
	}{
		{
			name:       "rejected credentials",
			err:        errors.NewAuthError("login rejected", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeRouterRejected,
			wantReason: string(errors.ErrCodeUpdateFailed),
		},
		{
			name:       "unreachable",
			err:        errors.NewConnectionError("dial tcp: connection refused", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeUnavailable,
			wantReason: string(errors.ErrCodeUpdateFailed),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter("home")
			tr.client.LoginFunc = func(context.Context) (string, error) { return "", tt.err }
			h, _ := newTestHandler(tr)

			rec := doRequest(t, h, http.MethodPost, "/api/v1/routers/home/refresh", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			apiErr := decodeError(t, rec)
			if apiErr.Code != tt.wantCode || apiErr.Reason != tt.wantReason {
				t.Errorf("error = %+v", apiErr)
			}
		})
	}
}

func TestActions(t *testing.T) {
	set := []actions.Named{
		{Name: "restart", Action: actions.Reboot{}},
		{Name: "reconnect_wan", Action: actions.ReconnectInterface{Interface: "wan"}},
	}

	t.Run("list", func(t *testing.T) {
		h, _ := newTestHandler(newTestRouter("home", set...))

		rec := doRequest(t, h, http.MethodGet, "/api/v1/routers/home/actions", "")
		var infos []ActionInfo
		decodeData(t, rec, &infos)
		if len(infos) != 2 || infos[1].Kind != actions.KindReconnectInterface || infos[1].Description != "reconnect wan" {
			t.Errorf("actions = %+v", infos)
		}
	})

	t.Run("run configured", func(t *testing.T) {
		tr := newTestRouter("home", set...)
		h, _ := newTestHandler(tr)

		rec := doRequest(t, h, http.MethodPost, "/api/v1/routers/home/actions/restart", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if len(tr.transport.UbusCalls) != 1 || tr.transport.UbusCalls[0].Calls[0].Method != "reboot" {
			t.Errorf("ubus calls = %+v", tr.transport.UbusCalls)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		h, _ := newTestHandler(newTestRouter("home", set...))

		rec := doRequest(t, h, http.MethodPost, "/api/v1/routers/home/actions/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("rejected session", func(t *testing.T) {
		tr := newTestRouter("home", set...)
		tr.transport.CallUbusFunc = func(context.Context, string, []luci.UbusCall) ([]luci.UbusResponse, error) {
			return nil, errors.NewAuthError("session rejected", nil)
		}
		h, _ := newTestHandler(tr)

		rec := doRequest(t, h, http.MethodPost, "/api/v1/routers/home/actions/restart", "")
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})
}

func TestExecuteAction(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCalls  int
	}{
		{
			name:       "ad-hoc script",
			body:       `{"kind":"run_script","command":"/usr/bin/update-feeds","args":["--quiet"]}`,
			wantStatus: http.StatusAccepted,
			wantCalls:  1,
		},
		{
			name:       "missing target",
			body:       `{"kind":"reconnect_interface"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown kind",
			body:       `{"kind":"format_disk"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"kind":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter("home")
			h := NewHandler(staticProvider{deps: newDeps(nil, tr)})
			h.spawn = func(f func()) { f() }

			rec := doRequest(t, newRouter(h, nil), http.MethodPost, "/api/v1/routers/home/actions", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if len(tr.transport.UbusCalls) != tt.wantCalls {
				t.Errorf("ubus calls = %d, want %d", len(tr.transport.UbusCalls), tt.wantCalls)
			}
		})
	}
}

func TestContentTypeIsEnforced(t *testing.T) {
	h, _ := newTestHandler(newTestRouter("home"))

	req := strings.NewReader(`kind=reboot`)
	r := doRequestWithHeader(t, h, http.MethodPost, "/api/v1/routers/home/actions", req, "application/x-www-form-urlencoded")
	if r.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", r.Code)
	}
}
