package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maksimkurb/openwrt-monitor/src/internal/actions"
	"github.com/maksimkurb/openwrt-monitor/src/internal/config"
	"github.com/maksimkurb/openwrt-monitor/src/internal/coordinator"
	"github.com/maksimkurb/openwrt-monitor/src/internal/core"
	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
	"github.com/maksimkurb/openwrt-monitor/src/internal/metrics"
	"github.com/maksimkurb/openwrt-monitor/src/internal/mocks"
)

type staticProvider struct {
	deps *core.AppDependencies
}

func (p staticProvider) Dependencies() *core.AppDependencies {
	return p.deps
}

type testRouter struct {
	client    *mocks.MockRouterClient
	proto     *mocks.MockProtocol
	transport *mocks.MockTransport
	instance  *core.Instance
}

func newTestRouter(name string, set ...actions.Named) *testRouter {
	tr := &testRouter{
		proto:     &mocks.MockProtocol{},
		transport: &mocks.MockTransport{},
	}
	tr.client = mocks.NewMockRouterClient(tr.proto)
	coord := coordinator.New(tr.client, coordinator.Options{Name: name})
	tr.instance = &core.Instance{
		Config:      &config.RouterConfig{Name: name},
		Coordinator: coord,
		Dispatcher:  actions.NewDispatcher(coord, tr.transport, actions.DispatcherOptions{Name: name}),
		Actions:     set,
	}
	return tr
}

func sampleSnapshot() *luci.Snapshot {
	return &luci.Snapshot{
		Values: luci.Metrics{
			luci.KeyUptime:       int64(90061),
			luci.KeyCPU:          12.5,
			luci.KeyMemory:       float64(75),
			"openwrt_wan_ip":     "203.0.113.7",
			"openwrt_wan_uptime": int64(600),
			"openwrt_wan6_ipv6":  "",
			luci.KeyUserOnline:   int64(0),
		},
		Interfaces: []string{"wan", "wan6"},
		Identity:   luci.DeviceIdentity{Name: "gw", Model: "Xiaomi AX3600", SWVersion: "OpenWrt 23.05.2"},
		Mode:       luci.ModeUbus,
	}
}

// newTestHandler serves the given routers through the full middleware stack.
func newTestHandler(routers ...*testRouter) (http.Handler, *metrics.Recorder) {
	recorder := metrics.NewRecorder()
	return NewRouter(staticProvider{deps: newDeps(recorder, routers...)}, recorder), recorder
}

func newDeps(recorder *metrics.Recorder, routers ...*testRouter) *core.AppDependencies {
	instances := make([]*core.Instance, 0, len(routers))
	for _, r := range routers {
		instances = append(instances, r.instance)
	}
	return core.NewTestDependencies(recorder, instances...)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	if body == "" {
		return doRequestWithHeader(t, h, method, path, nil, "")
	}
	return doRequestWithHeader(t, h, method, path, strings.NewReader(body), "application/json")
}

func doRequestWithHeader(t *testing.T, h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.RemoteAddr = "192.168.1.50:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response %q: %v", rec.Body.String(), err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("invalid data %s: %v", envelope.Data, err)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error response %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}
