package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maksimkurb/openwrt-monitor/src/internal/config"
	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
)

func testConfig(routers ...*config.RouterConfig) *config.Config {
	cfg := &config.Config{General: &config.GeneralConfig{}, Routers: routers}
	cfg.ApplyDefaults()
	return cfg
}

func legacyRouter(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == luci.LoginPath:
			http.SetCookie(w, &http.Cookie{Name: "sysauth", Value: "legacy-token", Path: "/"})
			w.WriteHeader(http.StatusFound)
		case r.URL.Path == luci.LoginPath && r.URL.RawQuery == "status=1":
			w.Write([]byte(`{"uptime": 120, "cpuusage": "5%", "memory": {"total": 100, "available": 25}}`))
		case r.URL.Path == luci.LoginPath+luci.OverviewPagePath:
			w.Write([]byte(`<meta name="application-name" content="gw - LuCI">`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewAppDependencies(t *testing.T) {
	t.Run("No configuration", func(t *testing.T) {
		_, err := NewAppDependencies(AppConfig{})
		if !errors.HasCode(err, errors.ErrCodeConfig) {
			t.Errorf("expected ConfigError, got %v", err)
		}
	})

	t.Run("One instance per router", func(t *testing.T) {
		cfg := testConfig(
			&config.RouterConfig{Name: "home", Host: "http://192.168.1.1", Username: "root"},
			&config.RouterConfig{
				Name: "office", Host: "https://10.0.0.1", Username: "root", Protocol: config.ProtocolLegacy,
				Actions: []*config.ActionConfig{{Name: "restart", Kind: config.ActionKindReboot}},
			},
		)

		deps, err := NewAppDependencies(AppConfig{Config: cfg})
		if err != nil {
			t.Fatalf("NewAppDependencies() error = %v", err)
		}
		if len(deps.Instances()) != 2 {
			t.Fatalf("expected 2 instances, got %d", len(deps.Instances()))
		}
		if deps.Pool().Size() != config.DefaultMaxConcurrentRequests {
			t.Errorf("pool size = %d", deps.Pool().Size())
		}
		if deps.Recorder() == nil {
			t.Error("expected a recorder to be created")
		}

		home, ok := deps.Instance("home")
		if !ok {
			t.Fatal("instance home not found")
		}
		if _, pinned := home.Client.Cache().GetMode(); pinned {
			t.Error("auto protocol must not be pinned")
		}

		office, _ := deps.Instance("office")
		if mode, _ := office.Client.Cache().GetMode(); mode != luci.ModeLegacy {
			t.Errorf("office mode = %q, want legacy", mode)
		}
		if len(office.Actions) != 1 || office.Actions[0].Name != "restart" {
			t.Errorf("office actions = %v", office.Actions)
		}
		if home.Client == office.Client || home.Coordinator == office.Coordinator {
			t.Error("instances must not share clients or coordinators")
		}
	})

	t.Run("Invalid action", func(t *testing.T) {
		cfg := testConfig(&config.RouterConfig{
			Name: "home", Host: "http://192.168.1.1", Username: "root",
			Actions: []*config.ActionConfig{{Name: "bad", Kind: config.ActionKindReconnectInterface}},
		})
		if _, err := NewAppDependencies(AppConfig{Config: cfg}); !errors.HasCode(err, errors.ErrCodeConfig) {
			t.Errorf("expected ConfigError, got %v", err)
		}
	})
}

func TestInstance_LegacyRefresh(t *testing.T) {
	srv := legacyRouter(t)
	cfg := testConfig(&config.RouterConfig{
		Name: "home", Host: srv.URL, Username: "root", Password: "secret", Protocol: config.ProtocolLegacy,
	})

	deps, err := NewAppDependencies(AppConfig{Config: cfg})
	if err != nil {
		t.Fatalf("NewAppDependencies() error = %v", err)
	}
	inst, _ := deps.Instance("home")

	if err := inst.Coordinator.FirstRefresh(context.Background()); err != nil {
		t.Fatalf("FirstRefresh() error = %v", err)
	}

	snap := inst.Coordinator.Data()
	if v, _ := snap.Values.Float(luci.KeyMemory); v != 75 {
		t.Errorf("memory = %v, want 75", v)
	}
	if snap.Identity.Name != "gw" {
		t.Errorf("identity = %+v", snap.Identity)
	}

	exported := deps.Snapshots()
	if len(exported) != 1 || !exported[0].Up || exported[0].Snapshot == nil {
		t.Errorf("Snapshots() = %+v", exported)
	}
}
