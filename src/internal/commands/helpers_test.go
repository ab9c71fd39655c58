package commands

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
)

// fakeLegacyRouter emulates an older LuCI that only serves the legacy pages.
type fakeLegacyRouter struct {
	*httptest.Server

	mu             sync.Mutex
	rejectAuth     bool
	statusFailures int
	statusRequests int
	posts          map[string]url.Values
}

func newFakeLegacyRouter(t *testing.T) *fakeLegacyRouter {
	t.Helper()
	f := &fakeLegacyRouter{posts: make(map[string]url.Values)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeLegacyRouter) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method == http.MethodPost && r.URL.Path == luci.LoginPath {
		if f.rejectAuth {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sysauth", Value: "legacy-token", Path: "/"})
		w.WriteHeader(http.StatusFound)
		return
	}

	switch r.URL.Path {
	case luci.LoginPath:
		if r.URL.RawQuery == "status=1" {
			f.statusRequests++
			if f.statusFailures > 0 {
				f.statusFailures--
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			io.WriteString(w, `{"uptime": 3725, "cpuusage": "5%", "memory": {"total": 100, "available": 25}, "wan": {"ipaddr": "198.51.100.2", "uptime": 90}}`)
			return
		}
	case luci.LoginPath + luci.OverviewPagePath:
		io.WriteString(w, `<meta name="application-name" content="gw - LuCI">`)
		return
	case luci.LoginPath + "admin/system/reboot":
		io.WriteString(w, `<input type="hidden" name="token" value="0a1b2c3d">`)
		return
	case luci.LoginPath + "admin/system/reboot/call":
		r.ParseForm()
		f.posts["reboot"] = r.PostForm
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *fakeLegacyRouter) post(name string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[name]
}

func (f *fakeLegacyRouter) rejectCredentials() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectAuth = true
}

func (f *fakeLegacyRouter) failStatus(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusFailures = n
}

func (f *fakeLegacyRouter) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusRequests
}

func writeConfig(t *testing.T, host string) string {
	t.Helper()
	content := fmt.Sprintf(`[general]
api_enabled = false

[[router]]
name = "home"
host = %q
username = "root"
password = "secret"
protocol = "legacy"

  [[router.action]]
  name = "restart"
  kind = "reboot"
`, host)

	path := filepath.Join(t.TempDir(), "openwrt-monitor.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func newAppContext(configPath string) (*AppContext, *bytes.Buffer) {
	var out bytes.Buffer
	return &AppContext{ConfigPath: configPath, Out: &out}, &out
}
