package luci

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRouter is a minimal LuCI endpoint set for tests.
type fakeRouter struct {
	mu       sync.Mutex
	token    string
	hits     map[string]int
	lastForm string

	loginStatus int
	ubusStatus  int
	// ubusReply builds the reply for a decoded batch.
	ubusReply func(batch []map[string]any) string
	pages     map[string]string
}

func newFakeRouter(t *testing.T) (*fakeRouter, *httptest.Server) {
	t.Helper()
	fr := &fakeRouter{
		token:       "0123456789abcdef",
		hits:        make(map[string]int),
		loginStatus: http.StatusFound,
		ubusStatus:  http.StatusOK,
		pages:       make(map[string]string),
	}
	srv := httptest.NewServer(fr)
	t.Cleanup(srv.Close)
	return fr, srv
}

func (fr *fakeRouter) count(key string) int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.hits[key]
}

func (fr *fakeRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	body, _ := io.ReadAll(r.Body)

	switch {
	case r.URL.Path == "/cgi-bin/luci/" && r.Method == http.MethodPost:
		fr.hits["login"]++
		fr.lastForm = string(body)
		if fr.loginStatus == http.StatusFound || fr.loginStatus == http.StatusOK {
			http.SetCookie(w, &http.Cookie{Name: "sysauth", Value: fr.token, Path: "/cgi-bin/luci/"})
		}
		w.WriteHeader(fr.loginStatus)

	case r.URL.Path == "/ubus/":
		fr.hits["ubus"]++
		if fr.ubusStatus != http.StatusOK {
			w.WriteHeader(fr.ubusStatus)
			return
		}
		var batch []map[string]any
		_ = json.Unmarshal(body, &batch)
		w.Header().Set("Content-Type", "application/json")
		if fr.ubusReply == nil {
			_, _ = io.WriteString(w, "[]")
			return
		}
		_, _ = io.WriteString(w, fr.ubusReply(batch))

	case strings.HasPrefix(r.URL.Path, "/cgi-bin/luci/"):
		key := strings.TrimPrefix(r.URL.Path, "/cgi-bin/luci/")
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		fr.hits[key]++
		if r.Method == http.MethodPost {
			fr.lastForm = string(body)
		}
		if c, err := r.Cookie("sysauth"); err != nil || c.Value != fr.token {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		page, ok := fr.pages[key]
		if !ok {
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusFound)
				return
			}
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, page)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(srv *httptest.Server, opts Options) *Client {
	return NewClient(Credentials{
		Host:     srv.URL,
		Username: "root",
		Password: "p@ss word",
	}, opts)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func reply(result string) UbusResponse {
	return UbusResponse{Result: json.RawMessage(result)}
}

const boardPayload = `{"hostname":"gw","model":"Xiaomi AX3600","release":{"version":"23.05.3","description":"OpenWrt 23.05.3 r23809"}}`

func fullBatchReply(_ []map[string]any) string {
	return `[
	{"jsonrpc":"2.0","id":1,"result":[0,{"uptime":3600,"memory":{"total":1000,"free":250}}]},
	{"jsonrpc":"2.0","id":2,"result":[0,` + boardPayload + `]},
	{"jsonrpc":"2.0","id":3,"result":[0,{"cpuusage":"12%"}]},
	{"jsonrpc":"2.0","id":4,"result":[0,{"cputemp":51.5}]},
	{"jsonrpc":"2.0","id":5,"result":[0,{"onlineusers":7}]},
	{"jsonrpc":"2.0","id":6,"result":[0,{"interface":[
		{"interface":"lan","uptime":10,"ipv4-address":[{"address":"192.168.1.1","mask":24}]},
		{"interface":"loopback","uptime":10,"ipv4-address":[{"address":"127.0.0.1","mask":8}]}
	]}]},
	{"jsonrpc":"2.0","id":7,"result":[0,{"data":"42\n"}]},
	{"jsonrpc":"2.0","id":8,"result":[0,{"data":"45000\n"}]}
]`
}
