package luci

import (
	"context"
	"net/http"
	"testing"

	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
)

func loggedIn(t *testing.T, client *Client) string {
	t.Helper()
	token, err := client.Login(context.Background())
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return token
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		ubusStatus int
		reply      string
		want       Mode
	}{
		{name: "board payload", ubusStatus: http.StatusOK, reply: `[{"id":1,"result":[0,` + boardPayload + `]}]`, want: ModeUbus},
		{name: "empty payload", ubusStatus: http.StatusOK, reply: `[{"id":1,"result":[0,{}]}]`, want: ModeLegacy},
		{name: "missing payload", ubusStatus: http.StatusOK, reply: `[{"id":1,"result":[2]}]`, want: ModeLegacy},
		{name: "access denied", ubusStatus: http.StatusOK, reply: `{"jsonrpc":"2.0","error":{"code":-32002,"message":"Access denied"}}`, want: ModeLegacy},
		{name: "html body", ubusStatus: http.StatusOK, reply: `<html></html>`, want: ModeLegacy},
		{name: "no endpoint", ubusStatus: http.StatusNotFound, want: ModeLegacy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr, srv := newFakeRouter(t)
			fr.ubusStatus = tt.ubusStatus
			fr.ubusReply = func([]map[string]any) string { return tt.reply }
			client := newTestClient(srv, Options{})
			token := loggedIn(t, client)

			proto, err := Detect(context.Background(), client, token)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if proto.Mode() != tt.want {
				t.Errorf("mode = %s, want %s", proto.Mode(), tt.want)
			}
			if !client.IsTokenValid() {
				t.Error("probing must not invalidate the session")
			}
		})
	}
}

func TestDetect_Idempotent(t *testing.T) {
	for _, reply := range []string{
		`[{"id":1,"result":[0,` + boardPayload + `]}]`,
		`[{"id":1,"result":[0,null]}]`,
	} {
		fr, srv := newFakeRouter(t)
		fr.ubusReply = func([]map[string]any) string { return reply }
		client := newTestClient(srv, Options{})
		token := loggedIn(t, client)

		first, err := Detect(context.Background(), client, token)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		second, err := Detect(context.Background(), client, token)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if first.Mode() != second.Mode() {
			t.Errorf("mode changed between probes: %s then %s", first.Mode(), second.Mode())
		}
		if got := fr.count("ubus"); got != 1 {
			t.Errorf("ubus requests = %d, want 1 (mode is pinned)", got)
		}

		client.Cache().Clear()
		third, err := Detect(context.Background(), client, token)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if third.Mode() != first.Mode() {
			t.Errorf("re-probe yielded %s, want %s", third.Mode(), first.Mode())
		}
	}
}

func TestDetect_ErrorsAreNotPinned(t *testing.T) {
	fr, srv := newFakeRouter(t)
	fr.ubusStatus = http.StatusUnauthorized
	client := newTestClient(srv, Options{})
	token := loggedIn(t, client)

	_, err := Detect(context.Background(), client, token)
	if !errors.IsAuth(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if _, ok := client.Cache().GetMode(); ok {
		t.Error("mode must not be pinned after a failed probe")
	}
}

func TestUbusProtocol_FetchSnapshot(t *testing.T) {
	fr, srv := newFakeRouter(t)
	fr.ubusReply = fullBatchReply
	client := newTestClient(srv, Options{})
	token := loggedIn(t, client)

	proto := NewProtocol(ModeUbus, client)
	snap, err := proto.FetchSnapshot(context.Background(), token)
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if snap.Mode != ModeUbus {
		t.Errorf("mode = %s", snap.Mode)
	}
	if snap.FetchedAt.IsZero() {
		t.Error("FetchedAt must be set")
	}
	if v, _ := snap.Values.Float(KeyMemory); v != 75 {
		t.Errorf("memory = %v, want 75", v)
	}

	id, err := proto.FetchIdentity(context.Background(), token)
	if err != nil {
		t.Fatalf("FetchIdentity() error = %v", err)
	}
	if id.Name != "gw" {
		t.Errorf("identity = %+v", id)
	}
}

func TestLegacyProtocol(t *testing.T) {
	fr, srv := newFakeRouter(t)
	fr.pages[StatusPagePath] = `{"uptime":42,"memory":{"total":100,"available":25},"wan":{"ipaddr":"10.0.0.2","uptime":5}}`
	fr.pages[OverviewPagePath] = `<meta name="application-name" content="Lede - LuCI">`
	client := newTestClient(srv, Options{})
	token := loggedIn(t, client)

	proto := NewProtocol(ModeLegacy, client)
	snap, err := proto.FetchSnapshot(context.Background(), token)
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if snap.Values[KeyUptime] != int64(42) {
		t.Errorf("uptime = %v", snap.Values[KeyUptime])
	}
	if snap.Values["openwrt_wan_ip"] != "10.0.0.2" {
		t.Errorf("wan ip = %v", snap.Values["openwrt_wan_ip"])
	}

	id, err := proto.FetchIdentity(context.Background(), token)
	if err != nil {
		t.Fatalf("FetchIdentity() error = %v", err)
	}
	want := DeviceIdentity{Name: "Lede", Model: "Router"}
	if id != want {
		t.Errorf("identity = %+v, want %+v", id, want)
	}
}

func TestLegacyProtocol_NonJSONStatus(t *testing.T) {
	fr, srv := newFakeRouter(t)
	fr.pages[StatusPagePath] = `<html>not json</html>`
	client := newTestClient(srv, Options{})
	token := loggedIn(t, client)

	_, err := NewProtocol(ModeLegacy, client).FetchSnapshot(context.Background(), token)
	if !errors.IsConnection(err) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}
