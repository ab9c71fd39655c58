// Package luci provides a client for OpenWrt routers running the LuCI web interface.
//
// The client logs in with the LuCI form, keeps the session cookie for a fixed
// lifetime and polls the router over one of two transports:
//
//   - ubus: a single JSON-RPC batch POSTed to /ubus/ (LuCI 18.06 and later)
//   - legacy: the JSON status poll and the HTML overview page of older LuCI
//
// The transport is probed once per router and pinned in the client cache.
//
// # Example Usage
//
//	client := luci.NewClient(luci.Credentials{
//	    Host:     "http://192.168.1.1",
//	    Username: "root",
//	    Password: "secret",
//	}, luci.Options{Name: "home"})
//
//	token, err := client.Login(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	proto, err := luci.Detect(ctx, client, token)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	snap, err := proto.FetchSnapshot(ctx, token)
//
// Parsing is lenient: a missing or malformed field drops the metric derived
// from it. Only transport failures, rejected sessions and non-JSON bodies
// where JSON is required fail a poll.
package luci
