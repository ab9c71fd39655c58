package luci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
)

// ubusAccessDenied is the rpcd error returned for an unknown or expired session.
const ubusAccessDenied = -32002

// UbusCall is one "call" request of a JSON-RPC batch.
type UbusCall struct {
	Object string
	Method string
	Args   map[string]any
}

// UbusError is a JSON-RPC level error.
type UbusError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// UbusResponse is one element of a JSON-RPC batch reply.
type UbusResponse struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *UbusError      `json:"error,omitempty"`
}

// Payload returns the second element of a [status, payload] result.
func (r UbusResponse) Payload() (json.RawMessage, bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(r.Result, &pair); err != nil || len(pair) < 2 {
		return nil, false
	}
	if isNullJSON(pair[1]) {
		return nil, false
	}
	return pair[1], true
}

// Status returns the rpcd status code, the first element of the result.
func (r UbusResponse) Status() (int, bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(r.Result, &pair); err != nil || len(pair) == 0 {
		return 0, false
	}
	var code int
	if err := json.Unmarshal(pair[0], &code); err != nil {
		return 0, false
	}
	return code, true
}

type ubusRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

func buildUbusBatch(token string, calls []UbusCall) ([]byte, error) {
	batch := make([]ubusRequest, 0, len(calls))
	for i, call := range calls {
		args := call.Args
		if args == nil {
			args = map[string]any{}
		}
		batch = append(batch, ubusRequest{
			JSONRPC: "2.0",
			ID:      i + 1,
			Method:  "call",
			Params:  []any{token, call.Object, call.Method, args},
		})
	}
	return json.Marshal(batch)
}

// CallUbus posts the calls as one JSON-RPC batch and returns the replies in
// request order.
//
// A 401/403 or an rpcd access-denied error invalidates the session and
// returns an AuthError. A body that is not JSON is a ConnectionError.
func (c *Client) CallUbus(ctx context.Context, token string, calls []UbusCall) ([]UbusResponse, error) {
	replies, err := c.postUbus(ctx, token, calls)
	if err != nil {
		return nil, err
	}
	if accessDenied(replies) {
		c.Invalidate()
		return nil, errors.NewAuthError("ubus session rejected", nil)
	}
	return replies, nil
}

// postUbus sends the batch and decodes the reply without interpreting
// JSON-RPC errors.
func (c *Client) postUbus(ctx context.Context, token string, calls []UbusCall) ([]UbusResponse, error) {
	body, err := buildUbusBatch(token, calls)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode ubus batch", err)
	}

	resp, err := c.doAuthorized(ctx, http.MethodPost, c.creds.Host+UbusPath, string(body), http.Header{
		"Content-Type": {contentTypeJSON},
	})
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, errors.NewConnectionError(
			fmt.Sprintf("ubus returned status %d", resp.status), &StatusError{StatusCode: resp.status})
	}

	return decodeUbusReply(resp.body)
}

// decodeUbusReply accepts a batch array or a single top-level object.
func decodeUbusReply(body []byte) ([]UbusResponse, error) {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single UbusResponse
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, errors.NewConnectionError("invalid ubus response", errors.NewParseError("malformed JSON object", err))
		}
		return []UbusResponse{single}, nil
	}

	var batch []UbusResponse
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return nil, errors.NewConnectionError("invalid ubus response", errors.NewParseError("response is not JSON", err))
	}
	return batch, nil
}

func accessDenied(replies []UbusResponse) bool {
	for _, r := range replies {
		if r.Error != nil && r.Error.Code == ubusAccessDenied {
			return true
		}
	}
	return false
}

func isNullJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// Calls issued in one poll cycle, in response order.
const (
	idxSystemInfo = iota
	idxSystemBoard
	idxCPUUsage
	idxTempInfo
	idxOnlineUsers
	idxInterfaceDump
	idxConnCount
	idxThermalZone
)

const (
	connCountFile   = "/proc/sys/net/netfilter/nf_conntrack_count"
	thermalZoneFile = "/sys/class/thermal/thermal_zone0/temp"
)

// BoardCall returns the system board call used for identity and probing.
func BoardCall() UbusCall {
	return UbusCall{Object: "system", Method: "board"}
}

// StatusCalls returns the batch fetched every poll cycle.
func StatusCalls() []UbusCall {
	return []UbusCall{
		idxSystemInfo:    {Object: "system", Method: "info"},
		idxSystemBoard:   BoardCall(),
		idxCPUUsage:      {Object: "luci", Method: "getCPUUsage"},
		idxTempInfo:      {Object: "luci", Method: "getTempInfo"},
		idxOnlineUsers:   {Object: "luci", Method: "getOnlineUsers"},
		idxInterfaceDump: {Object: "network.interface", Method: "dump"},
		idxConnCount:     {Object: "file", Method: "read", Args: map[string]any{"path": connCountFile}},
		idxThermalZone:   {Object: "file", Method: "read", Args: map[string]any{"path": thermalZoneFile}},
	}
}

// RebootCall asks procd to reboot the router.
func RebootCall() UbusCall {
	return UbusCall{Object: "system", Method: "reboot"}
}

// ExecCall runs a command through rpcd's file plugin.
func ExecCall(command string, params []string) UbusCall {
	args := map[string]any{"command": command}
	if len(params) > 0 {
		args["params"] = params
	}
	return UbusCall{Object: "file", Method: "exec", Args: args}
}
