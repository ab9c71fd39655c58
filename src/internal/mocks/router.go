// Package mocks provides mock implementations for testing.
//
// This package should ONLY be imported in test files (_test.go).
// The Go toolchain will automatically exclude this package from production builds
// since it's not imported in any production code.
package mocks

import (
	"context"
	"net/url"
	"sync"

	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
)

// MockRouterClient is a mock implementation of the domain.RouterClient interface.
//
// It allows tests to provide custom behavior for each method through function fields.
// If a function field is nil, a sensible default implementation is used: logins
// succeed with token "mock-token" and the ubus protocol from ProtocolImpl is returned.
//
// Example usage:
//
//	mock := &MockRouterClient{
//	    LoginFunc: func(ctx context.Context) (string, error) {
//	        return "", errors.NewAuthError("invalid credentials", nil)
//	    },
//	}
type MockRouterClient struct {
	HostURL string

	// LoginFunc is called by Login if not nil
	LoginFunc func(ctx context.Context) (string, error)

	// ProtocolFunc is called by Protocol if not nil
	ProtocolFunc func(ctx context.Context, token string) (luci.Protocol, error)

	// ProtocolImpl is returned by Protocol when ProtocolFunc is nil
	ProtocolImpl luci.Protocol

	mu         sync.Mutex
	token      string
	cache      *luci.Cache
	loginCalls int
	resetCalls int
	invalidate int
}

// NewMockRouterClient creates a mock whose protocol is proto.
func NewMockRouterClient(proto luci.Protocol) *MockRouterClient {
	return &MockRouterClient{ProtocolImpl: proto}
}

func (m *MockRouterClient) Host() string {
	if m.HostURL == "" {
		return "http://192.168.1.1"
	}
	return m.HostURL
}

// Login records the call and stores the returned token on success.
func (m *MockRouterClient) Login(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.loginCalls++
	fn := m.LoginFunc
	m.mu.Unlock()

	token := "mock-token"
	if fn != nil {
		var err error
		if token, err = fn(ctx); err != nil {
			m.mu.Lock()
			m.token = ""
			m.mu.Unlock()
			return "", err
		}
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	m.Cache().ClearIdentity()
	return token, nil
}

func (m *MockRouterClient) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// SetToken installs a token as if a login had happened.
func (m *MockRouterClient) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *MockRouterClient) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.invalidate++
	m.mu.Unlock()
	m.Cache().ClearIdentity()
}

func (m *MockRouterClient) ResetAuth() {
	m.mu.Lock()
	m.resetCalls++
	m.mu.Unlock()
}

func (m *MockRouterClient) Protocol(ctx context.Context, token string) (luci.Protocol, error) {
	if m.ProtocolFunc != nil {
		return m.ProtocolFunc(ctx, token)
	}
	if m.ProtocolImpl != nil {
		return m.ProtocolImpl, nil
	}
	return &MockProtocol{}, nil
}

func (m *MockRouterClient) Cache() *luci.Cache {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache == nil {
		m.cache = luci.NewCache()
	}
	return m.cache
}

// LoginCalls returns how many times Login was called.
func (m *MockRouterClient) LoginCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls
}

// ResetCalls returns how many times ResetAuth was called.
func (m *MockRouterClient) ResetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetCalls
}

// InvalidateCalls returns how many times Invalidate was called.
func (m *MockRouterClient) InvalidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidate
}

// MockProtocol is a mock implementation of luci.Protocol.
type MockProtocol struct {
	ModeValue luci.Mode

	// FetchSnapshotFunc is called by FetchSnapshot if not nil
	FetchSnapshotFunc func(ctx context.Context, token string) (*luci.Snapshot, error)

	// FetchIdentityFunc is called by FetchIdentity if not nil
	FetchIdentityFunc func(ctx context.Context, token string) (luci.DeviceIdentity, error)

	mu            sync.Mutex
	fetchCalls    int
	identityCalls int
}

func (m *MockProtocol) Mode() luci.Mode {
	if m.ModeValue == "" {
		return luci.ModeUbus
	}
	return m.ModeValue
}

// FetchSnapshot returns an uptime-only snapshot by default.
func (m *MockProtocol) FetchSnapshot(ctx context.Context, token string) (*luci.Snapshot, error) {
	m.mu.Lock()
	m.fetchCalls++
	m.mu.Unlock()

	if m.FetchSnapshotFunc != nil {
		return m.FetchSnapshotFunc(ctx, token)
	}
	return &luci.Snapshot{
		Values: luci.Metrics{luci.KeyUptime: int64(60)},
		Mode:   m.Mode(),
	}, nil
}

// FetchIdentity returns placeholder identity by default.
func (m *MockProtocol) FetchIdentity(ctx context.Context, token string) (luci.DeviceIdentity, error) {
	m.mu.Lock()
	m.identityCalls++
	m.mu.Unlock()

	if m.FetchIdentityFunc != nil {
		return m.FetchIdentityFunc(ctx, token)
	}
	return luci.DeviceIdentity{}.WithDefaults(), nil
}

// FetchCalls returns how many times FetchSnapshot was called.
func (m *MockProtocol) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

// IdentityCalls returns how many times FetchIdentity was called.
func (m *MockProtocol) IdentityCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identityCalls
}

// UbusRequest is one recorded CallUbus invocation.
type UbusRequest struct {
	Token string
	Calls []luci.UbusCall
}

// FormPost is one recorded PostForm invocation.
type FormPost struct {
	Token string
	Path  string
	Form  url.Values
}

// MockTransport is a mock implementation of domain.RouterTransport that
// records every call.
type MockTransport struct {
	// CallUbusFunc is called by CallUbus if not nil
	CallUbusFunc func(ctx context.Context, token string, calls []luci.UbusCall) ([]luci.UbusResponse, error)

	// Pages maps a page path to the body returned by GetPage
	Pages map[string]string

	// GetPageErr is returned by GetPage when set
	GetPageErr error

	// PostFormErr is returned by PostForm when set
	PostFormErr error

	mu        sync.Mutex
	UbusCalls []UbusRequest
	PageGets  []string
	Posts     []FormPost
}

func (m *MockTransport) CallUbus(ctx context.Context, token string, calls []luci.UbusCall) ([]luci.UbusResponse, error) {
	m.mu.Lock()
	m.UbusCalls = append(m.UbusCalls, UbusRequest{Token: token, Calls: calls})
	m.mu.Unlock()

	if m.CallUbusFunc != nil {
		return m.CallUbusFunc(ctx, token, calls)
	}
	return []luci.UbusResponse{}, nil
}

func (m *MockTransport) GetPage(_ context.Context, _ string, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PageGets = append(m.PageGets, path)
	if m.GetPageErr != nil {
		return "", m.GetPageErr
	}
	return m.Pages[path], nil
}

func (m *MockTransport) PostForm(_ context.Context, token, path string, form url.Values) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posts = append(m.Posts, FormPost{Token: token, Path: path, Form: form})
	return m.PostFormErr
}
