package luci

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
	"github.com/maksimkurb/openwrt-monitor/src/internal/log"
)

const maxBodySize = 8 << 20

// HTTPClient is the transport used by Client. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError carries an unexpected HTTP status as the cause of a coded error.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

// Options tune a Client. Zero values select the defaults.
type Options struct {
	// Name labels log lines.
	Name       string
	HTTPClient HTTPClient
	// Jar is consulted for the session cookie when the login response does not carry it.
	Jar            http.CookieJar
	Pool           *Pool
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	Now            func() time.Time
}

// Client talks to a single LuCI router.
//
// It owns the session token, the login give-up latch and the protocol cache.
// All methods are safe for concurrent use, but callers are expected to
// serialize network operations per router.
type Client struct {
	creds      Credentials
	httpClient HTTPClient
	jar        http.CookieJar
	pool       *Pool
	cache      *Cache
	tokenTTL   time.Duration
	timeout    time.Duration
	now        func() time.Time
	logger     *log.Logger

	mu         sync.Mutex
	session    Session
	authFailed bool
}

// NewClient creates a client for the router described by creds.
//
// Without Options.HTTPClient a client is built that keeps cookies, does not
// follow redirects and does not verify TLS certificates.
func NewClient(creds Credentials, opts Options) *Client {
	creds.Host = strings.TrimRight(creds.Host, "/")

	jar := opts.Jar
	if jar == nil && opts.HTTPClient == nil {
		// cookiejar.New only fails on a bad Options value.
		jar, _ = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newDefaultHTTPClient(jar)
	}

	c := &Client{
		creds:      creds,
		httpClient: httpClient,
		jar:        jar,
		pool:       opts.Pool,
		cache:      NewCache(),
		tokenTTL:   opts.TokenTTL,
		timeout:    opts.RequestTimeout,
		now:        opts.Now,
		logger:     log.Router(opts.Name),
	}
	if c.tokenTTL <= 0 {
		c.tokenTTL = DefaultTokenTTL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultRequestTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func newDefaultHTTPClient(jar http.CookieJar) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // routers use self-signed certificates

	return &http.Client{
		Transport: transport,
		Jar:       jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Host returns the router base URL without a trailing slash.
func (c *Client) Host() string {
	return c.creds.Host
}

// Protocol returns the transport for this router, probing it on first use.
func (c *Client) Protocol(ctx context.Context, token string) (Protocol, error) {
	return Detect(ctx, c, token)
}

// PinMode forces the transport instead of probing for it.
func (c *Client) PinMode(mode Mode) {
	c.cache.SetMode(mode)
}

// Cache returns the per-router protocol and identity cache.
func (c *Client) Cache() *Cache {
	return c.cache
}

// Login authenticates against the LuCI dispatcher and stores the new session.
//
// A 403 clears the token and latches the client: later calls fail with an
// AuthError without contacting the router until ResetAuth is called.
func (c *Client) Login(ctx context.Context) (string, error) {
	c.mu.Lock()
	latched := c.authFailed
	c.mu.Unlock()
	if latched {
		return "", errors.NewAuthError("login disabled after rejected credentials", nil)
	}

	form := "luci_username=" + url.QueryEscape(c.creds.Username) + "&luci_password=" + url.QueryEscape(c.creds.Password)
	loginURL := c.creds.Host + LoginPath

	resp, err := c.do(ctx, http.MethodPost, loginURL, form, http.Header{
		"Content-Type": {contentTypeForm},
	})
	if err != nil {
		return "", err
	}

	switch resp.status {
	case http.StatusOK, http.StatusFound:
	case http.StatusForbidden:
		c.mu.Lock()
		c.session = Session{}
		c.authFailed = true
		c.mu.Unlock()
		c.logger.Errorf("Login rejected by %s, check username and password", c.creds.Host)
		return "", errors.NewAuthError("invalid username or password", &StatusError{StatusCode: resp.status})
	default:
		return "", errors.NewConnectionError(
			fmt.Sprintf("login returned status %d", resp.status), &StatusError{StatusCode: resp.status})
	}

	token := c.findSessionToken(resp.cookies, loginURL)
	if token == "" {
		return "", errors.NewConnectionError("login succeeded but no session cookie was set", nil)
	}

	c.mu.Lock()
	c.session = newSession(token, c.now(), c.tokenTTL)
	c.mu.Unlock()
	c.cache.ClearIdentity()
	c.logger.Debugf("Logged in to %s", c.creds.Host)
	return token, nil
}

// findSessionToken looks at the response cookies first, then the jar.
func (c *Client) findSessionToken(cookies []*http.Cookie, rawURL string) string {
	if token := pickSessionCookie(cookies); token != "" {
		return token
	}
	if c.jar == nil {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return pickSessionCookie(c.jar.Cookies(u))
}

func pickSessionCookie(cookies []*http.Cookie) string {
	for _, name := range sessionCookieNames {
		for _, cookie := range cookies {
			if cookie.Name == name && cookie.Value != "" {
				return cookie.Value
			}
		}
	}
	return ""
}

// Token returns the current token if the session is still valid.
func (c *Client) Token() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.ValidAt(c.now()) {
		return "", false
	}
	return c.session.Token, true
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// IsTokenValid reports whether a token is present and not expired.
func (c *Client) IsTokenValid() bool {
	_, ok := c.Token()
	return ok
}

// Invalidate expires the session; the next operation logs in again.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.session.invalidate()
	c.mu.Unlock()
	c.cache.ClearIdentity()
}

// ResetAuth clears the give-up latch set by a rejected login.
func (c *Client) ResetAuth() {
	c.mu.Lock()
	c.authFailed = false
	c.mu.Unlock()
}

// AuthFailed reports whether the give-up latch is set.
func (c *Client) AuthFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authFailed
}

// EnsureToken returns a valid token, logging in when needed.
func (c *Client) EnsureToken(ctx context.Context) (string, error) {
	if token, ok := c.Token(); ok {
		return token, nil
	}
	return c.Login(ctx)
}

type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

// do performs one request bounded by the request timeout and the shared pool.
// The body is read completely before returning.
func (c *Client) do(ctx context.Context, method, rawURL, body string, header http.Header) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.pool.Acquire(ctx); err != nil {
		return nil, errors.NewConnectionError("timed out waiting for a request slot", err)
	}
	defer c.pool.Release()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, errors.NewInternalError("failed to build request", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewConnectionError(fmt.Sprintf("%s %s failed", method, stripQuery(rawURL)), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.NewConnectionError("failed to read response body", err)
	}

	return &response{
		status:  resp.StatusCode,
		body:    data,
		cookies: resp.Cookies(),
	}, nil
}

// doAuthorized is do for requests carrying a token: 401/403 invalidates the session.
func (c *Client) doAuthorized(ctx context.Context, method, rawURL, body string, header http.Header) (*response, error) {
	resp, err := c.do(ctx, method, rawURL, body, header)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
		c.Invalidate()
		return nil, errors.NewAuthError("session rejected by router", &StatusError{StatusCode: resp.status})
	}
	return resp, nil
}

func stripQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
