package luci

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
)

// PageURL resolves a path relative to the LuCI dispatcher.
func (c *Client) PageURL(path string) string {
	return c.creds.Host + LoginPath + strings.TrimPrefix(path, "/")
}

func sessionCookieHeader(token string) string {
	return "sysauth=" + token + "; sysauth_http=" + token
}

// GetPage fetches a LuCI page with the session cookie and returns its body.
func (c *Client) GetPage(ctx context.Context, token, path string) (string, error) {
	resp, err := c.doAuthorized(ctx, http.MethodGet, c.PageURL(path), "", http.Header{
		"Cookie": {sessionCookieHeader(token)},
	})
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", errors.NewConnectionError(
			fmt.Sprintf("page %s returned status %d", stripQuery(path), resp.status), &StatusError{StatusCode: resp.status})
	}
	return string(resp.body), nil
}

// PostForm submits form to a LuCI page. Redirects count as success since
// LuCI answers most writes with a 302.
func (c *Client) PostForm(ctx context.Context, token, path string, form url.Values) error {
	pageURL := c.PageURL(path)
	resp, err := c.doAuthorized(ctx, http.MethodPost, pageURL, form.Encode(), http.Header{
		"Content-Type": {contentTypeForm},
		"Cookie":       {sessionCookieHeader(token)},
		"Origin":       {c.creds.Host},
		"Referer":      {pageURL},
	})
	if err != nil {
		return err
	}
	if resp.status >= http.StatusBadRequest {
		return errors.NewConnectionError(
			fmt.Sprintf("post to %s returned status %d", path, resp.status), &StatusError{StatusCode: resp.status})
	}
	return nil
}
