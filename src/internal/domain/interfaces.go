// Package domain defines core interfaces for dependency injection and abstraction.
//
// This package contains the fundamental interfaces that enable loose coupling between
// components and facilitate testing through dependency injection.
package domain

import (
	"context"
	"net/url"

	"github.com/maksimkurb/openwrt-monitor/src/internal/luci"
)

// RouterClient defines the session side of a router connection.
//
// *luci.Client is the production implementation; tests use mocks.MockRouterClient.
type RouterClient interface {
	// Host returns the router base URL.
	Host() string

	// Login authenticates and returns a fresh token.
	Login(ctx context.Context) (string, error)

	// Token returns the current token if the session is still valid.
	Token() (string, bool)

	// Invalidate forces the next operation to log in again.
	Invalidate()

	// ResetAuth clears the give-up latch set by rejected credentials.
	ResetAuth()

	// Protocol returns the pinned transport, probing it on first use.
	Protocol(ctx context.Context, token string) (luci.Protocol, error)

	// Cache returns the per-router mode and identity cache.
	Cache() *luci.Cache
}

// RouterTransport issues the raw authenticated calls used by actions.
type RouterTransport interface {
	CallUbus(ctx context.Context, token string, calls []luci.UbusCall) ([]luci.UbusResponse, error)
	GetPage(ctx context.Context, token, path string) (string, error)
	PostForm(ctx context.Context, token, path string, form url.Values) error
}

// SessionRunner runs fn inside a router's exclusive section with a valid
// token and the pinned transport mode.
type SessionRunner interface {
	Exclusive(ctx context.Context, fn func(ctx context.Context, token string, mode luci.Mode) error) error
}

var (
	_ RouterClient    = (*luci.Client)(nil)
	_ RouterTransport = (*luci.Client)(nil)
)
