package luci

import (
	"sync"
)

// Cache holds per-router facts that do not change between poll cycles.
//
// The protocol mode is pinned once detected; the device identity lives for
// one authenticated session. All methods are safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	mode     Mode
	identity *DeviceIdentity
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// GetMode returns the pinned protocol mode.
func (c *Cache) GetMode() (Mode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode, c.mode != ""
}

// SetMode pins the protocol mode.
func (c *Cache) SetMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

// GetIdentity returns the cached device identity.
func (c *Cache) GetIdentity() (DeviceIdentity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity != nil {
		return *c.identity, true
	}
	return DeviceIdentity{}, false
}

// SetIdentity stores the device identity.
func (c *Cache) SetIdentity(d DeviceIdentity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = &d
}

// ClearIdentity drops the identity so the next cycle resolves it again.
func (c *Cache) ClearIdentity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = nil
}

// Clear removes all cached data.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = ""
	c.identity = nil
}
