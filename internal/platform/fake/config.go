package fake

import (
	"sync"

	"github.com/deadbok/wifiswitch-core/api"
)

// ConfigStore is an in-memory api.ConfigStore. Load returns a copy of
// whatever was last handed to Store (or the value NewConfigStore was
// seeded with, before any Store).
type ConfigStore struct {
	mu  sync.Mutex
	cfg api.Config
}

// NewConfigStore constructs a ConfigStore seeded with initial.
func NewConfigStore(initial api.Config) *ConfigStore {
	return &ConfigStore{cfg: initial}
}

// Load returns the stored configuration.
func (c *ConfigStore) Load() (api.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg, nil
}

// Store persists cfg.
func (c *ConfigStore) Store(cfg api.Config) error {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
	return nil
}
