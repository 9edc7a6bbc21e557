package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware (CACHE_*).
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Only public catalog reads go through the cache.
type CacheConfig struct {
	Enabled      bool          `envconfig:"ENABLED" default:"true"`
	MethodList   []string      `envconfig:"METHODS" default:"GET"`
	TTL          time.Duration `envconfig:"TTL" default:"30s"`
	KeyStrategy  string        `envconfig:"KEY_STRATEGY" default:"route_query"`
	Prefix       string        `envconfig:"PREFIX" default:"cache"`
	MaxBodyBytes int           `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	// Methods is MethodList upper-cased, filled by normalize.
	Methods map[string]bool `ignored:"true"`
}

func (c *CacheConfig) normalize() {
	c.Methods = map[string]bool{}
	for _, p := range c.MethodList {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			c.Methods[p] = true
		}
	}
}
