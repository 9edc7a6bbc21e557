package config

import "time"

// RateLimitConfig drives the token bucket middleware (RATE_LIMIT_*).
// BURST and REFILL_EVERY are shorthands that override CAPACITY and the
// refill pair when set.
type RateLimitConfig struct {
	Enabled        bool          `envconfig:"ENABLED" default:"true"`
	Capacity       int           `envconfig:"CAPACITY" default:"60"`
	RefillTokens   int           `envconfig:"REFILL_TOKENS" default:"1"`
	RefillInterval time.Duration `envconfig:"REFILL_INTERVAL" default:"1s"`
	TTL            time.Duration `envconfig:"TTL" default:"10m"`
	KeyStrategy    string        `envconfig:"KEY_STRATEGY" default:"ip_user_route"`
	Prefix         string        `envconfig:"PREFIX" default:"rl"`
	Debug          bool          `envconfig:"DEBUG" default:"false"`
	Burst          int           `envconfig:"BURST"`
	RefillEvery    time.Duration `envconfig:"REFILL_EVERY"`
}

// normalize applies the shorthands and clamps the result to usable values.
func (c *RateLimitConfig) normalize() {
	if c.Burst > 0 {
		c.Capacity = c.Burst
	}
	if c.RefillEvery > 0 {
		c.RefillTokens = 1
		c.RefillInterval = c.RefillEvery
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
}

// RatePerSecond is the steady refill rate of the bucket.
func (c RateLimitConfig) RatePerSecond() float64 {
	return float64(c.RefillTokens) / c.RefillInterval.Seconds()
}
