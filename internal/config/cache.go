package config

import (
	"strings"
	"time"
)

// CacheConfig controls the response cache middleware.  Methods lists
// the HTTP methods eligible for caching, TTL bounds entry lifetime, and
// MaxBodyBytes caps the size of responses worth storing.  Availability
// and catalog reads are the intended consumers; cached entries are
// namespaced under Prefix and carry per-kind version numbers so writes
// can invalidate without scanning keys.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads cache settings from the environment with
// sensible defaults.  Availability answers go stale the moment a
// checkout lands, so the default TTL is short.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 15*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(strings.ToUpper(p)); p != "" {
			m[p] = true
		}
	}
	return m
}
