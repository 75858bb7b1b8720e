package sse

import "time"

// Config holds configuration for SSE connections
type Config struct {
	// KeepAliveInterval is how often a comment line is written to keep
	// proxies from closing an idle stream.
	KeepAliveInterval time.Duration
	// Buffer is the per-client event backlog; a client further behind
	// misses events.
	Buffer int
}

// DefaultConfig returns the default SSE configuration
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 15 * time.Second,
		Buffer:            32,
	}
}
