package server

import (
	"net"
	"strconv"
	"time"

	"github.com/agentstation/comicmap/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	PathPrefix string

	CORSEnabled bool
	CORSOrigins []string

	// RateLimit caps cycle triggers per client per minute (0 disables).
	RateLimit int
	CacheTTL  time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8080,
		PathPrefix:   "/api/v1",
		RateLimit:    6,
		CacheTTL:     5 * time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // streams and cycle triggers outlive any fixed write timeout
		IdleTimeout:  120 * time.Second,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &errors.ValidationError{Field: "port", Value: c.Port, Message: "must be between 0 and 65535"}
	}
	if c.RateLimit < 0 {
		return &errors.ValidationError{Field: "rate_limit", Value: c.RateLimit, Message: "must not be negative"}
	}
	if c.PathPrefix != "" && c.PathPrefix[0] != '/' {
		return &errors.ValidationError{Field: "prefix", Value: c.PathPrefix, Message: "must start with /"}
	}
	return nil
}
