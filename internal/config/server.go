package config

import (
	"errors"
	"fmt"
	"time"
)

// ServerConfig is the process configuration, populated from flags and
// VIRUSBREACH_* environment variables by cmd/server.
type ServerConfig struct {
	Bind         string
	Port         int
	PublicURL    string // external base URL used in QR join links; derived from the request when empty
	RoomTTL      time.Duration
	ReapInterval time.Duration
	TLSCert      string
	TLSKey       string
	Verbose      bool
}

// Validate rejects configurations the server cannot run with.
func (c *ServerConfig) Validate() error {
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.RoomTTL <= 0 {
		return fmt.Errorf("room TTL must be positive: %s", c.RoomTTL)
	}
	return nil
}

// Scheme returns the URL scheme the server will serve on.
func (c *ServerConfig) Scheme() string {
	if c.TLSCert != "" && c.TLSKey != "" {
		return "https"
	}
	return "http"
}
