package config

import (
	"fmt"
	"net"
)

// APIConfig configures the HTTP reports API started by "cspbc serve".
type APIConfig struct {
	Addr string `json:"addr"`
	// Token, when set, must be sent as "Authorization: Bearer <token>".
	Token string `json:"token"`
}

func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

func (c APIConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("addr %q: %w", c.Addr, err)
	}
	return nil
}
