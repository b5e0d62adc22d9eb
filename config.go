package ppcasm

import "github.com/dyngen/ppcasm/internal/asm"

// Host is the capability interface a compilation unit writes and reports
// through. See the documentation on the underlying interface.
type Host = asm.Host

// Config carries the construction-time dependencies of a Unit.
type Config struct {
	host Host
}

// NewConfig returns an empty configuration.
func NewConfig() *Config {
	return &Config{}
}

// WithHost sets the host capability interface. Required.
func (c *Config) WithHost(h Host) *Config {
	c.host = h
	return c
}
