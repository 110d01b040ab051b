// Package paging wraps a fetched page together with its count-derived metadata and
// parses the paging parameters of a request.
package paging

import (
	"fmt"
)

// Config bounds the page size a client may ask for.
type Config struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

// Finalize applies defaults and validates the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	return c.validate()
}

func (c *Config) loadDefaults() {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 10
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 20
	}
}

func (c *Config) validate() error {
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size (%d) cannot exceed max_page_size (%d)", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}
