package config

import (
	"fmt"
	"math"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if !validLogFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format: must be one of text, json; got %q", c.Log.Format))
	}

	if q := c.Compress.Quality; q != nil {
		if err := CheckQuality(*q); err != nil {
			errs = append(errs, "compress.quality: "+err.Error())
		}
	}
	if c.Compress.Workers < 0 {
		errs = append(errs, fmt.Sprintf("compress.workers: must be 0 (auto) or positive, got %d", c.Compress.Workers))
	}

	if c.History.IsEnabled() && c.History.Path == "" {
		errs = append(errs, "history.path: required when history is enabled")
	}

	return errs
}

// CheckQuality rejects WebP quality values outside 0..100, including NaN.
func CheckQuality(q float32) error {
	if math.IsNaN(float64(q)) || q < 0 || q > 100 {
		return fmt.Errorf("must be between 0 and 100, got %v", q)
	}
	return nil
}
