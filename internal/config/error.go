package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSettings wraps every failure to read or write the settings record.
var ErrSettings = errors.New("settings error")

// Error is returned by Load when a config file parses but cannot be used.
// Unset variables and failed checks are collected so every problem in the
// file is reported at once.
type Error struct {
	Path    string
	Missing []string // "NAME" or "NAME: message" for ${NAME:?message}
	Errors  []string // from Validate
}

func (e *Error) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var b strings.Builder
	b.WriteString("invalid config")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	fmt.Fprintf(&b, " (%d problems)", len(e.Missing)+len(e.Errors))
	for _, m := range e.Missing {
		fmt.Fprintf(&b, "\n  - unset variable %s", m)
	}
	for _, v := range e.Errors {
		fmt.Fprintf(&b, "\n  - %s", v)
	}
	return b.String()
}

// HasErrors reports whether anything was collected.
func (e *Error) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}
