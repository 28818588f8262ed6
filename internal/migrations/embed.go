// Package migrations embeds the event history schema.
package migrations

import _ "embed"

// InitialSQL creates the events table and its indexes. It is safe to run
// against an already migrated database.
//
//go:embed sql/001_initial.sql
var InitialSQL string
