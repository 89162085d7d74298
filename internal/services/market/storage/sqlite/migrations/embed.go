package migrations

import "embed"

// EventsFS holds the journal and checkpoint schema.
//
//go:embed events/*.sql
var EventsFS embed.FS
