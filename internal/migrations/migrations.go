// Package migrations embeds the SQL schema history applied by goose.
//
// Each dialect has its own directory because SQLite and Postgres spell
// auto-increment keys and timestamps differently. The history mirrors how the
// schema grew: blogs first, created_at next, then users and authorship.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Dir returns the migration directory for a goose dialect name.
func Dir(dialect string) string {
	if dialect == "postgres" {
		return "postgres"
	}
	return "sqlite"
}
