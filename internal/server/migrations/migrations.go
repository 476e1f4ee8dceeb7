// Package migrations embeds the goose SQL migrations for each supported
// database dialect.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// For returns the migration directory for dialect ("postgres" or "sqlite").
func For(dialect string) (fs.FS, error) {
	if _, err := fs.Stat(Migrations, dialect); err != nil {
		return nil, err
	}
	return fs.Sub(Migrations, dialect)
}
