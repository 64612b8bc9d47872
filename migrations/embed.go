// Package migrations embeds the SQL schema migrations into the binary so the
// service can migrate its metadata cache without files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-device/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
