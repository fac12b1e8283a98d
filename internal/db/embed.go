package db

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the embedded migration files. Binaries migrate from
// this so a deployment never depends on a migrations directory on disk.
func Migrations() fs.FS {
	return migrationsFS
}
