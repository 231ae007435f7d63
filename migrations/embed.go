// Package migrations embeds the SQL schema for every supported driver.  Each
// driver has its own directory of golang-migrate style files
// (NNNNNN_name.up.sql / .down.sql).
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed mysql/*.sql sqlite3/*.sql
var files embed.FS

// FS returns the migration files for driver ("mysql" or "sqlite3").
func FS(driver string) (fs.FS, error) {
	return fs.Sub(files, driver)
}
