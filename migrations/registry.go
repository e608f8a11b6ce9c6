// Package migrations ships the SQL schema used by the emulator SQL backend,
// one directory per dialect, and hands it to a persistence client.
package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	schemaRoot = "data/sql/migrations"
)

// Versions lists the emulator schema migrations in apply order. Every
// version ships an .up.sql and a .down.sql file for each dialect.
var Versions = []string{
	"00001_emulator_entities",
}

// Registrar receives migration filesystems. *persistence.Client satisfies it.
type Registrar interface {
	RegisterSQLMigrations(migrations ...fs.FS) *persistence.Migrations
}

// DialectForDriver maps a database/sql driver name onto a migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "postgres", "pgx", "postgresql":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// Schema returns the migration directory for dialect.
func Schema(dialect string) (fs.FS, error) {
	return schemaFrom(GetMigrationsFS(), dialect)
}

func schemaFrom(root fs.FS, dialect string) (fs.FS, error) {
	dir := schemaRoot
	switch dialect {
	case DialectPostgres:
	case DialectSQLite:
		dir += "/sqlite"
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	sub, err := fs.Sub(root, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s schema: %w", dialect, err)
	}
	for _, version := range Versions {
		for _, direction := range []string{"up", "down"} {
			name := version + "." + direction + ".sql"
			if _, err := fs.Stat(sub, name); err != nil {
				return nil, fmt.Errorf("migrations: %s schema is missing %s: %w", dialect, name, err)
			}
		}
	}
	return sub, nil
}

// Register resolves the dialect for driver and registers its schema with
// registrar. It returns the dialect it registered.
func Register(driver string, registrar Registrar) (string, error) {
	if registrar == nil {
		return "", fmt.Errorf("migrations: registrar is required")
	}
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return "", err
	}
	schema, err := Schema(dialect)
	if err != nil {
		return "", err
	}
	registrar.RegisterSQLMigrations(schema)
	return dialect, nil
}
