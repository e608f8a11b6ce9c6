package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
)

type recordingRegistrar struct {
	schemas []fs.FS
}

func (r *recordingRegistrar) RegisterSQLMigrations(migrations ...fs.FS) *persistence.Migrations {
	r.schemas = append(r.schemas, migrations...)
	return nil
}

func TestSchema_ShipsEveryVersionForBothDialects(t *testing.T) {
	for _, dialect := range []string{DialectPostgres, DialectSQLite} {
		schema, err := Schema(dialect)
		if err != nil {
			t.Fatalf("schema %s: %v", dialect, err)
		}
		matches, err := fs.Glob(schema, "*.up.sql")
		if err != nil {
			t.Fatalf("glob %s: %v", dialect, err)
		}
		if len(matches) != len(Versions) {
			t.Fatalf("expected %d %s up migrations, got %v", len(Versions), dialect, matches)
		}
	}
	if _, err := Schema("mysql"); err == nil {
		t.Fatalf("expected unsupported dialect to fail")
	}
}

func TestSchema_RejectsIncompletePair(t *testing.T) {
	root := fstest.MapFS{
		"data/sql/migrations/00001_emulator_entities.up.sql": {Data: []byte("CREATE TABLE x (id TEXT);")},
	}
	_, err := schemaFrom(root, DialectPostgres)
	if err == nil || !strings.Contains(err.Error(), "00001_emulator_entities.down.sql") {
		t.Fatalf("expected missing down migration to be reported, got %v", err)
	}
}

func TestRegister_HandsDialectSchemaToRegistrar(t *testing.T) {
	registrar := &recordingRegistrar{}
	dialect, err := Register("sqlite3", registrar)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dialect != DialectSQLite {
		t.Fatalf("expected sqlite dialect, got %q", dialect)
	}
	if len(registrar.schemas) != 1 {
		t.Fatalf("expected one registered schema, got %d", len(registrar.schemas))
	}
	content, err := fs.ReadFile(registrar.schemas[0], "00001_emulator_entities.up.sql")
	if err != nil {
		t.Fatalf("read registered migration: %v", err)
	}
	if strings.Contains(string(content), "TIMESTAMPTZ") {
		t.Fatalf("expected sqlite flavored migration")
	}
}

func TestRegister_RejectsBadInput(t *testing.T) {
	if _, err := Register("sqlite3", nil); err == nil {
		t.Fatalf("expected missing registrar to fail")
	}
	registrar := &recordingRegistrar{}
	if _, err := Register("mysql", registrar); err == nil {
		t.Fatalf("expected unsupported driver to fail")
	}
	if len(registrar.schemas) != 0 {
		t.Fatalf("expected nothing registered for unsupported driver")
	}
}

func TestEmulatorEntitiesMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := GetMigrationsFS()
	paths := []string{
		"data/sql/migrations/00001_emulator_entities.up.sql",
		"data/sql/migrations/00001_emulator_entities.down.sql",
		"data/sql/migrations/sqlite/00001_emulator_entities.up.sql",
		"data/sql/migrations/sqlite/00001_emulator_entities.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteEmulatorEntitiesMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-emulator-entities?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_emulator_entities.up.sql"); err != nil {
		t.Fatalf("apply migration up: %v", err)
	}

	insert := `INSERT INTO emulator_entities (id, kind, name, payload, version) VALUES (?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "id-1", "Todo", "first", []byte("{}"), 1); err != nil {
		t.Fatalf("insert row: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "id-2", "Todo", "first", []byte("{}"), 1); err == nil {
		t.Fatalf("expected kind/name uniqueness to reject duplicate row")
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_emulator_entities.down.sql"); err != nil {
		t.Fatalf("apply migration down: %v", err)
	}
	var tableCount int
	if err := db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'emulator_entities'`,
	).Scan(&tableCount); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if tableCount != 0 {
		t.Fatalf("expected rollback to drop emulator_entities")
	}
}

func TestDialectForDriver(t *testing.T) {
	cases := map[string]string{
		"sqlite3":  DialectSQLite,
		"postgres": DialectPostgres,
		"pgx":      DialectPostgres,
	}
	for driver, want := range cases {
		got, err := DialectForDriver(driver)
		if err != nil {
			t.Fatalf("dialect for %s: %v", driver, err)
		}
		if got != want {
			t.Fatalf("dialect for %s: expected %q, got %q", driver, want, got)
		}
	}
	if _, err := DialectForDriver("mysql"); err == nil {
		t.Fatalf("expected unsupported driver to fail")
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
