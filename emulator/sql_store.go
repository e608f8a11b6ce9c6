package emulator

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-datastore/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// entityNamespace seeds the deterministic record ids.
var entityNamespace = uuid.MustParse("5f0e3c1a-8b7d-5c4e-9a2f-d6b1e0a7c3f4")

type entityRecord struct {
	bun.BaseModel `bun:"table:emulator_entities,alias:ee"`

	ID        string     `bun:"id,pk"`
	Kind      string     `bun:"kind,notnull"`
	Name      string     `bun:"name,notnull"`
	Payload   []byte     `bun:"payload"`
	Version   int64      `bun:"version,notnull"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt *time.Time `bun:"deleted_at"`
}

func (r *entityRecord) toRecord() Record {
	if r == nil {
		return Record{}
	}
	return cloneRecord(Record{
		Kind:      r.Kind,
		Name:      r.Name,
		Payload:   r.Payload,
		Version:   r.Version,
		UpdatedAt: r.UpdatedAt,
	})
}

// EntityRecordID returns the UUIDv5 id stored for kind and name.
func EntityRecordID(kind string, name string) string {
	return uuid.NewSHA1(entityNamespace, []byte(kind+"\x00"+name)).String()
}

func entityHandlers() repository.ModelHandlers[*entityRecord] {
	return repository.ModelHandlers[*entityRecord]{
		NewRecord: func() *entityRecord {
			return &entityRecord{}
		},
		GetID: func(record *entityRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			parsed, err := uuid.Parse(strings.TrimSpace(record.ID))
			if err != nil {
				return uuid.Nil
			}
			return parsed
		},
		SetID: func(record *entityRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *entityRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

// SQLStore keeps records in the emulator_entities table. Deleted rows stay
// as tombstones so versions keep increasing.
type SQLStore struct {
	db   *bun.DB
	repo repository.Repository[*entityRecord]
	now  func() time.Time

	// mu serializes read-modify-write cycles; sqlite has no row locks.
	mu sync.Mutex

	closer func() error
}

func NewSQLStore(db *bun.DB) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("emulator: bun db is required")
	}
	repo := repository.NewRepository[*entityRecord](db, entityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("emulator: invalid entity repository wiring: %w", err)
		}
	}
	return &SQLStore{db: db, repo: repo, now: time.Now}, nil
}

type SQLConfig struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

func (c SQLConfig) GetDebug() bool { return c.Debug }

func (c SQLConfig) GetDriver() string { return c.Driver }

func (c SQLConfig) GetServer() string { return c.DSN }

func (c SQLConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c SQLConfig) GetOtelIdentifier() string { return "go-datastore-emulator" }

// OpenSQLStore opens a sqlite3 or postgres database through a persistence
// client and applies the emulator migrations.
func OpenSQLStore(ctx context.Context, cfg SQLConfig) (*SQLStore, error) {
	dialectName, err := migrations.DialectForDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("emulator: sql dsn is required")
	}

	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("emulator: open sql db: %w", err)
	}
	var dialect schema.Dialect
	switch dialectName {
	case migrations.DialectSQLite:
		sqlDB.SetMaxOpenConns(1)
		dialect = sqlitedialect.New()
	default:
		dialect = pgdialect.New()
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("emulator: new persistence client: %w", err)
	}
	if _, err := migrations.Register(cfg.Driver, client); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("emulator: migrate: %w", err)
	}

	store, err := NewSQLStore(client.DB())
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	store.closer = client.Close
	return store, nil
}

func (s *SQLStore) Get(ctx context.Context, kind string, name string) (Record, error) {
	if s == nil || s.db == nil {
		return Record{}, fmt.Errorf("emulator: sql store is not configured")
	}
	if err := validateKey(kind, name); err != nil {
		return Record{}, err
	}
	record := &entityRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", EntityRecordID(kind, name)).
		Where("?TableAlias.deleted_at IS NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return record.toRecord(), nil
}

func (s *SQLStore) Put(ctx context.Context, record Record, mode PutMode) (Record, error) {
	if s == nil || s.db == nil || s.repo == nil {
		return Record{}, fmt.Errorf("emulator: sql store is not configured")
	}
	if err := validatePut(record, mode); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored Record
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		id := EntityRecordID(record.Kind, record.Name)
		current, err := findEntityTx(ctx, tx, id)
		if err != nil {
			return err
		}
		exists := current != nil && current.DeletedAt == nil
		if err := checkPut(exists, mode); err != nil {
			return err
		}
		now := s.now().UTC()

		if current == nil {
			created, createErr := s.repo.CreateTx(ctx, tx, &entityRecord{
				ID:        id,
				Kind:      record.Kind,
				Name:      record.Name,
				Payload:   append([]byte(nil), record.Payload...),
				Version:   1,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if createErr != nil {
				return createErr
			}
			stored = created.toRecord()
			return nil
		}

		current.Payload = append([]byte(nil), record.Payload...)
		current.Version++
		current.UpdatedAt = now
		current.DeletedAt = nil
		if _, updateErr := tx.NewUpdate().
			Model(current).
			Where("id = ?", current.ID).
			Exec(ctx); updateErr != nil {
			return updateErr
		}
		stored = current.toRecord()
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return stored, nil
}

func (s *SQLStore) Delete(ctx context.Context, kind string, name string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("emulator: sql store is not configured")
	}
	if err := validateKey(kind, name); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var version int64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := findEntityTx(ctx, tx, EntityRecordID(kind, name))
		if err != nil {
			return err
		}
		if current == nil || current.DeletedAt != nil {
			return nil
		}
		now := s.now().UTC()
		version = current.Version + 1
		_, err = tx.NewUpdate().
			Model((*entityRecord)(nil)).
			Set("payload = NULL").
			Set("version = ?", version).
			Set("updated_at = ?", now).
			Set("deleted_at = ?", now).
			Where("id = ?", current.ID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}

// findEntityTx returns nil when no row, tombstone included, exists for id.
func findEntityTx(ctx context.Context, tx bun.Tx, id string) (*entityRecord, error) {
	record := &entityRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

var _ Store = (*SQLStore)(nil)
