package emulator

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

var (
	boltEntitiesBucket = []byte("entities")
	boltVersionsBucket = []byte("versions")
)

type BoltOptions struct {
	Timeout time.Duration
	// NoSync trades durability for speed; tests enable it.
	NoSync bool
}

// BoltStore keeps msgpack encoded records in a bbolt file. Versions live in
// their own bucket so they keep increasing across deletes.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

func OpenBoltStore(path string, opts BoltOptions) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("emulator: bolt path is required")
	}
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = opts.Timeout
	if bopt.Timeout <= 0 {
		bopt.Timeout = 10 * time.Second
	}
	bopt.NoSync = opts.NoSync

	db, err := bbolt.Open(path, 0o600, bopt)
	if err != nil {
		return nil, fmt.Errorf("emulator: open bolt store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{boltEntitiesBucket, boltVersionsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("emulator: prepare bolt buckets: %w", err)
	}
	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) Get(ctx context.Context, kind string, name string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validateKey(kind, name); err != nil {
		return Record{}, err
	}
	var record Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(boltEntitiesBucket).Get(boltKey(kind, name))
		if raw == nil {
			return ErrNotFound
		}
		decoded, err := decodeBoltRecord(raw)
		if err != nil {
			return err
		}
		record = decoded
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

func (s *BoltStore) Put(ctx context.Context, record Record, mode PutMode) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validatePut(record, mode); err != nil {
		return Record{}, err
	}
	stored := cloneRecord(record)
	key := boltKey(record.Kind, record.Name)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		entities := tx.Bucket(boltEntitiesBucket)
		versions := tx.Bucket(boltVersionsBucket)
		if err := checkPut(entities.Get(key) != nil, mode); err != nil {
			return err
		}
		stored.Version = readVersion(versions.Get(key)) + 1
		stored.UpdatedAt = s.now().UTC()

		encoded, err := msgpack.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("emulator: encode record: %w", err)
		}
		if err := entities.Put(key, encoded); err != nil {
			return err
		}
		return versions.Put(key, writeVersion(stored.Version))
	})
	if err != nil {
		return Record{}, err
	}
	return cloneRecord(stored), nil
}

func (s *BoltStore) Delete(ctx context.Context, kind string, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateKey(kind, name); err != nil {
		return 0, err
	}
	key := boltKey(kind, name)
	var version int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		entities := tx.Bucket(boltEntitiesBucket)
		if entities.Get(key) == nil {
			return nil
		}
		if err := entities.Delete(key); err != nil {
			return err
		}
		versions := tx.Bucket(boltVersionsBucket)
		version = readVersion(versions.Get(key)) + 1
		return versions.Put(key, writeVersion(version))
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boltKey(kind string, name string) []byte {
	return []byte(kind + "\x00" + name)
}

// decodeBoltRecord copies out of raw, which is only valid inside the
// transaction.
func decodeBoltRecord(raw []byte) (Record, error) {
	var record Record
	if err := msgpack.Unmarshal(raw, &record); err != nil {
		return Record{}, fmt.Errorf("emulator: decode record: %w", err)
	}
	return cloneRecord(record), nil
}

func readVersion(raw []byte) int64 {
	if len(raw) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(raw))
}

func writeVersion(version int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(version))
	return buf
}

var _ Store = (*BoltStore)(nil)
