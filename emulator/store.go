// Package emulator provides an in-process store speaking the commit and
// lookup wire protocol, with pluggable persistence backends. It backs the
// package tests and can serve local development through cmd/emulator.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("emulator: entity not found")
	ErrAlreadyExists = errors.New("emulator: entity already exists")
)

type PutMode string

const (
	PutInsert PutMode = "insert"
	PutUpdate PutMode = "update"
	PutUpsert PutMode = "upsert"
)

func (m PutMode) Valid() bool {
	switch m {
	case PutInsert, PutUpdate, PutUpsert:
		return true
	default:
		return false
	}
}

// Record is a stored entity. Payload holds the wire rendering of the entity
// properties.
type Record struct {
	Kind      string    `msgpack:"kind"`
	Name      string    `msgpack:"name"`
	Payload   []byte    `msgpack:"payload"`
	Version   int64     `msgpack:"version"`
	UpdatedAt time.Time `msgpack:"updated_at"`
}

// Store persists records by kind and name. Put assigns the next version and
// the update time; Delete returns the version of the removal, or zero when
// nothing was stored.
type Store interface {
	Get(ctx context.Context, kind string, name string) (Record, error)
	Put(ctx context.Context, record Record, mode PutMode) (Record, error)
	Delete(ctx context.Context, kind string, name string) (int64, error)
	Close() error
}

func validateKey(kind string, name string) error {
	if strings.TrimSpace(kind) == "" {
		return fmt.Errorf("emulator: kind is required")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("emulator: name is required")
	}
	return nil
}

func validatePut(record Record, mode PutMode) error {
	if err := validateKey(record.Kind, record.Name); err != nil {
		return err
	}
	if !mode.Valid() {
		return fmt.Errorf("emulator: unsupported put mode %q", mode)
	}
	return nil
}

// checkPut applies the mode rules against the current state of a key.
func checkPut(exists bool, mode PutMode) error {
	switch {
	case mode == PutInsert && exists:
		return ErrAlreadyExists
	case mode == PutUpdate && !exists:
		return ErrNotFound
	default:
		return nil
	}
}

func cloneRecord(record Record) Record {
	cloned := record
	cloned.Payload = append([]byte(nil), record.Payload...)
	cloned.UpdatedAt = record.UpdatedAt.UTC()
	return cloned
}
