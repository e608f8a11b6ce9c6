package emulator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const recordCacheKeyPrefix = "go-datastore::emulator_record::v1"

// CachedStore reads through a cache service and invalidates a key after
// every write to it.
type CachedStore struct {
	base  Store
	cache repositorycache.CacheService
}

func NewCachedStore(base Store, cacheService repositorycache.CacheService) (*CachedStore, error) {
	if base == nil {
		return nil, fmt.Errorf("emulator: base store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("emulator: cache service is required")
	}
	return &CachedStore{base: base, cache: cacheService}, nil
}

// RecordCacheKey returns go-datastore::emulator_record::v1::<kind>::<name>
// with each segment URL-path escaped.
func RecordCacheKey(kind string, name string) (string, error) {
	if err := validateKey(kind, name); err != nil {
		return "", err
	}
	return strings.Join([]string{
		recordCacheKeyPrefix,
		url.PathEscape(kind),
		url.PathEscape(name),
	}, "::"), nil
}

func (s *CachedStore) Get(ctx context.Context, kind string, name string) (Record, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return Record{}, fmt.Errorf("emulator: cached store is not configured")
	}
	cacheKey, err := RecordCacheKey(kind, name)
	if err != nil {
		return Record{}, err
	}
	record, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (Record, error) {
		fetched, fetchErr := s.base.Get(ctx, kind, name)
		if fetchErr != nil {
			return Record{}, fetchErr
		}
		return cloneRecord(fetched), nil
	})
	if err != nil {
		return Record{}, err
	}
	return cloneRecord(record), nil
}

func (s *CachedStore) Put(ctx context.Context, record Record, mode PutMode) (Record, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return Record{}, fmt.Errorf("emulator: cached store is not configured")
	}
	stored, err := s.base.Put(ctx, record, mode)
	if err != nil {
		return Record{}, err
	}
	if err := s.invalidate(ctx, record.Kind, record.Name); err != nil {
		return Record{}, err
	}
	return stored, nil
}

func (s *CachedStore) Delete(ctx context.Context, kind string, name string) (int64, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return 0, fmt.Errorf("emulator: cached store is not configured")
	}
	version, err := s.base.Delete(ctx, kind, name)
	if err != nil {
		return 0, err
	}
	if err := s.invalidate(ctx, kind, name); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *CachedStore) Close() error {
	if s == nil || s.base == nil {
		return nil
	}
	return s.base.Close()
}

func (s *CachedStore) invalidate(ctx context.Context, kind string, name string) error {
	cacheKey, err := RecordCacheKey(kind, name)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ Store = (*CachedStore)(nil)
