package db

import (
	"context"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
)

// MemoryRevocations is a process-local revocation list. Entries are evicted
// by bigcache once they outlive the retention window. Revocations are not
// shared between replicas and do not survive a restart.
type MemoryRevocations struct {
	cache *bigcache.BigCache
}

func NewMemoryRevocations(retention time.Duration) (*MemoryRevocations, error) {
	cfg := bigcache.DefaultConfig(retention)
	cfg.CleanWindow = time.Minute
	if retention < cfg.CleanWindow {
		cfg.CleanWindow = retention
	}
	cfg.Verbose = false
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, err
	}
	return &MemoryRevocations{cache: cache}, nil
}

func (m *MemoryRevocations) RevokeToken(ctx context.Context, token string) error {
	if _, err := m.cache.Get(token); err == nil {
		return nil
	}
	return m.cache.Set(token, []byte{1})
}

func (m *MemoryRevocations) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	buf, err := m.cache.Get(token)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return false, nil
		}
		return false, err
	}
	return len(buf) > 0 && buf[0] == 1, nil
}

func (m *MemoryRevocations) Len() int {
	return m.cache.Len()
}

func (m *MemoryRevocations) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryRevocations) Close() error {
	return m.cache.Close()
}
