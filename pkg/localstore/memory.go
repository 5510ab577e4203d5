package localstore

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryStorage keeps values for the lifetime of the process.
type MemoryStorage struct {
	cache *cache.Cache
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	if x, found := s.cache.Get(key); found {
		return x.(string), nil
	}
	return "", ErrNotFound
}

func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
