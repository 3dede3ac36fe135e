package kvstore

import (
	"context"
	"sort"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

type Memory struct {
	cache *gocache.Cache
}

func NewMemory() *Memory {
	return &Memory{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	value, found := m.cache.Get(key)
	if !found {
		return nil, ErrNotFound
	}
	raw, ok := value.([]byte)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.cache.Set(key, append([]byte(nil), value...), gocache.NoExpiration)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.cache.Delete(key)
	}
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	items := m.cache.Items()
	keys := make([]string, 0, len(items))
	for key := range items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
