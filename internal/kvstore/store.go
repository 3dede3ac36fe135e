// Package kvstore is the client-side key-value persistence used for the local
// archive, the reset watermark, per-user settings and the login session.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	// Keys lists every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// GetJSON decodes the value at key into dst. It returns ErrNotFound untouched.
func GetJSON(ctx context.Context, s Store, key string, dst any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func PutJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, raw)
}
