// Package storage holds the durable key/value backends cart state is
// persisted to.
package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// KV is a string key/value store. Get returns ErrNotFound for missing keys.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type scoped struct {
	kv    KV
	scope string
}

// Scoped prefixes every key with scope so several sessions can share one
// backend. Closing a scoped store does not close the backend.
func Scoped(kv KV, scope string) KV {
	if scope == "" {
		return kv
	}
	return &scoped{kv: kv, scope: scope}
}

func (s *scoped) key(k string) string { return s.scope + "/" + k }

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.kv.Get(ctx, s.key(key))
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.key(key), value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, s.key(key))
}

func (s *scoped) Close() error { return nil }
