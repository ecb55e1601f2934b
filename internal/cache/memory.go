package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre patrickmn/go-cache.
type memoryClient struct {
	prefix string
	c      *gocache.Cache
}

// NewMemory crea un cliente en memoria. Las keys vencidas se purgan cada minuto.
func NewMemory(prefix string) Client {
	return &memoryClient{prefix: prefix, c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func ttlOrForever(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}

func (m *memoryClient) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(prefixed(m.prefix, key))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *memoryClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.c.Set(prefixed(m.prefix, key), value, ttlOrForever(ttl))
	return nil
}

func (m *memoryClient) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := m.c.Add(prefixed(m.prefix, key), value, ttlOrForever(ttl)); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memoryClient) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := prefixed(m.prefix, key)
	for i := 0; i < 2; i++ {
		if err := m.c.Add(k, int64(1), ttlOrForever(window)); err == nil {
			return 1, window, nil
		}
		n, err := m.c.IncrementInt64(k, 1)
		if err != nil {
			// venció entre Add e Increment; reintentar
			continue
		}
		var ttl time.Duration
		if _, exp, ok := m.c.GetWithExpiration(k); ok && !exp.IsZero() {
			ttl = time.Until(exp)
		}
		return n, ttl, nil
	}
	return 0, 0, ErrNotFound
}

func (m *memoryClient) Delete(_ context.Context, key string) error {
	m.c.Delete(prefixed(m.prefix, key))
	return nil
}

func (m *memoryClient) Ping(context.Context) error { return nil }
func (m *memoryClient) Close() error               { return nil }
func (m *memoryClient) Driver() string             { return "memory" }
