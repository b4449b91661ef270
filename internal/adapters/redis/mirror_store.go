package redis

// Package redis provides Redis-based adapters for the bankview gateway.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
	"github.com/nimbusbank/bankview/internal/ports"
)

// MirrorStore is the Redis-backed durable mirror of session credentials.
// It is derived state: the in-memory credential registry is the source of
// truth, and a freshly validated credential always overwrites the mirror.
type MirrorStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.MirrorStore = (*MirrorStore)(nil)

const defaultMirrorTTL = 12 * time.Hour

// NewMirrorStore creates a Redis-based mirror store.
func NewMirrorStore(client redis.UniversalClient) *MirrorStore {
	return &MirrorStore{client: client, prefix: "mirror:", ttl: defaultMirrorTTL}
}

// NewMirrorStoreWithOptions creates a mirror store with a custom key prefix and TTL.
func NewMirrorStoreWithOptions(client redis.UniversalClient, prefix string, ttl time.Duration) *MirrorStore {
	if ttl <= 0 {
		ttl = defaultMirrorTTL
	}
	return &MirrorStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *MirrorStore) Save(ctx context.Context, m domainauth.Mirror) error {
	if m.SID == "" {
		return errors.New("mirror SID cannot be empty")
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal mirror: %w", err)
	}

	return s.client.Set(ctx, s.prefix+m.SID, data, s.ttl).Err()
}

func (s *MirrorStore) Get(ctx context.Context, sid string) (domainauth.Mirror, error) {
	if sid == "" {
		return domainauth.Mirror{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+sid).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Mirror{}, ErrNotFound
		}
		return domainauth.Mirror{}, fmt.Errorf("redis get: %w", err)
	}

	var m domainauth.Mirror
	if unmarshalErr := json.Unmarshal([]byte(data), &m); unmarshalErr != nil {
		return domainauth.Mirror{}, fmt.Errorf("unmarshal mirror: %w", unmarshalErr)
	}
	m.Credential = m.Credential.Normalize()

	return m, nil
}

func (s *MirrorStore) Delete(ctx context.Context, sid string) error {
	if sid == "" {
		return nil // Nothing to delete
	}
	return s.client.Del(ctx, s.prefix+sid).Err()
}

// ErrNotFound is returned when a mirror record is not found.
type notFoundError struct{}

func (notFoundError) Error() string { return "mirror not found" }

var ErrNotFound error = notFoundError{}
