package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/cadence/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultKey = "cadence:settings"

// Store implements ports.SettingsStore on a single Redis hash, so that
// several lab stations can share one set of run settings.
type Store struct {
	client *backend.Client
	key    string
}

type Option func(*Store)

// WithKey sets the hash key that holds the settings.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		key:    defaultKey,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Get retrieves a setting.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.HGet(ctx, s.key, key).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", domain.ErrSettingNotFound
		}
		return "", fmt.Errorf("failed to load setting from redis: %w", err)
	}
	return val, nil
}

// Set stores a setting.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.key, key, value).Err(); err != nil {
		return fmt.Errorf("failed to save setting to redis: %w", err)
	}
	return nil
}

// Delete removes a setting.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, s.key, key).Err(); err != nil {
		return fmt.Errorf("failed to delete setting from redis: %w", err)
	}
	return nil
}

// All returns every setting.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list settings from redis: %w", err)
	}
	return all, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
