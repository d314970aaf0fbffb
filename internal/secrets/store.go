package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/logger"
)

// Store resolves named secrets. Lookup order: process environment first,
// then the remote key-value document (one hash holding all keys). A missing
// secret is a normal outcome; only a broken store configuration is fatal,
// and that surfaces at construction, before any symbol is processed.
type Store struct {
	rdb    *redis.Client
	docKey string
	logger *logger.Logger
}

// New creates a secret store. With the remote store disabled, resolution is
// environment-only.
func New(cfg config.SecretsConfig, log *logger.Logger) (*Store, error) {
	store := &Store{
		docKey: cfg.DocKey,
		logger: log.WithField("module", "secrets"),
	}

	if !cfg.Enabled {
		return store, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("secret store connection failed: %w", err)
	}

	store.rdb = rdb
	return store, nil
}

// Get resolves a secret by name. Returns empty with no error when the
// secret is simply not set anywhere.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}

	if s.rdb == nil {
		return "", nil
	}

	v, err := s.rdb.HGet(ctx, s.docKey, name).Result()
	if errors.Is(err, redis.Nil) {
		s.logger.WithField("name", name).Debug("Secret not found in remote store")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read secret %q: %w", name, err)
	}

	return v, nil
}

// Close releases the remote store connection.
func (s *Store) Close() error {
	if s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}
