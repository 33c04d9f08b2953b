package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aretw0/cadence/internal/config"
	"github.com/aretw0/cadence/pkg/adapters/file"
	"github.com/aretw0/cadence/pkg/adapters/memory"
	"github.com/aretw0/cadence/pkg/adapters/redis"
	"github.com/aretw0/cadence/pkg/ports"
)

// OpenSettings opens the run settings backend selected by cfg.
// The returned close function is never nil.
func OpenSettings(cfg config.RunConfig) (ports.SettingsStore, func() error, error) {
	switch cfg.SettingsBackend {
	case config.BackendFile:
		return file.New(cfg.SettingsFile), func() error { return nil }, nil
	case config.BackendMemory:
		return memory.NewStore(nil), func() error { return nil }, nil
	case config.BackendRedis:
		s := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithKey(cfg.RedisKey))
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown settings backend %q", cfg.SettingsBackend)
}

// ListSettings prints every stored setting, sorted by key.
func ListSettings(ctx context.Context, store ports.SettingsStore, w io.Writer) error {
	all, err := store.All(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s=%s\n", k, all[k])
	}
	return nil
}

// SetSettings stores key=value pairs.
func SetSettings(ctx context.Context, store ports.SettingsStore, pairs []string) error {
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return fmt.Errorf("invalid setting %q: expected key=value", p)
		}
		if err := store.Set(ctx, k, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("failed to save setting %q: %w", k, err)
		}
	}
	return nil
}
