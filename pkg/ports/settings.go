package ports

import (
	"context"
	"fmt"

	"github.com/aretw0/cadence/pkg/domain"
)

// LoadRunSettings reads every setting from store. A nil store yields defaults.
func LoadRunSettings(ctx context.Context, store SettingsStore) (domain.RunSettings, error) {
	if store == nil {
		return domain.RunSettingsFromMap(nil), nil
	}
	all, err := store.All(ctx)
	if err != nil {
		return domain.RunSettings{}, fmt.Errorf("failed to read run settings: %w", err)
	}
	return domain.RunSettingsFromMap(all), nil
}

// SaveRunSettings writes every non-empty setting to store.
func SaveRunSettings(ctx context.Context, store SettingsStore, s domain.RunSettings) error {
	for k, v := range s.Map() {
		if err := store.Set(ctx, k, v); err != nil {
			return fmt.Errorf("failed to save setting %q: %w", k, err)
		}
	}
	return nil
}
