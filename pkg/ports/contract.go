package ports

import (
	"context"
	"testing"

	"github.com/aretw0/cadence/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSettingsStoreContract runs a suite of tests to verify that a SettingsStore
// implementation adheres to the defined interface contract. The store must be empty.
func RunSettingsStoreContract(t *testing.T, store SettingsStore) {
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, domain.SettingParticipantID, "P-001"))

		v, err := store.Get(ctx, domain.SettingParticipantID)
		require.NoError(t, err)
		assert.Equal(t, "P-001", v)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, domain.SettingStartIndex, "1"))
		require.NoError(t, store.Set(ctx, domain.SettingStartIndex, "4"))

		v, err := store.Get(ctx, domain.SettingStartIndex)
		require.NoError(t, err)
		assert.Equal(t, "4", v)
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing-key")
		assert.ErrorIs(t, err, domain.ErrSettingNotFound)
	})

	t.Run("All", func(t *testing.T) {
		all, err := store.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, "P-001", all[domain.SettingParticipantID])
		assert.Equal(t, "4", all[domain.SettingStartIndex])

		// Returned map is a copy.
		all[domain.SettingParticipantID] = "tampered"
		v, err := store.Get(ctx, domain.SettingParticipantID)
		require.NoError(t, err)
		assert.Equal(t, "P-001", v)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, domain.SettingStartIndex))
		_, err := store.Get(ctx, domain.SettingStartIndex)
		assert.ErrorIs(t, err, domain.ErrSettingNotFound)

		// Deleting an absent key is not an error.
		assert.NoError(t, store.Delete(ctx, domain.SettingStartIndex))
	})
}
