package integration

import (
	"testing"

	"github.com/facturacion/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_RoundTrip(t *testing.T) {
	tdb := NewTestDB(t)

	m, err := migration.NewFromURL(tdb.DSN, findMigrationsPath(), nil)
	require.NoError(t, err)
	defer func() {
		_ = m.Close()
	}()

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, m.Down())
	assert.False(t, tdb.DB.Migrator().HasTable("register_sequences"))

	require.NoError(t, m.Up())
	for _, table := range []string{
		"channels", "channel_memberships", "activities", "branches", "registers",
		"register_sequences", "reference_datasets", "reference_classifications", "classification_overrides",
	} {
		assert.True(t, tdb.DB.Migrator().HasTable(table), table)
	}

	// The branch code check constraint is part of the schema
	err = tdb.DB.Exec(`INSERT INTO branches (id, channel_id, activity_id, code) VALUES (gen_random_uuid(), gen_random_uuid(), gen_random_uuid(), 'A1')`).Error
	assert.Error(t, err)
}
