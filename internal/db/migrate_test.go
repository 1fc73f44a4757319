package db

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUpMigrationsSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_b.up.sql":   {Data: []byte("SELECT 2")},
		"migrations/0001_a.up.sql":   {Data: []byte("SELECT 1")},
		"migrations/0001_a.down.sql": {Data: []byte("SELECT 0")},
		"migrations/README":          {Data: []byte("notes")},
	}

	files, err := upMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql"}, files)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := upMigrations(migrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_init.up.sql", files[0])
}

func TestMigrateIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("CRM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CRM_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := New(ctx, url, zap.NewNop())
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.Migrate(ctx))
	require.NoError(t, database.Migrate(ctx))

	var count int
	err = database.Pool().QueryRow(ctx, `SELECT count(*) FROM schema_migrations WHERE version = '0001_init.up.sql'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
