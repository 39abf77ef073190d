package db

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestSchemaEnforcesCouponCap(t *testing.T) {
	b, err := fs.ReadFile(migrationFiles, "migrations/000001_billing_schema.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "CHECK (used_count <= max_uses)")
}

func TestNewRedisClientRequiresAddress(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{})
	assert.Error(t, err)
}
